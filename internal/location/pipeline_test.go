package location_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/location"
)

func placeSource(name string, items []location.Place, err error, calls *[]string, mu *sync.Mutex) location.Source[location.Place] {
	return location.Source[location.Place]{
		Name: name,
		Fetch: func(_ context.Context, _ location.Query) ([]location.Place, error) {
			mu.Lock()
			*calls = append(*calls, name)
			mu.Unlock()
			return items, err
		},
	}
}

func TestPipeline_FallbackChain(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	item := location.Place{Name: "Grand Hotel", Coordinates: at(1, 1)}

	p := location.Pipeline[location.Place]{
		Category: location.CategoryAccommodation,
		Mode:     location.FallbackChain,
		Sources: []location.Source[location.Place]{
			placeSource("first", []location.Place{}, nil, &calls, &mu),
			placeSource("second", nil, errors.New("boom"), &calls, &mu),
			placeSource("third", []location.Place{item}, nil, &calls, &mu),
			placeSource("fourth", []location.Place{{Name: "Never", Coordinates: at(2, 2)}}, nil, &calls, &mu),
		},
	}

	got := p.Run(context.Background(), location.Query{}, zap.NewNop())

	assert.Equal(t, []location.Place{item}, got)
	assert.Equal(t, []string{"first", "second", "third"}, calls, "chain stops at the first non-empty source")
}

func TestPipeline_FallbackChain_AllEmpty(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	p := location.Pipeline[location.Place]{
		Mode: location.FallbackChain,
		Sources: []location.Source[location.Place]{
			placeSource("a", nil, nil, &calls, &mu),
			placeSource("b", nil, errors.New("down"), &calls, &mu),
		},
	}

	got := p.Run(context.Background(), location.Query{}, zap.NewNop())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPipeline_FallbackChain_WinnerIsDeduped(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	p := location.Pipeline[location.Place]{
		Mode: location.FallbackChain,
		Sources: []location.Source[location.Place]{
			placeSource("a", []location.Place{
				{Name: "Hotel", Coordinates: at(1, 1)},
				{Name: "Ritz", Coordinates: at(1, 1)},
				{Name: "Ritz", Coordinates: at(1, 1)},
			}, nil, &calls, &mu),
		},
		Placeholders: []string{location.PlaceholderHotel},
	}

	got := p.Run(context.Background(), location.Query{}, zap.NewNop())
	assert.Equal(t, []string{"Ritz"}, names(got))
}

func TestPipeline_Union_PartialFailure(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	p := location.Pipeline[location.Place]{
		Category: location.CategoryPlaces,
		Mode:     location.Union,
		Sources: []location.Source[location.Place]{
			placeSource("ok1", []location.Place{{Name: "Louvre", Coordinates: at(48.861, 2.336)}}, nil, &calls, &mu),
			placeSource("broken", nil, errors.New("timeout"), &calls, &mu),
			placeSource("ok2", []location.Place{
				{Name: "louvre", Coordinates: at(48.861, 2.336)},
				{Name: "Orsay", Coordinates: at(48.860, 2.326)},
			}, nil, &calls, &mu),
		},
	}

	got := p.Run(context.Background(), location.Query{}, zap.NewNop())

	assert.Equal(t, []string{"Louvre", "Orsay"}, names(got), "source order is kept and duplicates collapse")
	assert.ElementsMatch(t, []string{"ok1", "broken", "ok2"}, calls)
}

func TestPipeline_Union_PanicIsContained(t *testing.T) {
	p := location.Pipeline[location.Place]{
		Mode: location.Union,
		Sources: []location.Source[location.Place]{
			{Name: "panics", Fetch: func(context.Context, location.Query) ([]location.Place, error) { panic("bad payload") }},
			{Name: "ok", Fetch: func(context.Context, location.Query) ([]location.Place, error) {
				return []location.Place{{Name: "Museum", Coordinates: at(1, 1)}}, nil
			}},
		},
	}

	got := p.Run(context.Background(), location.Query{}, zap.NewNop())
	assert.Equal(t, []string{"Museum"}, names(got))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "union", location.Union.String())
	assert.Equal(t, "fallback", location.FallbackChain.String())
}

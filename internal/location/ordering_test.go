package location_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curiocity/cityguide/internal/location"
)

func rated(pairs ...any) []location.Place {
	var out []location.Place
	for i := 0; i < len(pairs); i += 2 {
		p := location.Place{Name: pairs[i].(string)}
		if r, ok := pairs[i+1].(float64); ok {
			p.Rating = ptr(r)
		}
		out = append(out, p)
	}
	return out
}

func TestSortByRating(t *testing.T) {
	in := rated("low", 1.0, "none", nil, "high", 5.0, "mid", 3.0, "mid2", 3.0)

	got := location.SortByRating(in)

	assert.Equal(t, []string{"high", "mid", "mid2", "low", "none"}, names(got))
	assert.Equal(t, "low", in[0].Name, "input is not modified")
}

func TestCenterTopRated_Seven(t *testing.T) {
	in := rated("r1", 1.0, "r7", 7.0, "r3", 3.0, "r5", 5.0, "r2", 2.0, "r6", 6.0, "r4", 4.0)

	got := location.CenterTopRated(in)

	// Sorted: r7 r6 r5 r4 r3 r2 r1; r7 moves to index 3.
	assert.Equal(t, []string{"r6", "r5", "r4", "r7", "r3", "r2", "r1"}, names(got))
	assert.Equal(t, "r7", got[len(got)/2].Name)
}

func TestCenterTopRated_Short(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, names(location.CenterTopRated(rated("a", 1.0, "b", 2.0))))
	assert.Empty(t, location.CenterTopRated[location.Place](nil))
	assert.NotNil(t, location.CenterTopRated[location.Place](nil))
}

func TestCenterTopRated_Three(t *testing.T) {
	got := location.CenterTopRated(rated("a", 3.0, "b", 2.0, "c", 1.0))
	assert.Equal(t, []string{"b", "a", "c"}, names(got))
}

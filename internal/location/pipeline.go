package location

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Category names a bundle section; it also keys the cache.
type Category string

const (
	CategoryPlaces        Category = "places"
	CategoryRestaurants   Category = "restaurants"
	CategoryAccommodation Category = "accommodation"
	CategoryHolyPlaces    Category = "holy_places"
	CategoryServices      Category = "services"
	CategoryNews          Category = "news"
	CategoryAirQuality    Category = "air_quality"
	CategoryWikipedia     Category = "wikipedia"
	CategoryHistory       Category = "history"
	CategoryDetails       Category = "details"
	CategorySearch        Category = "search"
)

// Mode selects how a pipeline combines its sources.
type Mode int

const (
	// Union runs every source concurrently and merges all results.
	Union Mode = iota
	// FallbackChain tries sources in order and keeps the first non-empty result.
	FallbackChain
)

func (m Mode) String() string {
	switch m {
	case Union:
		return "union"
	case FallbackChain:
		return "fallback"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Source is one provider adapter feeding a category.
type Source[T any] struct {
	Name  string
	Fetch func(ctx context.Context, q Query) ([]T, error)
}

// Pipeline declares how a category is assembled from its sources.
type Pipeline[T Keyed] struct {
	Category     Category
	Mode         Mode
	Sources      []Source[T]
	Placeholders []string
}

// Run executes the pipeline. Source failures are logged and count as empty
// results; the returned slice is never nil.
func (p Pipeline[T]) Run(ctx context.Context, q Query, log *zap.Logger) []T {
	var items []T
	switch p.Mode {
	case FallbackChain:
		items = p.runChain(ctx, q, log)
	default:
		items = p.runUnion(ctx, q, log)
	}
	return Dedupe(items, p.Placeholders...)
}

func (p Pipeline[T]) runUnion(ctx context.Context, q Query, log *zap.Logger) []T {
	results := make([][]T, len(p.Sources))

	var g errgroup.Group
	for i, src := range p.Sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = p.fetch(ctx, src, q, log)
			return nil
		})
	}
	_ = g.Wait()

	var merged []T
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}

func (p Pipeline[T]) runChain(ctx context.Context, q Query, log *zap.Logger) []T {
	for _, src := range p.Sources {
		items := p.fetch(ctx, src, q, log)
		if len(items) > 0 {
			return items
		}
		log.Debug("source returned nothing, trying next",
			zap.String("category", string(p.Category)),
			zap.String("provider", src.Name))
	}
	return nil
}

// fetch calls one source, converting errors and panics into an empty result.
func (p Pipeline[T]) fetch(ctx context.Context, src Source[T], q Query, log *zap.Logger) (items []T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("source panicked",
				zap.String("category", string(p.Category)),
				zap.String("provider", src.Name),
				zap.Any("recover", r))
			items = nil
		}
	}()

	items, err := src.Fetch(ctx, q)
	if err != nil {
		log.Warn("source failed",
			zap.String("category", string(p.Category)),
			zap.String("provider", src.Name),
			zap.Error(err))
		return nil
	}
	return items
}

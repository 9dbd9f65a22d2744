package location

import (
	"slices"
)

// Rated is implemented by carousel items.
type Rated interface {
	RatingValue() float64
}

func ratingOf(r *float64) float64 {
	if r == nil {
		return 0
	}
	return *r
}

func (p Place) RatingValue() float64         { return ratingOf(p.Rating) }
func (r Restaurant) RatingValue() float64    { return ratingOf(r.Rating) }
func (a Accommodation) RatingValue() float64 { return ratingOf(a.Rating) }

// SortByRating returns a copy of items ordered by rating, highest first.
// Unrated items count as zero; ties keep their input order.
func SortByRating[T Rated](items []T) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		ra, rb := a.RatingValue(), b.RatingValue()
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		default:
			return 0
		}
	})
	if out == nil {
		out = []T{}
	}
	return out
}

// CenterTopRated sorts by rating and, for three or more items, moves the best
// one to index len/2 so a horizontally scrolling carousel opens on it.
func CenterTopRated[T Rated](items []T) []T {
	sorted := SortByRating(items)
	if len(sorted) < 3 {
		return sorted
	}

	top := sorted[0]
	rest := sorted[1:]
	mid := len(sorted) / 2

	out := make([]T, 0, len(sorted))
	out = append(out, rest[:mid]...)
	out = append(out, top)
	out = append(out, rest[mid:]...)
	return out
}

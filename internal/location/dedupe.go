package location

import (
	"fmt"
	"slices"
	"strings"

	"github.com/curiocity/cityguide/internal/geo"
)

// Placeholder names adapters fall back to when a provider has no real label.
const (
	PlaceholderTouristAttraction = "Tourist Attraction"
	PlaceholderCulturalSite      = "Cultural Site"
	PlaceholderRestaurant        = "Restaurant"
	PlaceholderHotel             = "Hotel"
	PlaceholderAccommodation     = "Accommodation"
	PlaceholderService           = "Unnamed Service"
)

// Keyed is implemented by every item that can be deduplicated.
type Keyed interface {
	DedupeName() string
	DedupeCoordinate() geo.Coordinate
}

func (p Place) DedupeName() string                       { return p.Name }
func (p Place) DedupeCoordinate() geo.Coordinate         { return p.Coordinates }
func (r Restaurant) DedupeName() string                  { return r.Name }
func (r Restaurant) DedupeCoordinate() geo.Coordinate    { return r.Coordinates }
func (a Accommodation) DedupeName() string               { return a.Name }
func (a Accommodation) DedupeCoordinate() geo.Coordinate { return a.Coordinates }
func (h HolyPlace) DedupeName() string                   { return h.Name }
func (h HolyPlace) DedupeCoordinate() geo.Coordinate     { return h.Coordinates }
func (s LocalService) DedupeName() string                { return s.Name }
func (s LocalService) DedupeCoordinate() geo.Coordinate  { return s.Coordinates }

// DedupeKey is the (lower-cased name, ~111m grid cell) identity of an item.
func DedupeKey(item Keyed) string {
	lat, lon := item.DedupeCoordinate().GridCell()
	return fmt.Sprintf("%s_%d_%d", strings.ToLower(item.DedupeName()), lat, lon)
}

// Dedupe keeps the first item per DedupeKey, preserving order, and drops
// items whose name is blank or one of placeholders.
func Dedupe[T Keyed](items []T, placeholders ...string) []T {
	out := make([]T, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		name := item.DedupeName()
		if strings.TrimSpace(name) == "" || slices.Contains(placeholders, name) {
			continue
		}
		k := DedupeKey(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

package api

import (
	"context"

	"github.com/curiocity/cityguide/internal/geo"
	"github.com/curiocity/cityguide/internal/location"
)

// LocationService defines the location operations needed by handlers.
// *location.Service satisfies it.
type LocationService interface {
	CurrentLocation(fix *geo.Coordinate) (geo.Coordinate, error)
	SearchLocations(ctx context.Context, query string) []location.Candidate
	LocationDetailsOrDefault(ctx context.Context, coord geo.Coordinate) *location.Bundle
	DefaultLocationWithWikipedia(ctx context.Context) *location.Bundle
	PlacesToVisit(ctx context.Context, coord geo.Coordinate, radius int) []location.Place
	LocalRestaurants(ctx context.Context, name string, coord geo.Coordinate) []location.Restaurant
	Accommodation(ctx context.Context, coord geo.Coordinate) []location.Accommodation
	HolyPlaces(ctx context.Context, coord geo.Coordinate) []location.HolyPlace
	LocalServices(ctx context.Context, coord geo.Coordinate) []location.LocalService
	LocalNews(ctx context.Context, name, country string) []location.NewsArticle
	AirQuality(ctx context.Context, coord geo.Coordinate) *location.AirQuality
	ClearCache(ctx context.Context) error
}

// Pinger is a backend the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

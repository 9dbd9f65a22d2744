package location

import (
	"fmt"

	"github.com/curiocity/cityguide/internal/geo"
)

// DefaultName and DefaultCoordinate identify the fallback location.
const DefaultName = "New York"

var DefaultCoordinate = geo.Coordinate{Latitude: 40.7128, Longitude: -74.0060}

// DefaultBundle is the hand-authored bundle served when nothing else can be.
func DefaultBundle() *Bundle {
	return &Bundle{
		Name:             DefaultName,
		Description:      "Welcome to New York, the city that never sleeps! Known as the Big Apple, New York City is a global hub for business, arts, fashion, and culture.",
		FullDescription:  "New York City, often simply called New York, is the most populous city in the United States. Located at the southern tip of the state of New York, it is composed of five boroughs: Manhattan, Brooklyn, Queens, The Bronx, and Staten Island. NYC is a global center for finance, technology, arts, fashion, and culture, home to iconic landmarks like the Statue of Liberty, Empire State Building, and Central Park.",
		History:          FallbackHistory(DefaultName),
		Coordinates:      DefaultCoordinate,
		FormattedAddress: "New York, NY, USA",
		Region:           "New York",
		Country:          "United States",
		News:             []NewsArticle{},
		PlacesToVisit:    []Place{},
		Restaurants:      []Restaurant{},
		HolyPlaces:       []HolyPlace{},
		Accommodation:    []Accommodation{},
		Services:         []LocalService{},
	}
}

func fallbackDescription(a *Address) string {
	return fmt.Sprintf("Welcome to %s, %s! This beautiful location offers a rich blend of culture, history, and modern attractions.",
		a.City, a.Country)
}

func fallbackFullDescription(a *Address) string {
	return fmt.Sprintf("%s is a vibrant destination located in %s, %s. Known for its unique character and local attractions, this location offers visitors an authentic experience of the region's culture and heritage.",
		a.City, a.Region, a.Country)
}

package location

import (
	"time"

	"github.com/curiocity/cityguide/internal/geo"
)

// Provider names stamped on every item for traceability.
const (
	SourceOpenTripMap = "OpenTripMap"
	SourceFoursquare  = "Foursquare"
	SourceOverpass    = "Overpass"
	SourceGeoapify    = "Geoapify"
	SourceNominatim   = "Nominatim"
	SourceWikipedia   = "Wikipedia"
	SourceWAQI        = "WAQI"
	SourceNewsData    = "NewsData"
	SourceGemini      = "Gemini"
)

// Place is a point of interest ("places to visit").
type Place struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Distance    *float64       `json:"distance,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Icon        string         `json:"icon"`
	Source      string         `json:"source"`
}

// Restaurant is an eatery from any restaurant provider.
type Restaurant struct {
	Name        string         `json:"name"`
	Categories  []string       `json:"categories"`
	Type        string         `json:"type,omitempty"`
	Address     string         `json:"address,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Distance    *float64       `json:"distance,omitempty"`
	Source      string         `json:"source"`
}

// Accommodation is a hotel-like lodging.
type Accommodation struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Address     string         `json:"address,omitempty"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Distance    *float64       `json:"distance,omitempty"`
	Rating      *float64       `json:"rating,omitempty"`
	Amenities   []string       `json:"amenities"`
	PriceRange  string         `json:"priceRange"`
	Website     string         `json:"website,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Source      string         `json:"source"`
}

// HolyPlace is a place of worship.
type HolyPlace struct {
	Name        string         `json:"name"`
	Religion    string         `json:"religion"`
	Type        string         `json:"type"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Address     string         `json:"address,omitempty"`
	Icon        string         `json:"icon"`
	Source      string         `json:"source"`
}

// LocalService is a bank, pharmacy, shop or other everyday amenity.
type LocalService struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Distance    *float64       `json:"distance,omitempty"`
	Source      string         `json:"source"`
}

// NewsArticle is a single local news result. PublishedAt is nil when the
// provider's date could not be read.
type NewsArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Source      string     `json:"source"`
	ImageURL    string     `json:"imageUrl,omitempty"`
}

// AirQuality is a WAQI reading with its severity bucket.
type AirQuality struct {
	AQI               int       `json:"aqi"`
	Level             string    `json:"level"`
	Color             string    `json:"color"`
	Description       string    `json:"description"`
	Station           string    `json:"station"`
	DominantPollutant string    `json:"dominantPollutant"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// Candidate is a forward-search hit.
type Candidate struct {
	Coordinates      geo.Coordinate `json:"coordinates"`
	Name             string         `json:"name"`
	FormattedAddress string         `json:"formattedAddress"`
}

// Address is the identity of a location produced by reverse geocoding.
type Address struct {
	City             string `json:"city"`
	Region           string `json:"region"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formattedAddress"`
}

// WikipediaSummary is the usable part of a Wikipedia page summary.
type WikipediaSummary struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	FullDescription string          `json:"fullDescription"`
	Thumbnail       string          `json:"thumbnail,omitempty"`
	PageURL         string          `json:"pageUrl,omitempty"`
	Coordinates     *geo.Coordinate `json:"coordinates,omitempty"`
}

// Bundle is the composite per-location result handed to the caller.
type Bundle struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	FullDescription  string          `json:"fullDescription"`
	History          string          `json:"history"`
	Coordinates      geo.Coordinate  `json:"coordinates"`
	FormattedAddress string          `json:"formattedAddress"`
	Region           string          `json:"region"`
	Country          string          `json:"country"`
	Thumbnail        string          `json:"thumbnail,omitempty"`
	WikipediaURL     string          `json:"wikipediaUrl,omitempty"`
	WikipediaTitle   string          `json:"wikipediaTitle,omitempty"`
	HasWikipediaData bool            `json:"hasWikipediaData"`
	News             []NewsArticle   `json:"news"`
	PlacesToVisit    []Place         `json:"placesToVisit"`
	Restaurants      []Restaurant    `json:"restaurants"`
	HolyPlaces       []HolyPlace     `json:"holyPlaces"`
	Accommodation    []Accommodation `json:"accommodation"`
	Services         []LocalService  `json:"services"`
	AirQuality       *AirQuality     `json:"airQuality,omitempty"`
	HasRealData      bool            `json:"hasRealData"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

// ComprehensiveData is the raw per-category fan-out result before it is
// folded into a Bundle.
type ComprehensiveData struct {
	News             []NewsArticle
	PlacesToVisit    []Place
	Restaurants      []Restaurant
	HolyPlaces       []HolyPlace
	Accommodation    []Accommodation
	Services         []LocalService
	Wikipedia        *WikipediaSummary
	AirQuality       *AirQuality
	GeneratedHistory string
}

// Query carries the inputs every category fetch may need.
type Query struct {
	Name       string
	Coordinate geo.Coordinate
	// Radius in meters; zero means the adapter default.
	Radius int
}

func floatPtr(v float64) *float64 { return &v }

func point(lat, lon float64) geo.Coordinate {
	return geo.Coordinate{Latitude: lat, Longitude: lon}
}

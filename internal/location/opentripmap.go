package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const otmDefaultURL = "https://api.opentripmap.com/0.1/en/places/radius"

const (
	otmDefaultRadius = 10000
	otmMinRadius     = 1000
	otmMaxRadius     = 50000
)

// OpenTripMap query variants.
const (
	OTMTourist       = "tourist"
	OTMCultural      = "cultural"
	OTMFoods         = "foods"
	OTMServices      = "services"
	OTMAccommodation = "accommodation"
)

// otmAllowedKinds is the per-variant allow-list of OpenTripMap kinds.
// The radius endpoint answers 400 for hospitals, pharmacy, police,
// post_offices and education, so the services variant is limited to the
// three kinds the API accepts.
var otmAllowedKinds = map[string][]string{
	OTMTourist:       {"interesting_places", "tourist_facilities", "historic", "museums", "monuments_and_memorials"},
	OTMCultural:      {"cultural", "architecture", "archaeological_sites", "palaces", "castles"},
	OTMFoods:         {"foods"},
	OTMServices:      {"banks", "shops", "sport"},
	OTMAccommodation: {"accomodations"},
}

var otmLimits = map[string]int{
	OTMTourist:       15,
	OTMCultural:      15,
	OTMFoods:         20,
	OTMServices:      50,
	OTMAccommodation: 25,
}

// OpenTripMapKinds validates requested kinds against the variant's allow-list
// and returns them comma-joined. A nil request selects the whole list.
func OpenTripMapKinds(variant string, requested []string) (string, error) {
	allowed, ok := otmAllowedKinds[variant]
	if !ok {
		return "", fmt.Errorf("unknown opentripmap variant %q", variant)
	}
	if requested == nil {
		return strings.Join(allowed, ","), nil
	}
	for _, k := range requested {
		if !slices.Contains(allowed, k) {
			return "", fmt.Errorf("opentripmap kind %q is not valid for %s", k, variant)
		}
	}
	return strings.Join(requested, ","), nil
}

// clampRadius keeps radius inside what OpenTripMap serves well.
func clampRadius(radius int) int {
	if radius == 0 {
		radius = otmDefaultRadius
	}
	return min(max(radius, otmMinRadius), otmMaxRadius)
}

// OpenTripMapClient queries the OpenTripMap radius endpoint.
type OpenTripMapClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewOpenTripMapClient constructs an OpenTripMapClient with the given API key.
func NewOpenTripMapClient(apiKey string, log *zap.Logger) *OpenTripMapClient {
	return NewOpenTripMapClientWithURL(otmDefaultURL, apiKey, log)
}

// NewOpenTripMapClientWithURL constructs an OpenTripMapClient pointing at a custom URL (for tests).
func NewOpenTripMapClientWithURL(baseURL, apiKey string, log *zap.Logger) *OpenTripMapClient {
	return &OpenTripMapClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient(), log: log}
}

type otmPlace struct {
	XID   string  `json:"xid"`
	Name  string  `json:"name"`
	Kinds string  `json:"kinds"`
	Dist  float64 `json:"dist"`
	Rate  float64 `json:"rate"`
	Point struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"point"`
}

// radius fetches the raw places of one variant around q.
func (c *OpenTripMapClient) radius(ctx context.Context, variant string, q Query) ([]otmPlace, error) {
	if err := q.Coordinate.Validate(); err != nil {
		c.log.Debug("skipping opentripmap request", zap.String("variant", variant), zap.Error(err))
		return nil, nil
	}

	kinds, err := OpenTripMapKinds(variant, nil)
	if err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("radius", strconv.Itoa(clampRadius(q.Radius)))
	v.Set("lon", strconv.FormatFloat(q.Coordinate.Longitude, 'f', -1, 64))
	v.Set("lat", strconv.FormatFloat(q.Coordinate.Latitude, 'f', -1, 64))
	v.Set("apikey", c.apiKey)
	v.Set("format", "json")
	v.Set("kinds", kinds)
	v.Set("limit", strconv.Itoa(otmLimits[variant]))

	var raw []otmPlace
	if err := doGet(ctx, c.client, c.baseURL+"?"+v.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("opentripmap %s: %w", variant, err)
	}
	return raw, nil
}

func (p otmPlace) rating() *float64 {
	if p.Rate == 0 {
		return nil
	}
	return floatPtr(p.Rate)
}

func (c *OpenTripMapClient) places(ctx context.Context, variant, placeholder string, q Query) ([]Place, error) {
	raw, err := c.radius(ctx, variant, q)
	if err != nil {
		return nil, err
	}
	out := make([]Place, 0, len(raw))
	for _, p := range raw {
		out = append(out, Place{
			Name:        nameOr(p.Name, placeholder),
			Type:        p.Kinds,
			Coordinates: point(p.Point.Lat, p.Point.Lon),
			Distance:    floatPtr(p.Dist),
			Rating:      floatPtr(p.Rate),
			Icon:        PlaceIcon(p.Kinds),
			Source:      SourceOpenTripMap,
		})
	}
	return out, nil
}

// TouristAttractions returns interesting places, historic sites and museums.
func (c *OpenTripMapClient) TouristAttractions(ctx context.Context, q Query) ([]Place, error) {
	return c.places(ctx, OTMTourist, PlaceholderTouristAttraction, q)
}

// CulturalSites returns architecture, archaeological sites, palaces and castles.
func (c *OpenTripMapClient) CulturalSites(ctx context.Context, q Query) ([]Place, error) {
	return c.places(ctx, OTMCultural, PlaceholderCulturalSite, q)
}

// Restaurants returns places of kind "foods".
func (c *OpenTripMapClient) Restaurants(ctx context.Context, q Query) ([]Restaurant, error) {
	raw, err := c.radius(ctx, OTMFoods, q)
	if err != nil {
		return nil, err
	}
	out := make([]Restaurant, 0, len(raw))
	for _, p := range raw {
		out = append(out, Restaurant{
			Name:        nameOr(p.Name, PlaceholderRestaurant),
			Type:        p.Kinds,
			Categories:  []string{"Restaurant"},
			Coordinates: point(p.Point.Lat, p.Point.Lon),
			Distance:    floatPtr(p.Dist),
			Rating:      floatPtr(p.Rate),
			Source:      SourceOpenTripMap,
		})
	}
	return out, nil
}

// Services returns banks, shops and sport venues.
func (c *OpenTripMapClient) Services(ctx context.Context, q Query) ([]LocalService, error) {
	raw, err := c.radius(ctx, OTMServices, q)
	if err != nil {
		return nil, err
	}
	out := make([]LocalService, 0, len(raw))
	for _, p := range raw {
		out = append(out, LocalService{
			Name:        nameOr(p.Name, PlaceholderService),
			Type:        p.Kinds,
			Label:       ServiceLabel(p.Kinds),
			Icon:        ServiceIcon(p.Kinds),
			Color:       ServiceColor(p.Kinds),
			Coordinates: point(p.Point.Lat, p.Point.Lon),
			Distance:    floatPtr(p.Dist),
			Source:      SourceOpenTripMap,
		})
	}
	return out, nil
}

// Accommodation returns lodgings of kind "accomodations" (sic, the API's spelling).
func (c *OpenTripMapClient) Accommodation(ctx context.Context, q Query) ([]Accommodation, error) {
	raw, err := c.radius(ctx, OTMAccommodation, q)
	if err != nil {
		return nil, err
	}
	out := make([]Accommodation, 0, len(raw))
	for _, p := range raw {
		rating := p.rating()
		out = append(out, Accommodation{
			Name:        nameOr(p.Name, PlaceholderHotel),
			Type:        CategorizeAccommodationType(p.Kinds),
			Coordinates: point(p.Point.Lat, p.Point.Lon),
			Distance:    floatPtr(p.Dist),
			Rating:      rating,
			Amenities:   ExtractAmenities(p.Kinds),
			PriceRange:  EstimatePriceRange(p.Kinds, rating),
			Source:      SourceOpenTripMap,
		})
	}
	return out, nil
}

func nameOr(name, placeholder string) string {
	if strings.TrimSpace(name) == "" {
		return placeholder
	}
	return name
}

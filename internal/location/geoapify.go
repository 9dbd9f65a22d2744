package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	geoapifyDefaultURL    = "https://api.geoapify.com/v2/places"
	geoapifyDefaultRadius = 5000
)

// GeoapifyClient searches accommodation with the Geoapify Places API.
type GeoapifyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewGeoapifyClient constructs a GeoapifyClient with the given API key.
func NewGeoapifyClient(apiKey string, log *zap.Logger) *GeoapifyClient {
	return NewGeoapifyClientWithURL(geoapifyDefaultURL, apiKey, log)
}

// NewGeoapifyClientWithURL constructs a GeoapifyClient pointing at a custom URL (for tests).
func NewGeoapifyClientWithURL(baseURL, apiKey string, log *zap.Logger) *GeoapifyClient {
	return &GeoapifyClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient(), log: log}
}

type geoapifyProperties struct {
	Name            string   `json:"name"`
	Formatted       string   `json:"formatted"`
	Street          string   `json:"street"`
	Categories      []string `json:"categories"`
	Distance        *float64 `json:"distance"`
	Rating          *float64 `json:"rating"`
	Website         string   `json:"website"`
	Phone           string   `json:"phone"`
	Wifi            any      `json:"wifi"`
	InternetAccess  any      `json:"internet_access"`
	Parking         any      `json:"parking"`
	Wheelchair      any      `json:"wheelchair"`
	AirConditioning any      `json:"air_conditioning"`
}

type geoapifyResponse struct {
	Features []struct {
		Properties geoapifyProperties `json:"properties"`
		Geometry   struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Accommodation returns lodgings within q.Radius (default 5km) of q.Coordinate.
// Without an API key it returns nothing so the caller falls through to the
// next provider.
func (c *GeoapifyClient) Accommodation(ctx context.Context, q Query) ([]Accommodation, error) {
	if c.apiKey == "" {
		c.log.Debug("geoapify api key not configured")
		return nil, nil
	}
	if err := q.Coordinate.Validate(); err != nil {
		c.log.Debug("skipping geoapify request", zap.Error(err))
		return nil, nil
	}

	radius := q.Radius
	if radius == 0 {
		radius = geoapifyDefaultRadius
	}

	v := url.Values{}
	v.Set("categories", "accommodation")
	v.Set("filter", fmt.Sprintf("circle:%s,%s,%d",
		strconv.FormatFloat(q.Coordinate.Longitude, 'f', -1, 64),
		strconv.FormatFloat(q.Coordinate.Latitude, 'f', -1, 64),
		radius))
	v.Set("limit", "20")
	v.Set("apiKey", c.apiKey)

	var raw geoapifyResponse
	if err := doGet(ctx, c.client, c.baseURL+"?"+v.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("geoapify accommodation: %w", err)
	}

	out := make([]Accommodation, 0, len(raw.Features))
	for _, f := range raw.Features {
		p := f.Properties
		if p.Name == "" || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		categories := strings.Join(p.Categories, ",")
		out = append(out, Accommodation{
			Name:        p.Name,
			Type:        CategorizeAccommodationType(strings.Join(p.Categories, " ")),
			Address:     firstNonEmpty(p.Formatted, p.Street),
			Coordinates: point(f.Geometry.Coordinates[1], f.Geometry.Coordinates[0]),
			Distance:    p.Distance,
			Rating:      p.Rating,
			Amenities:   ExtractGeoapifyAmenities(p),
			PriceRange:  EstimatePriceRange(categories, p.Rating),
			Website:     p.Website,
			Phone:       p.Phone,
			Source:      SourceGeoapify,
		})
	}
	return out, nil
}

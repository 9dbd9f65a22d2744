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
	foursquareDefaultURL = "https://api.foursquare.com/v3/places/search"

	// foursquareDiningCategory is the "Dining and Drinking" root category.
	foursquareDiningCategory = "13065"
)

// FoursquareClient searches restaurants with the Foursquare Places API.
type FoursquareClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewFoursquareClient constructs a FoursquareClient with the given API key.
func NewFoursquareClient(apiKey string, log *zap.Logger) *FoursquareClient {
	return NewFoursquareClientWithURL(foursquareDefaultURL, apiKey, log)
}

// NewFoursquareClientWithURL constructs a FoursquareClient pointing at a custom URL (for tests).
func NewFoursquareClientWithURL(baseURL, apiKey string, log *zap.Logger) *FoursquareClient {
	return &FoursquareClient{apiKey: apiKey, baseURL: baseURL, client: newHTTPClient(), log: log}
}

type foursquareResponse struct {
	Results []struct {
		Name       string   `json:"name"`
		Distance   *float64 `json:"distance"`
		Rating     *float64 `json:"rating"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
		Location struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"location"`
		Geocodes struct {
			Main struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"main"`
		} `json:"geocodes"`
	} `json:"results"`
}

// Restaurants searches dining venues near q.Name, or around q.Coordinate when
// no name is given. Without an API key it returns nothing.
func (c *FoursquareClient) Restaurants(ctx context.Context, q Query) ([]Restaurant, error) {
	if c.apiKey == "" {
		c.log.Debug("foursquare api key not configured")
		return nil, nil
	}

	v := url.Values{}
	switch {
	case strings.TrimSpace(q.Name) != "":
		v.Set("near", q.Name)
	case q.Coordinate.Valid():
		v.Set("ll", strconv.FormatFloat(q.Coordinate.Latitude, 'f', -1, 64)+","+
			strconv.FormatFloat(q.Coordinate.Longitude, 'f', -1, 64))
	default:
		c.log.Debug("skipping foursquare request: no name and no valid coordinate")
		return nil, nil
	}
	v.Set("categories", foursquareDiningCategory)
	v.Set("limit", "20")

	header := http.Header{}
	header.Set("Authorization", c.apiKey)

	var raw foursquareResponse
	if err := doGet(ctx, c.client, c.baseURL+"?"+v.Encode(), header, &raw); err != nil {
		return nil, fmt.Errorf("foursquare search near %q: %w", q.Name, err)
	}

	out := make([]Restaurant, 0, len(raw.Results))
	for _, r := range raw.Results {
		categories := make([]string, 0, len(r.Categories))
		for _, cat := range r.Categories {
			categories = append(categories, cat.Name)
		}
		out = append(out, Restaurant{
			Name:        r.Name,
			Categories:  categories,
			Address:     r.Location.FormattedAddress,
			Rating:      r.Rating,
			Coordinates: point(r.Geocodes.Main.Latitude, r.Geocodes.Main.Longitude),
			Distance:    r.Distance,
			Source:      SourceFoursquare,
		})
	}
	return out, nil
}

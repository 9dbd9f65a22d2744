package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	nominatimDefaultURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "CurioCity/1.0"
)

// NominatimClient geocodes with OpenStreetMap Nominatim. Requests are
// throttled to one per second as the public instance's usage policy requires.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	retry     retrier
	log       *zap.Logger
}

// NewNominatimClient constructs a NominatimClient for the public instance.
func NewNominatimClient(userAgent string, log *zap.Logger) *NominatimClient {
	return NewNominatimClientWithURL(nominatimDefaultURL, userAgent, log)
}

// NewNominatimClientWithURL constructs a NominatimClient pointing at a custom URL (for tests).
func NewNominatimClientWithURL(baseURL, userAgent string, log *zap.Logger) *NominatimClient {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &NominatimClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    newHTTPClient(),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		retry:     defaultRetrier(),
		log:       log,
	}
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Country      string `json:"country"`
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

func (c *NominatimClient) get(ctx context.Context, path string, v url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("nominatim rate limit: %w", err)
	}
	header := http.Header{}
	header.Set("User-Agent", c.userAgent)
	return c.retry.get(ctx, c.client, c.baseURL+path+"?"+v.Encode(), header, dst)
}

// Search resolves free text into at most five ranked candidates.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Candidate{}, nil
	}

	v := url.Values{}
	v.Set("q", query)
	v.Set("format", "json")
	v.Set("limit", "5")
	v.Set("addressdetails", "1")

	var raw []nominatimPlace
	if err := c.get(ctx, "/search", v, &raw); err != nil {
		return nil, fmt.Errorf("nominatim search %q: %w", query, err)
	}

	out := make([]Candidate, 0, len(raw))
	for _, p := range raw {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			c.log.Debug("dropping nominatim result with bad coordinates", zap.String("name", p.DisplayName))
			continue
		}
		out = append(out, Candidate{
			Coordinates:      point(lat, lon),
			Name:             p.DisplayName,
			FormattedAddress: p.DisplayName,
		})
	}
	return out, nil
}

// Reverse resolves a coordinate into city, region and country. It returns
// nil when Nominatim knows nothing about the point.
func (c *NominatimClient) Reverse(ctx context.Context, q Query) (*Address, error) {
	if err := q.Coordinate.Validate(); err != nil {
		return nil, err
	}

	v := url.Values{}
	v.Set("lat", strconv.FormatFloat(q.Coordinate.Latitude, 'f', -1, 64))
	v.Set("lon", strconv.FormatFloat(q.Coordinate.Longitude, 'f', -1, 64))
	v.Set("format", "json")
	v.Set("addressdetails", "1")

	var raw nominatimPlace
	if err := c.get(ctx, "/reverse", v, &raw); err != nil {
		return nil, fmt.Errorf("nominatim reverse: %w", err)
	}
	if raw.Error != "" {
		c.log.Debug("nominatim reverse found nothing", zap.String("error", raw.Error))
		return nil, nil
	}

	a := raw.Address
	city := firstNonEmpty(a.City, a.Town, a.Village, a.Municipality, a.County)
	region := firstNonEmpty(a.State, a.Country)
	return &Address{
		City:             firstNonEmpty(city, "Unknown City"),
		Region:           firstNonEmpty(region, "Unknown Region"),
		Country:          firstNonEmpty(a.Country, "Unknown Country"),
		FormattedAddress: formatAddress(raw.Name, city, a.State, a.Country, raw.DisplayName),
	}, nil
}

// formatAddress joins the known parts; the display name is the last resort.
func formatAddress(name, city, region, country, display string) string {
	var parts []string
	for _, p := range []string{name, city, region, country} {
		if p != "" && (len(parts) == 0 || parts[len(parts)-1] != p) {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return firstNonEmpty(display, "Unknown Location")
}

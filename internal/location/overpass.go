package location

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/geo"
)

const (
	overpassDefaultURL = "https://overpass-api.de/api/interpreter"

	// overpassDelta is the half-width of the query box in degrees (~9km).
	overpassDelta = 0.08
)

// OverpassClient runs Overpass QL queries against OpenStreetMap data.
type OverpassClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewOverpassClient constructs an OverpassClient for the public interpreter.
func NewOverpassClient(log *zap.Logger) *OverpassClient {
	return NewOverpassClientWithURL(overpassDefaultURL, log)
}

// NewOverpassClientWithURL constructs an OverpassClient pointing at a custom URL (for tests).
func NewOverpassClientWithURL(baseURL string, log *zap.Logger) *OverpassClient {
	return &OverpassClient{baseURL: baseURL, client: newHTTPClient(), log: log}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string  `json:"type"`
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

// position returns the node position, or the center of a way.
func (e overpassElement) position() (geo.Coordinate, bool) {
	if e.Lat != 0 || e.Lon != 0 {
		return point(e.Lat, e.Lon), true
	}
	if e.Center != nil {
		return point(e.Center.Lat, e.Center.Lon), true
	}
	return geo.Coordinate{}, false
}

// overpassSelector is one `element["key"="value"]` clause.
type overpassSelector struct {
	element, key, value string
}

var (
	restaurantSelectors = []overpassSelector{
		{"node", "amenity", "restaurant"},
		{"node", "amenity", "cafe"},
		{"node", "amenity", "fast_food"},
	}
	holyPlaceSelectors = []overpassSelector{
		{"node", "amenity", "place_of_worship"},
	}
	serviceSelectors = []overpassSelector{
		{"node", "amenity", "bank"},
		{"node", "amenity", "pharmacy"},
		{"node", "amenity", "hospital"},
		{"node", "amenity", "clinic"},
		{"node", "amenity", "post_office"},
		{"node", "amenity", "police"},
		{"node", "amenity", "library"},
		{"node", "amenity", "fuel"},
		{"node", "shop", "supermarket"},
		{"node", "shop", "convenience"},
		{"node", "leisure", "fitness_centre"},
	}
	accommodationSelectors = []overpassSelector{
		{"node", "tourism", "hotel"},
		{"node", "tourism", "guest_house"},
		{"node", "tourism", "hostel"},
		{"node", "tourism", "motel"},
		{"way", "tourism", "hotel"},
	}
)

// buildOverpassQuery renders a union query over bbox returning at most limit
// elements. withCenter adds way centers to the output.
func buildOverpassQuery(selectors []overpassSelector, bbox geo.BBox, limit int, withCenter bool) string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, s := range selectors {
		fmt.Fprintf(&b, `%s["%s"="%s"](%s);`, s.element, s.key, s.value, bbox)
	}
	b.WriteString(");out body ")
	if withCenter {
		b.WriteString("center ")
	}
	b.WriteString(strconv.Itoa(limit))
	b.WriteString(";")
	return b.String()
}

func (c *OverpassClient) query(ctx context.Context, label string, q Query, selectors []overpassSelector, limit int, withCenter bool) ([]overpassElement, error) {
	if err := q.Coordinate.Validate(); err != nil {
		c.log.Debug("skipping overpass request", zap.String("query", label), zap.Error(err))
		return nil, nil
	}

	ql := buildOverpassQuery(selectors, geo.BoundingBox(q.Coordinate, overpassDelta), limit, withCenter)

	var raw overpassResponse
	if err := doGet(ctx, c.client, c.baseURL+"?data="+url.QueryEscape(ql), nil, &raw); err != nil {
		return nil, fmt.Errorf("overpass %s: %w", label, err)
	}
	c.log.Debug("overpass elements", zap.String("query", label), zap.Int("count", len(raw.Elements)))
	return raw.Elements, nil
}

// Restaurants returns named restaurants, cafes and fast-food outlets.
func (c *OverpassClient) Restaurants(ctx context.Context, q Query) ([]Restaurant, error) {
	elems, err := c.query(ctx, "restaurants", q, restaurantSelectors, 30, false)
	if err != nil {
		return nil, err
	}
	out := make([]Restaurant, 0, len(elems))
	for _, e := range elems {
		name := e.Tags["name"]
		pos, ok := e.position()
		if name == "" || !ok {
			continue
		}
		category := firstNonEmpty(e.Tags["cuisine"], e.Tags["amenity"], "Restaurant")
		out = append(out, Restaurant{
			Name:        name,
			Categories:  []string{category},
			Address:     e.Tags["addr:street"],
			Coordinates: pos,
			Distance:    metersBetween(q.Coordinate, pos),
			Source:      SourceOverpass,
		})
	}
	return out, nil
}

// HolyPlaces returns named places of worship tagged with their religion.
func (c *OverpassClient) HolyPlaces(ctx context.Context, q Query) ([]HolyPlace, error) {
	elems, err := c.query(ctx, "holy places", q, holyPlaceSelectors, 25, false)
	if err != nil {
		return nil, err
	}
	out := make([]HolyPlace, 0, len(elems))
	for _, e := range elems {
		name := e.Tags["name"]
		pos, ok := e.position()
		if name == "" || !ok {
			continue
		}
		religion := firstNonEmpty(e.Tags["religion"], "Unknown")
		out = append(out, HolyPlace{
			Name:        name,
			Religion:    religion,
			Type:        firstNonEmpty(e.Tags["building"], e.Tags["denomination"], "place_of_worship"),
			Coordinates: pos,
			Address:     firstNonEmpty(e.Tags["addr:full"], e.Tags["addr:street"]),
			Icon:        ReligionIcon(religion),
			Source:      SourceOverpass,
		})
	}
	return out, nil
}

// Services returns named everyday amenities (banks, pharmacies, clinics, ...).
func (c *OverpassClient) Services(ctx context.Context, q Query) ([]LocalService, error) {
	elems, err := c.query(ctx, "services", q, serviceSelectors, 50, false)
	if err != nil {
		return nil, err
	}
	out := make([]LocalService, 0, len(elems))
	for _, e := range elems {
		name := e.Tags["name"]
		pos, ok := e.position()
		if name == "" || !ok {
			continue
		}
		tag := firstNonEmpty(e.Tags["amenity"], e.Tags["shop"], e.Tags["leisure"], "service")
		out = append(out, LocalService{
			Name:        name,
			Type:        tag,
			Label:       ServiceDisplayName(tag),
			Icon:        ServiceIcon(tag),
			Color:       ServiceColor(tag),
			Coordinates: pos,
			Distance:    metersBetween(q.Coordinate, pos),
			Source:      SourceOverpass,
		})
	}
	return out, nil
}

// Accommodation returns named hotels, guest houses, hostels and motels.
func (c *OverpassClient) Accommodation(ctx context.Context, q Query) ([]Accommodation, error) {
	elems, err := c.query(ctx, "accommodation", q, accommodationSelectors, 25, true)
	if err != nil {
		return nil, err
	}
	out := make([]Accommodation, 0, len(elems))
	for _, e := range elems {
		name := e.Tags["name"]
		pos, ok := e.position()
		if name == "" || !ok {
			continue
		}
		var rating *float64
		if stars, err := strconv.ParseFloat(e.Tags["stars"], 64); err == nil {
			rating = floatPtr(stars)
		}
		tourism := e.Tags["tourism"]
		out = append(out, Accommodation{
			Name:        name,
			Type:        CategorizeAccommodationType(tourism),
			Address:     firstNonEmpty(e.Tags["addr:full"], e.Tags["addr:street"]),
			Coordinates: pos,
			Distance:    metersBetween(q.Coordinate, pos),
			Rating:      rating,
			Amenities:   ExtractOSMAmenities(e.Tags),
			PriceRange:  EstimatePriceRange(tourism, rating),
			Website:     e.Tags["website"],
			Phone:       e.Tags["phone"],
			Source:      SourceOverpass,
		})
	}
	return out, nil
}

// metersBetween is the distance from a to b rounded to whole meters.
func metersBetween(a, b geo.Coordinate) *float64 {
	return floatPtr(math.Round(a.DistanceTo(b)))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/curiocity/cityguide/internal/cache"
	"github.com/curiocity/cityguide/internal/geo"
)

var (
	// ErrLocationUnresolved means reverse geocoding produced no location identity.
	ErrLocationUnresolved = errors.New("location could not be resolved")
	// ErrLocationPermission means the device did not report a usable position.
	ErrLocationPermission = errors.New("location permission denied or position unavailable")
)

// Geocoder resolves free text and coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
	Reverse(ctx context.Context, q Query) (*Address, error)
}

// WikipediaFetcher is satisfied by WikipediaClient.
type WikipediaFetcher interface {
	Summary(ctx context.Context, title string) (*WikipediaSummary, error)
}

// NewsFetcher is satisfied by NewsClient.
type NewsFetcher interface {
	Local(ctx context.Context, locationName, country string) ([]NewsArticle, error)
}

// AirQualityFetcher is satisfied by WAQIClient.
type AirQualityFetcher interface {
	AirQuality(ctx context.Context, q Query) (*AirQuality, error)
}

// HistoryFetcher is satisfied by HistoryWriter.
type HistoryFetcher interface {
	History(ctx context.Context, locationName string) string
}

// Cache is the read-through store for aggregated results.
type Cache interface {
	Get(ctx context.Context, key string, dst any) bool
	Set(ctx context.Context, key string, value any)
	ClearAll(ctx context.Context) error
}

// Deps are the provider adapters behind a Service.
type Deps struct {
	Geocoder   Geocoder
	Wikipedia  WikipediaFetcher
	News       NewsFetcher
	AirQuality AirQualityFetcher
	History    HistoryFetcher
	Pipelines  Pipelines
}

// Service answers every location query of the UI.
type Service struct {
	deps   Deps
	cache  Cache
	log    *zap.Logger
	now    func() time.Time
	flight singleflight.Group
}

// NewService constructs a Service. c may be nil to disable caching.
func NewService(deps Deps, c Cache, log *zap.Logger) *Service {
	if c == nil {
		c = noCache{}
	}
	return &Service{deps: deps, cache: c, log: log, now: time.Now}
}

// CurrentLocation validates the position reported by the device. A missing
// fix is how the client signals that location permission was refused.
func (s *Service) CurrentLocation(fix *geo.Coordinate) (geo.Coordinate, error) {
	if fix == nil {
		return geo.Coordinate{}, ErrLocationPermission
	}
	if err := fix.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", ErrLocationPermission, err)
	}
	return *fix, nil
}

// SearchLocations resolves free text into candidate locations.
func (s *Service) SearchLocations(ctx context.Context, query string) []Candidate {
	return cached(ctx, s, cache.QueryKey(string(CategorySearch), query), func() []Candidate {
		out, err := s.deps.Geocoder.Search(ctx, query)
		if err != nil {
			s.log.Warn("location search failed", zap.String("query", query), zap.Error(err))
			return []Candidate{}
		}
		return out
	})
}

// LocationDetails reverse geocodes coord and assembles its full bundle.
func (s *Service) LocationDetails(ctx context.Context, coord geo.Coordinate) (*Bundle, error) {
	if err := coord.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(string(CategoryDetails), coord)
	var hit Bundle
	if s.cache.Get(ctx, key, &hit) {
		return &hit, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		addr, err := s.deps.Geocoder.Reverse(ctx, Query{Coordinate: coord})
		if err != nil {
			s.log.Warn("reverse geocode failed", zap.Float64("lat", coord.Latitude), zap.Float64("lon", coord.Longitude), zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrLocationUnresolved, err)
		}
		if addr == nil {
			return nil, ErrLocationUnresolved
		}

		data := s.ComprehensiveData(ctx, addr.City, coord)
		b := s.bundle(addr, coord, data)
		b.Description = firstNonEmpty(wikiField(data.Wikipedia, func(w *WikipediaSummary) string { return w.Description }), fallbackDescription(addr))
		b.FullDescription = firstNonEmpty(wikiField(data.Wikipedia, func(w *WikipediaSummary) string { return w.FullDescription }), fallbackFullDescription(addr))

		s.cache.Set(ctx, key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Bundle), nil
}

// LocationDetailsOrDefault is LocationDetails with the default location
// substituted for anything that could not be resolved.
func (s *Service) LocationDetailsOrDefault(ctx context.Context, coord geo.Coordinate) *Bundle {
	b, err := s.LocationDetails(ctx, coord)
	if err != nil {
		s.log.Info("serving default location", zap.Error(err))
		return s.DefaultLocationWithWikipedia(ctx)
	}
	return b
}

// DefaultLocationWithWikipedia runs the full pipeline for the default
// location, keeping the hand-authored text where providers have none.
func (s *Service) DefaultLocationWithWikipedia(ctx context.Context) *Bundle {
	key := cache.Key(string(CategoryDetails), DefaultCoordinate, "default")
	var hit Bundle
	if s.cache.Get(ctx, key, &hit) {
		return &hit
	}

	v, _, _ := s.flight.Do(key, func() (any, error) {
		def := DefaultBundle()
		addr := &Address{City: def.Name, Region: def.Region, Country: def.Country, FormattedAddress: def.FormattedAddress}

		data := s.ComprehensiveData(ctx, DefaultName, DefaultCoordinate)
		b := s.bundle(addr, DefaultCoordinate, data)
		b.Description = firstNonEmpty(wikiField(data.Wikipedia, func(w *WikipediaSummary) string { return w.Description }), def.Description)
		b.FullDescription = firstNonEmpty(wikiField(data.Wikipedia, func(w *WikipediaSummary) string { return w.FullDescription }), def.FullDescription)

		s.cache.Set(ctx, key, b)
		return b, nil
	})
	return v.(*Bundle)
}

// bundle folds aggregated data into a Bundle; descriptions are set by the caller.
func (s *Service) bundle(addr *Address, coord geo.Coordinate, data *ComprehensiveData) *Bundle {
	b := &Bundle{
		Name:             addr.City,
		History:          data.GeneratedHistory,
		Coordinates:      coord,
		FormattedAddress: addr.FormattedAddress,
		Region:           addr.Region,
		Country:          addr.Country,
		News:             data.News,
		PlacesToVisit:    data.PlacesToVisit,
		Restaurants:      data.Restaurants,
		HolyPlaces:       data.HolyPlaces,
		Accommodation:    data.Accommodation,
		Services:         data.Services,
		AirQuality:       data.AirQuality,
		HasRealData:      true,
		LastUpdated:      s.now().UTC(),
	}
	if w := data.Wikipedia; w != nil {
		b.HasWikipediaData = true
		b.WikipediaTitle = w.Title
		b.WikipediaURL = w.PageURL
		b.Thumbnail = w.Thumbnail
	}
	return b
}

func wikiField(w *WikipediaSummary, f func(*WikipediaSummary) string) string {
	if w == nil {
		return ""
	}
	return f(w)
}

// ComprehensiveData fetches every category concurrently. A failing category
// yields an empty section and never affects the others. Carousel sections
// (places, restaurants, accommodation) come back sorted by rating.
func (s *Service) ComprehensiveData(ctx context.Context, name string, coord geo.Coordinate) *ComprehensiveData {
	q := Query{Name: name, Coordinate: coord}
	p := s.deps.Pipelines

	data := &ComprehensiveData{
		News:          []NewsArticle{},
		PlacesToVisit: []Place{},
		Restaurants:   []Restaurant{},
		HolyPlaces:    []HolyPlace{},
		Accommodation: []Accommodation{},
		Services:      []LocalService{},
	}

	var g errgroup.Group
	s.spawn(&g, CategoryNews, func() {
		data.News = s.news(ctx, name, "")
	})
	s.spawn(&g, CategoryPlaces, func() {
		data.PlacesToVisit = SortByRating(p.Places.Run(ctx, q, s.log))
	})
	s.spawn(&g, CategoryRestaurants, func() {
		data.Restaurants = SortByRating(p.Restaurants.Run(ctx, q, s.log))
	})
	s.spawn(&g, CategoryHolyPlaces, func() {
		data.HolyPlaces = p.HolyPlaces.Run(ctx, q, s.log)
	})
	s.spawn(&g, CategoryAccommodation, func() {
		data.Accommodation = SortByRating(p.Accommodation.Run(ctx, q, s.log))
	})
	s.spawn(&g, CategoryServices, func() {
		data.Services = p.Services.Run(ctx, q, s.log)
	})
	s.spawn(&g, CategoryWikipedia, func() {
		data.Wikipedia = s.wikipedia(ctx, name)
	})
	s.spawn(&g, CategoryAirQuality, func() {
		data.AirQuality = s.airQuality(ctx, q)
	})
	s.spawn(&g, CategoryHistory, func() {
		data.GeneratedHistory = s.history(ctx, name)
	})
	_ = g.Wait()

	return data
}

// spawn runs fn on g, turning a panic into a logged, empty section.
func (s *Service) spawn(g *errgroup.Group, category Category, fn func()) {
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("category fetch panicked", zap.String("category", string(category)), zap.Any("recover", r))
			}
		}()
		fn()
		return nil
	})
}

func (s *Service) news(ctx context.Context, name, country string) []NewsArticle {
	if s.deps.News == nil {
		return []NewsArticle{}
	}
	out, err := s.deps.News.Local(ctx, name, country)
	if err != nil {
		s.log.Warn("news fetch failed", zap.String("location", name), zap.Error(err))
		return []NewsArticle{}
	}
	if out == nil {
		return []NewsArticle{}
	}
	return out
}

func (s *Service) wikipedia(ctx context.Context, name string) *WikipediaSummary {
	if s.deps.Wikipedia == nil {
		return nil
	}
	w, err := s.deps.Wikipedia.Summary(ctx, name)
	if err != nil {
		s.log.Warn("wikipedia fetch failed", zap.String("location", name), zap.Error(err))
		return nil
	}
	return w
}

func (s *Service) airQuality(ctx context.Context, q Query) *AirQuality {
	if s.deps.AirQuality == nil {
		return nil
	}
	aq, err := s.deps.AirQuality.AirQuality(ctx, q)
	if err != nil {
		s.log.Warn("air quality fetch failed", zap.Error(err))
		return nil
	}
	return aq
}

func (s *Service) history(ctx context.Context, name string) string {
	if s.deps.History == nil {
		return FallbackHistory(name)
	}
	return s.deps.History.History(ctx, name)
}

// PlacesToVisit returns deduplicated tourist and cultural sites.
func (s *Service) PlacesToVisit(ctx context.Context, coord geo.Coordinate, radius int) []Place {
	key := cache.Key(string(CategoryPlaces), coord, strconv.Itoa(radius))
	return cached(ctx, s, key, func() []Place {
		return s.deps.Pipelines.Places.Run(ctx, Query{Coordinate: coord, Radius: radius}, s.log)
	})
}

// LocalRestaurants returns restaurants from every provider, merged.
func (s *Service) LocalRestaurants(ctx context.Context, name string, coord geo.Coordinate) []Restaurant {
	key := cache.Key(string(CategoryRestaurants), coord, name)
	return cached(ctx, s, key, func() []Restaurant {
		return s.deps.Pipelines.Restaurants.Run(ctx, Query{Name: name, Coordinate: coord}, s.log)
	})
}

// Accommodation returns lodgings from the first provider that has any.
func (s *Service) Accommodation(ctx context.Context, coord geo.Coordinate) []Accommodation {
	key := cache.Key(string(CategoryAccommodation), coord)
	return cached(ctx, s, key, func() []Accommodation {
		return s.deps.Pipelines.Accommodation.Run(ctx, Query{Coordinate: coord}, s.log)
	})
}

// HolyPlaces returns places of worship.
func (s *Service) HolyPlaces(ctx context.Context, coord geo.Coordinate) []HolyPlace {
	key := cache.Key(string(CategoryHolyPlaces), coord)
	return cached(ctx, s, key, func() []HolyPlace {
		return s.deps.Pipelines.HolyPlaces.Run(ctx, Query{Coordinate: coord}, s.log)
	})
}

// LocalServices returns everyday amenities, merged across providers.
func (s *Service) LocalServices(ctx context.Context, coord geo.Coordinate) []LocalService {
	key := cache.Key(string(CategoryServices), coord)
	return cached(ctx, s, key, func() []LocalService {
		return s.deps.Pipelines.Services.Run(ctx, Query{Coordinate: coord}, s.log)
	})
}

// LocalNews returns headlines mentioning name.
func (s *Service) LocalNews(ctx context.Context, name, country string) []NewsArticle {
	key := cache.QueryKey(string(CategoryNews), name, country)
	return cached(ctx, s, key, func() []NewsArticle {
		return s.news(ctx, name, country)
	})
}

// AirQuality returns the nearest station reading, or nil.
func (s *Service) AirQuality(ctx context.Context, coord geo.Coordinate) *AirQuality {
	key := cache.Key(string(CategoryAirQuality), coord)
	var hit AirQuality
	if s.cache.Get(ctx, key, &hit) {
		return &hit
	}
	aq := s.airQuality(ctx, Query{Coordinate: coord})
	if aq != nil {
		s.cache.Set(ctx, key, aq)
	}
	return aq
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.ClearAll(ctx)
}

// cached serves key from the cache, or computes and stores it. Empty results
// are not stored so a provider outage is retried on the next request.
func cached[T any](ctx context.Context, s *Service, key string, fetch func() []T) []T {
	var hit []T
	if s.cache.Get(ctx, key, &hit) && hit != nil {
		return hit
	}

	v, _, _ := s.flight.Do(key, func() (any, error) {
		out := fetch()
		if out == nil {
			out = []T{}
		}
		if len(out) > 0 {
			s.cache.Set(ctx, key, out)
		}
		return out, nil
	})
	return v.([]T)
}

type noCache struct{}

func (noCache) Get(context.Context, string, any) bool { return false }
func (noCache) Set(context.Context, string, any)      {}
func (noCache) ClearAll(context.Context) error        { return nil }

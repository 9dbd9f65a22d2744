package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/api"
	"github.com/curiocity/cityguide/internal/geo"
	"github.com/curiocity/cityguide/internal/location"
)

// ---- mock implementations ----

type mockService struct {
	currentFn       func(fix *geo.Coordinate) (geo.Coordinate, error)
	searchFn        func(ctx context.Context, query string) []location.Candidate
	detailsFn       func(ctx context.Context, coord geo.Coordinate) *location.Bundle
	defaultFn       func(ctx context.Context) *location.Bundle
	placesFn        func(ctx context.Context, coord geo.Coordinate, radius int) []location.Place
	restaurantsFn   func(ctx context.Context, name string, coord geo.Coordinate) []location.Restaurant
	accommodationFn func(ctx context.Context, coord geo.Coordinate) []location.Accommodation
	holyPlacesFn    func(ctx context.Context, coord geo.Coordinate) []location.HolyPlace
	servicesFn      func(ctx context.Context, coord geo.Coordinate) []location.LocalService
	newsFn          func(ctx context.Context, name, country string) []location.NewsArticle
	airQualityFn    func(ctx context.Context, coord geo.Coordinate) *location.AirQuality
	clearCacheFn    func(ctx context.Context) error
}

func (m *mockService) CurrentLocation(fix *geo.Coordinate) (geo.Coordinate, error) {
	return m.currentFn(fix)
}
func (m *mockService) SearchLocations(ctx context.Context, query string) []location.Candidate {
	return m.searchFn(ctx, query)
}
func (m *mockService) LocationDetailsOrDefault(ctx context.Context, coord geo.Coordinate) *location.Bundle {
	return m.detailsFn(ctx, coord)
}
func (m *mockService) DefaultLocationWithWikipedia(ctx context.Context) *location.Bundle {
	return m.defaultFn(ctx)
}
func (m *mockService) PlacesToVisit(ctx context.Context, coord geo.Coordinate, radius int) []location.Place {
	return m.placesFn(ctx, coord, radius)
}
func (m *mockService) LocalRestaurants(ctx context.Context, name string, coord geo.Coordinate) []location.Restaurant {
	return m.restaurantsFn(ctx, name, coord)
}
func (m *mockService) Accommodation(ctx context.Context, coord geo.Coordinate) []location.Accommodation {
	return m.accommodationFn(ctx, coord)
}
func (m *mockService) HolyPlaces(ctx context.Context, coord geo.Coordinate) []location.HolyPlace {
	return m.holyPlacesFn(ctx, coord)
}
func (m *mockService) LocalServices(ctx context.Context, coord geo.Coordinate) []location.LocalService {
	return m.servicesFn(ctx, coord)
}
func (m *mockService) LocalNews(ctx context.Context, name, country string) []location.NewsArticle {
	return m.newsFn(ctx, name, country)
}
func (m *mockService) AirQuality(ctx context.Context, coord geo.Coordinate) *location.AirQuality {
	return m.airQualityFn(ctx, coord)
}
func (m *mockService) ClearCache(ctx context.Context) error {
	return m.clearCacheFn(ctx)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

const testToken = "secret-token"

const testOrigin = "https://app.curiocity.test"

func buildRouter(svc api.LocationService, backends map[string]api.Pinger) http.Handler {
	if backends == nil {
		backends = map[string]api.Pinger{"redis": &mockPinger{}}
	}
	log := zap.NewNop()
	return api.NewRouter(api.NewHandlers(svc, log), testToken, []string{testOrigin}, backends, log)
}

func do(t *testing.T, h http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func rating(v float64) *float64 { return &v }

func ratedPlaces() []location.Place {
	return []location.Place{
		{Name: "A", Rating: rating(5)},
		{Name: "B", Rating: rating(4)},
		{Name: "C", Rating: rating(3)},
	}
}

// ---- GET /api/v1/locations/current ----

func TestCurrentLocation_NoFix(t *testing.T) {
	svc := location.NewService(location.Deps{}, nil, zap.NewNop())
	router := buildRouter(svc, nil)

	w := do(t, router, http.MethodGet, "/api/v1/locations/current", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotEmpty(t, errorBody(t, w))
}

func TestCurrentLocation_InvalidFix(t *testing.T) {
	svc := location.NewService(location.Deps{}, nil, zap.NewNop())
	router := buildRouter(svc, nil)

	w := do(t, router, http.MethodGet, "/api/v1/locations/current", map[string]string{
		api.HeaderDeviceLatitude:  "123",
		api.HeaderDeviceLongitude: "10",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCurrentLocation_OK(t *testing.T) {
	svc := location.NewService(location.Deps{}, nil, zap.NewNop())
	router := buildRouter(svc, nil)

	w := do(t, router, http.MethodGet, "/api/v1/locations/current", map[string]string{
		api.HeaderDeviceLatitude:  "48.8566",
		api.HeaderDeviceLongitude: "2.3522",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var got geo.Coordinate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, got)
}

func TestCurrentLocation_UnexpectedError(t *testing.T) {
	svc := &mockService{currentFn: func(_ *geo.Coordinate) (geo.Coordinate, error) {
		return geo.Coordinate{}, fmt.Errorf("boom")
	}}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/current", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- GET /api/v1/locations/search ----

func TestSearch_MissingQuery(t *testing.T) {
	svc := &mockService{searchFn: func(_ context.Context, _ string) []location.Candidate {
		t.Fatal("service should not be called without a query")
		return nil
	}}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/search?q=%20", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "q: failed required", errorBody(t, w))
}

func TestSearch_OK(t *testing.T) {
	var gotQuery string
	svc := &mockService{searchFn: func(_ context.Context, q string) []location.Candidate {
		gotQuery = q
		return []location.Candidate{{Name: "Paris", FormattedAddress: "Paris, France"}}
	}}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/search?q=Paris", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", gotQuery)
	var got []location.Candidate
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Paris, France", got[0].FormattedAddress)
}

// ---- GET /api/v1/locations/details ----

func TestDetails_Validation(t *testing.T) {
	svc := &mockService{detailsFn: func(_ context.Context, _ geo.Coordinate) *location.Bundle {
		t.Fatal("service should not be called for invalid input")
		return nil
	}}
	router := buildRouter(svc, nil)

	tests := []struct {
		name, query, wantErr string
	}{
		{"missing lat", "?lon=2", "lat: failed required"},
		{"missing lon", "?lat=48", "lon: failed required"},
		{"lat not a number", "?lat=north&lon=2", "lat must be a number"},
		{"lat out of range", "?lat=91&lon=2", "lat: failed max=90"},
		{"lon out of range", "?lat=48&lon=-181", "lon: failed min=-180"},
		{"unknown layout", "?lat=48&lon=2&layout=grid", "layout: failed oneof=carousel list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodGet, "/api/v1/locations/details"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, errorBody(t, w))
		})
	}
}

func TestDetails_OK(t *testing.T) {
	var gotCoord geo.Coordinate
	svc := &mockService{detailsFn: func(_ context.Context, c geo.Coordinate) *location.Bundle {
		gotCoord = c
		return &location.Bundle{Name: "Paris", Country: "France", PlacesToVisit: ratedPlaces(), HasRealData: true}
	}}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/details?lat=48.8566&lon=2.3522", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, geo.Coordinate{Latitude: 48.8566, Longitude: 2.3522}, gotCoord)

	var got location.Bundle
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Paris", got.Name)
	assert.True(t, got.HasRealData)
	assert.Equal(t, []string{"A", "B", "C"}, placeNames(got.PlacesToVisit))
}

func TestDetails_CarouselLayout(t *testing.T) {
	shared := &location.Bundle{Name: "Paris", PlacesToVisit: ratedPlaces()}
	svc := &mockService{detailsFn: func(_ context.Context, _ geo.Coordinate) *location.Bundle { return shared }}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/details?lat=48&lon=2&layout=carousel", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got location.Bundle
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, []string{"B", "A", "C"}, placeNames(got.PlacesToVisit))
	assert.Equal(t, []string{"A", "B", "C"}, placeNames(shared.PlacesToVisit), "shared bundle must not be reordered")
}

func TestDefaultLocation(t *testing.T) {
	svc := &mockService{defaultFn: func(_ context.Context) *location.Bundle { return location.DefaultBundle() }}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/default", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got location.Bundle
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, location.DefaultName, got.Name)
}

func placeNames(ps []location.Place) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// ---- category routes ----

func TestPlaces_Radius(t *testing.T) {
	var gotRadius int
	svc := &mockService{placesFn: func(_ context.Context, _ geo.Coordinate, radius int) []location.Place {
		gotRadius = radius
		return ratedPlaces()
	}}
	router := buildRouter(svc, nil)

	w := do(t, router, http.MethodGet, "/api/v1/locations/places?lat=48&lon=2&radius=5000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5000, gotRadius)

	w = do(t, router, http.MethodGet, "/api/v1/locations/places?lat=48&lon=2&radius=far", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "radius must be an integer", errorBody(t, w))
}

func TestRestaurants_PassesName(t *testing.T) {
	var gotName string
	svc := &mockService{restaurantsFn: func(_ context.Context, name string, _ geo.Coordinate) []location.Restaurant {
		gotName = name
		return []location.Restaurant{}
	}}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/restaurants?lat=48&lon=2&name=Paris", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", gotName)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCategoryRoutes_EmptyArrays(t *testing.T) {
	svc := &mockService{
		accommodationFn: func(_ context.Context, _ geo.Coordinate) []location.Accommodation { return []location.Accommodation{} },
		holyPlacesFn:    func(_ context.Context, _ geo.Coordinate) []location.HolyPlace { return []location.HolyPlace{} },
		servicesFn:      func(_ context.Context, _ geo.Coordinate) []location.LocalService { return []location.LocalService{} },
	}
	router := buildRouter(svc, nil)

	for _, path := range []string{"accommodation", "holy-places", "services"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, router, http.MethodGet, "/api/v1/locations/"+path+"?lat=48&lon=2", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `[]`, w.Body.String())
		})
	}
}

func TestNews(t *testing.T) {
	var gotName, gotCountry string
	svc := &mockService{newsFn: func(_ context.Context, name, country string) []location.NewsArticle {
		gotName, gotCountry = name, country
		return []location.NewsArticle{{Title: "Headline"}}
	}}
	router := buildRouter(svc, nil)

	w := do(t, router, http.MethodGet, "/api/v1/locations/news?name=Paris&country=FR", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", gotName)
	assert.Equal(t, "fr", gotCountry)

	w = do(t, router, http.MethodGet, "/api/v1/locations/news?name=Paris&country=france", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/locations/news", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAirQuality_NoReading(t *testing.T) {
	svc := &mockService{airQualityFn: func(_ context.Context, _ geo.Coordinate) *location.AirQuality { return nil }}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/air-quality?lat=48&lon=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `null`, w.Body.String())
}

func TestAirQuality_Reading(t *testing.T) {
	svc := &mockService{airQualityFn: func(_ context.Context, _ geo.Coordinate) *location.AirQuality {
		return &location.AirQuality{AQI: 42, Level: "Good"}
	}}

	w := do(t, buildRouter(svc, nil), http.MethodGet, "/api/v1/locations/air-quality?lat=48&lon=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got location.AirQuality
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, 42, got.AQI)
}

// ---- DELETE /api/v1/cache ----

func TestClearCache(t *testing.T) {
	called := false
	svc := &mockService{clearCacheFn: func(_ context.Context) error { called = true; return nil }}

	w := do(t, buildRouter(svc, nil), http.MethodDelete, "/api/v1/cache", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestClearCache_Error(t *testing.T) {
	svc := &mockService{clearCacheFn: func(_ context.Context) error { return fmt.Errorf("redis down") }}

	w := do(t, buildRouter(svc, nil), http.MethodDelete, "/api/v1/cache", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to clear cache", errorBody(t, w))
}

// ---- GET /api/v1/health ----

func TestHealth_OK(t *testing.T) {
	router := buildRouter(nil, map[string]api.Pinger{"db": &mockPinger{}, "redis": &mockPinger{}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
	assert.Equal(t, "ok", body["redis"])
}

func TestHealth_BackendDown(t *testing.T) {
	router := buildRouter(nil, map[string]api.Pinger{
		"db":    &mockPinger{err: fmt.Errorf("db unreachable")},
		"redis": &mockPinger{},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error", body["db"])
	assert.Equal(t, "ok", body["redis"])
}

// ---- Auth middleware ----

func TestBearerAuth_NoHeader(t *testing.T) {
	router := buildRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/default", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_WrongToken(t *testing.T) {
	router := buildRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations/default", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuth_HealthNoAuth(t *testing.T) {
	// Health endpoint must not require auth.
	router := buildRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuth_MissingBearerPrefix(t *testing.T) {
	router := buildRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cache", nil)
	req.Method = http.MethodDelete
	req.Header.Set("Authorization", testToken) // no "Bearer " prefix
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS_Preflight(t *testing.T) {
	router := buildRouter(&mockService{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/locations/details", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnknownOrigin(t *testing.T) {
	router := buildRouter(&mockService{}, nil)

	w := do(t, router, http.MethodGet, "/api/v1/health", map[string]string{"Origin": "https://evil.test"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

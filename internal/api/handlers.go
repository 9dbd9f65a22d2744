package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/geo"
	"github.com/curiocity/cityguide/internal/location"
)

// Device position headers set by the mobile client after the OS granted
// location permission.
const (
	HeaderDeviceLatitude  = "X-Device-Latitude"
	HeaderDeviceLongitude = "X-Device-Longitude"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	svc LocationService
	log *zap.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(svc LocationService, log *zap.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// coords parses and validates lat/lon, writing a 400 on failure.
func coords(w http.ResponseWriter, r *http.Request) (coordParams, bool) {
	p, err := parseCoordParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return p, false
	}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return p, false
	}
	return p, true
}

// CurrentLocation handles GET /api/v1/locations/current.
func (h *Handlers) CurrentLocation(w http.ResponseWriter, r *http.Request) {
	coord, err := h.svc.CurrentLocation(deviceFix(r))
	if err != nil {
		if errors.Is(err, location.ErrLocationPermission) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		h.log.Error("current location failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, coord)
}

func deviceFix(r *http.Request) *geo.Coordinate {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(r.Header.Get(HeaderDeviceLatitude)), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(r.Header.Get(HeaderDeviceLongitude)), 64)
	if errLat != nil || errLon != nil {
		return nil
	}
	return &geo.Coordinate{Latitude: lat, Longitude: lon}
}

// SearchLocations handles GET /api/v1/locations/search?q=.
func (h *Handlers) SearchLocations(w http.ResponseWriter, r *http.Request) {
	p := searchParams{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.SearchLocations(r.Context(), p.Q))
}

// LocationDetails handles GET /api/v1/locations/details?lat=&lon=.
// Unresolvable coordinates are answered with the default location.
func (h *Handlers) LocationDetails(w http.ResponseWriter, r *http.Request) {
	p, ok := coords(w, r)
	if !ok {
		return
	}
	b := h.svc.LocationDetailsOrDefault(r.Context(), p.coordinate())
	writeJSON(w, http.StatusOK, layoutBundle(b, p.carousel()))
}

// DefaultLocation handles GET /api/v1/locations/default.
func (h *Handlers) DefaultLocation(w http.ResponseWriter, r *http.Request) {
	layout := strings.ToLower(r.URL.Query().Get("layout"))
	b := h.svc.DefaultLocationWithWikipedia(r.Context())
	writeJSON(w, http.StatusOK, layoutBundle(b, layout == layoutCarousel))
}

// layoutBundle returns b with carousel sections centered on their top-rated
// item. b is shared with the cache and other requests, so it is copied.
func layoutBundle(b *location.Bundle, carousel bool) *location.Bundle {
	if !carousel || b == nil {
		return b
	}
	out := *b
	out.PlacesToVisit = location.CenterTopRated(b.PlacesToVisit)
	out.Restaurants = location.CenterTopRated(b.Restaurants)
	out.Accommodation = location.CenterTopRated(b.Accommodation)
	return &out
}

// PlacesToVisit handles GET /api/v1/locations/places?lat=&lon=[&radius=].
func (h *Handlers) PlacesToVisit(w http.ResponseWriter, r *http.Request) {
	p, err := parsePlacesParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	places := h.svc.PlacesToVisit(r.Context(), p.coordinate(), p.Radius)
	if p.carousel() {
		places = location.CenterTopRated(places)
	}
	writeJSON(w, http.StatusOK, places)
}

// LocalRestaurants handles GET /api/v1/locations/restaurants?lat=&lon=&name=.
func (h *Handlers) LocalRestaurants(w http.ResponseWriter, r *http.Request) {
	c, ok := coords(w, r)
	if !ok {
		return
	}
	p := restaurantParams{coordParams: c, Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	restaurants := h.svc.LocalRestaurants(r.Context(), p.Name, p.coordinate())
	if p.carousel() {
		restaurants = location.CenterTopRated(restaurants)
	}
	writeJSON(w, http.StatusOK, restaurants)
}

// Accommodation handles GET /api/v1/locations/accommodation?lat=&lon=.
func (h *Handlers) Accommodation(w http.ResponseWriter, r *http.Request) {
	p, ok := coords(w, r)
	if !ok {
		return
	}
	stays := h.svc.Accommodation(r.Context(), p.coordinate())
	if p.carousel() {
		stays = location.CenterTopRated(stays)
	}
	writeJSON(w, http.StatusOK, stays)
}

// HolyPlaces handles GET /api/v1/locations/holy-places?lat=&lon=.
func (h *Handlers) HolyPlaces(w http.ResponseWriter, r *http.Request) {
	p, ok := coords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.HolyPlaces(r.Context(), p.coordinate()))
}

// LocalServices handles GET /api/v1/locations/services?lat=&lon=.
func (h *Handlers) LocalServices(w http.ResponseWriter, r *http.Request) {
	p, ok := coords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.LocalServices(r.Context(), p.coordinate()))
}

// LocalNews handles GET /api/v1/locations/news?name=&country=.
func (h *Handlers) LocalNews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := newsParams{
		Name:    strings.TrimSpace(q.Get("name")),
		Country: strings.ToLower(strings.TrimSpace(q.Get("country"))),
	}
	if err := validate.Struct(p); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.LocalNews(r.Context(), p.Name, p.Country))
}

// AirQuality handles GET /api/v1/locations/air-quality?lat=&lon=.
// No reading is answered with JSON null.
func (h *Handlers) AirQuality(w http.ResponseWriter, r *http.Request) {
	p, ok := coords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.AirQuality(r.Context(), p.coordinate()))
}

// ClearCache handles DELETE /api/v1/cache.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearCache(r.Context()); err != nil {
		h.log.Error("cache clear failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HealthHandlerFunc returns an http.HandlerFunc that pings every backend.
// It answers 200 when all are reachable and 503 otherwise.
func HealthHandlerFunc(backends map[string]Pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		for name, p := range backends {
			body[name] = "ok"
			if err := p.Ping(ctx); err != nil {
				log.Error("health check: ping failed", zap.String("backend", name), zap.Error(err))
				body[name] = "error"
				status = http.StatusServiceUnavailable
			}
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}

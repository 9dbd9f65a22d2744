package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// NewRouter builds and returns the Chi router with all routes configured.
// The health endpoint is unauthenticated; all location routes require bearer auth.
// Rate limiting is applied globally: 60 requests per minute per IP.
// Browser clients from corsOrigins may call every route.
func NewRouter(handlers *Handlers, token string, corsOrigins []string, backends map[string]Pinger, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", HeaderDeviceLatitude, HeaderDeviceLongitude},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/api/v1/health", HealthHandlerFunc(backends, log))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(token))

		r.Route("/api/v1/locations", func(r chi.Router) {
			r.Get("/current", handlers.CurrentLocation)
			r.Get("/search", handlers.SearchLocations)
			r.Get("/details", handlers.LocationDetails)
			r.Get("/default", handlers.DefaultLocation)
			r.Get("/places", handlers.PlacesToVisit)
			r.Get("/restaurants", handlers.LocalRestaurants)
			r.Get("/accommodation", handlers.Accommodation)
			r.Get("/holy-places", handlers.HolyPlaces)
			r.Get("/services", handlers.LocalServices)
			r.Get("/news", handlers.LocalNews)
			r.Get("/air-quality", handlers.AirQuality)
		})

		r.Delete("/api/v1/cache", handlers.ClearCache)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)

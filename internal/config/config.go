package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Cache backends.
const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Config is the process configuration, read from an optional .env file and
// the environment. Environment variables win.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Cache     CacheConfig
	Providers ProviderConfig
}

type ServerConfig struct {
	Port        string   `validate:"required,numeric"`
	BearerToken string   `validate:"required"`
	CORSOrigins []string `validate:"min=1,dive,required"`
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

type CacheConfig struct {
	Backend       string        `validate:"oneof=redis postgres none"`
	TTL           time.Duration `validate:"gt=0"`
	RedisURL      string        `validate:"required_if=Backend redis"`
	DatabaseURL   string        `validate:"required_if=Backend postgres"`
	MigrationsDir string        `validate:"required_if=Backend postgres"`
}

type ProviderConfig struct {
	OpenTripMapKey     string
	FoursquareKey      string
	GeoapifyKey        string
	WAQIToken          string
	NewsDataKey        string
	NewsCountry        string `validate:"omitempty,len=2,alpha"`
	GeminiKey          string
	GeminiModel        string `validate:"required"`
	NominatimUserAgent string `validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_BACKEND", BackendRedis)
	v.SetDefault("CACHE_TTL", "30m")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("NEWS_COUNTRY", "in")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("NOMINATIM_USER_AGENT", "CurioCity/1.0")
}

// Load reads envFile (skipped when it does not exist) and the environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			BearerToken: v.GetString("BEARER_TOKEN"),
			CORSOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Cache: CacheConfig{
			Backend:       v.GetString("CACHE_BACKEND"),
			TTL:           v.GetDuration("CACHE_TTL"),
			RedisURL:      v.GetString("REDIS_URL"),
			DatabaseURL:   v.GetString("DATABASE_URL"),
			MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		},
		Providers: ProviderConfig{
			OpenTripMapKey:     v.GetString("OPENTRIPMAP_API_KEY"),
			FoursquareKey:      v.GetString("FOURSQUARE_API_KEY"),
			GeoapifyKey:        v.GetString("GEOAPIFY_API_KEY"),
			WAQIToken:          v.GetString("WAQI_API_TOKEN"),
			NewsDataKey:        v.GetString("NEWSDATA_API_KEY"),
			NewsCountry:        v.GetString("NEWS_COUNTRY"),
			GeminiKey:          v.GetString("GEMINI_API_KEY"),
			GeminiModel:        v.GetString("GEMINI_MODEL"),
			NominatimUserAgent: v.GetString("NOMINATIM_USER_AGENT"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

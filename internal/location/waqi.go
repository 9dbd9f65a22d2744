package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	waqiDefaultURL = "https://api.waqi.info/feed"
	waqiTimeLayout = "2006-01-02 15:04:05"
)

// AQIBand is one severity bucket of the US AQI scale.
type AQIBand struct {
	Max         int
	Level       string
	Color       string
	Description string
}

var aqiBands = []AQIBand{
	{50, "Good", "#00E400", "Air quality is satisfactory"},
	{100, "Moderate", "#FFFF00", "Acceptable air quality"},
	{150, "Unhealthy for Sensitive", "#FF7E00", "Sensitive groups may experience effects"},
	{200, "Unhealthy", "#FF0000", "Everyone may experience health effects"},
	{300, "Very Unhealthy", "#8F3F97", "Health alert for everyone"},
}

var hazardous = AQIBand{Level: "Hazardous", Color: "#7E0023", Description: "Emergency conditions"}

// AQILevel returns the bucket for aqi; anything above 300 is hazardous.
func AQILevel(aqi int) AQIBand {
	for _, b := range aqiBands {
		if aqi <= b.Max {
			return b
		}
	}
	return hazardous
}

// WAQIClient reads the nearest station from the World Air Quality Index.
type WAQIClient struct {
	token   string
	baseURL string
	client  *http.Client
	retry   retrier
	now     func() time.Time
	log     *zap.Logger
}

// NewWAQIClient constructs a WAQIClient with the given token.
func NewWAQIClient(token string, log *zap.Logger) *WAQIClient {
	return NewWAQIClientWithURL(waqiDefaultURL, token, log)
}

// NewWAQIClientWithURL constructs a WAQIClient pointing at a custom URL (for tests).
func NewWAQIClientWithURL(baseURL, token string, log *zap.Logger) *WAQIClient {
	return &WAQIClient{
		token:   token,
		baseURL: baseURL,
		client:  newHTTPClient(),
		retry:   defaultRetrier(),
		now:     time.Now,
		log:     log,
	}
}

type waqiResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type waqiData struct {
	AQI         any    `json:"aqi"`
	DominentPol string `json:"dominentpol"`
	City        struct {
		Name string `json:"name"`
	} `json:"city"`
	Time struct {
		S  string `json:"s"`
		TZ string `json:"tz"`
	} `json:"time"`
}

// AirQuality returns the reading of the station closest to q.Coordinate, or
// nil when no token is configured or no station reports a numeric AQI.
func (c *WAQIClient) AirQuality(ctx context.Context, q Query) (*AirQuality, error) {
	if c.token == "" {
		c.log.Debug("waqi token not configured")
		return nil, nil
	}
	if err := q.Coordinate.Validate(); err != nil {
		c.log.Debug("skipping waqi request", zap.Error(err))
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/geo:%s;%s/?token=%s",
		c.baseURL,
		strconv.FormatFloat(q.Coordinate.Latitude, 'f', -1, 64),
		strconv.FormatFloat(q.Coordinate.Longitude, 'f', -1, 64),
		url.QueryEscape(c.token))

	var raw waqiResponse
	if err := c.retry.get(ctx, c.client, endpoint, nil, &raw); err != nil {
		return nil, fmt.Errorf("waqi feed: %w", err)
	}
	if raw.Status != "ok" {
		c.log.Debug("waqi returned non-ok status", zap.String("status", raw.Status))
		return nil, nil
	}

	var data waqiData
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding waqi data: %w", err)
	}
	aqi, ok := numericAQI(data.AQI)
	if !ok {
		c.log.Debug("waqi station has no numeric aqi", zap.Any("aqi", data.AQI))
		return nil, nil
	}

	band := AQILevel(aqi)
	return &AirQuality{
		AQI:               aqi,
		Level:             band.Level,
		Color:             band.Color,
		Description:       band.Description,
		Station:           firstNonEmpty(data.City.Name, "Nearby Station"),
		DominantPollutant: firstNonEmpty(data.DominentPol, "pm25"),
		LastUpdated:       c.parseTime(data.Time.S, data.Time.TZ),
	}, nil
}

// numericAQI accepts the number WAQI normally sends and the quoted form some
// stations use; "-" means the station has no current reading.
func numericAQI(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		return n, err == nil
	default:
		return 0, false
	}
}

// parseTime reads WAQI's local station time with its "+hh:mm" offset.
func (c *WAQIClient) parseTime(s, tz string) time.Time {
	if s == "" {
		return c.now().UTC()
	}
	if tz != "" {
		if t, err := time.Parse(waqiTimeLayout+"-07:00", s+tz); err == nil {
			return t.UTC()
		}
	}
	if t, err := time.Parse(waqiTimeLayout, s); err == nil {
		return t.UTC()
	}
	return c.now().UTC()
}

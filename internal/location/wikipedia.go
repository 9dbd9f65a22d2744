package location

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/curiocity/cityguide/internal/geo"
)

const wikipediaDefaultURL = "https://en.wikipedia.org/api/rest_v1/page/summary"

// WikipediaClient reads page summaries from the Wikipedia REST API.
type WikipediaClient struct {
	baseURL string
	client  *http.Client
	retry   retrier
	log     *zap.Logger
}

// NewWikipediaClient constructs a WikipediaClient for English Wikipedia.
func NewWikipediaClient(log *zap.Logger) *WikipediaClient {
	return NewWikipediaClientWithURL(wikipediaDefaultURL, log)
}

// NewWikipediaClientWithURL constructs a WikipediaClient pointing at a custom URL (for tests).
func NewWikipediaClientWithURL(baseURL string, log *zap.Logger) *WikipediaClient {
	return &WikipediaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
		retry:   defaultRetrier(),
		log:     log,
	}
}

type wikipediaSummaryResponse struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
	Coordinates *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coordinates"`
}

// Summary returns the page summary for title. Missing pages, disambiguation
// pages and pages without an extract are a miss (nil, nil), not an error.
func (c *WikipediaClient) Summary(ctx context.Context, title string) (*WikipediaSummary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	var raw wikipediaSummaryResponse
	err := c.retry.get(ctx, c.client, c.baseURL+"/"+url.PathEscape(title), nil, &raw)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			c.log.Debug("wikipedia page not found", zap.String("title", title))
			return nil, nil
		}
		return nil, fmt.Errorf("wikipedia summary for %s: %w", title, err)
	}

	if raw.Type == "disambiguation" || raw.Type == "no-extract" {
		c.log.Debug("wikipedia returned no usable extract", zap.String("title", title), zap.String("type", raw.Type))
		return nil, nil
	}

	s := &WikipediaSummary{
		Title:           raw.Title,
		Description:     firstNonEmpty(raw.Extract, fmt.Sprintf("%s is a fascinating location with rich history and culture.", title)),
		FullDescription: firstNonEmpty(raw.Extract, fmt.Sprintf("Explore %s and discover its unique attractions, local culture, and historical significance. This destination offers visitors an authentic experience with plenty to see and do.", title)),
		PageURL:         raw.ContentURLs.Desktop.Page,
	}
	if raw.Thumbnail != nil {
		s.Thumbnail = raw.Thumbnail.Source
	}
	if raw.Coordinates != nil {
		s.Coordinates = &geo.Coordinate{Latitude: raw.Coordinates.Lat, Longitude: raw.Coordinates.Lon}
	}
	return s, nil
}

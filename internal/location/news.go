package location

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	newsDataDefaultURL = "https://newsdata.io/api/1/news"
	newsDataTimeLayout = "2006-01-02 15:04:05"

	// DefaultNewsCountry is the NewsData country filter used when none is given.
	DefaultNewsCountry = "in"
)

// NewsClient searches local headlines with the NewsData.io API.
type NewsClient struct {
	apiKey  string
	country string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewNewsClient constructs a NewsClient; country is the default filter.
func NewNewsClient(apiKey, country string, log *zap.Logger) *NewsClient {
	return NewNewsClientWithURL(newsDataDefaultURL, apiKey, country, log)
}

// NewNewsClientWithURL constructs a NewsClient pointing at a custom URL (for tests).
func NewNewsClientWithURL(baseURL, apiKey, country string, log *zap.Logger) *NewsClient {
	if country == "" {
		country = DefaultNewsCountry
	}
	return &NewsClient{apiKey: apiKey, country: country, baseURL: baseURL, client: newHTTPClient(), log: log}
}

type newsDataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
		PubDate     string `json:"pubDate"`
		SourceID    string `json:"source_id"`
		ImageURL    string `json:"image_url"`
	} `json:"results"`
}

// Local returns up to ten English articles mentioning locationName. An empty
// country uses the client default.
func (c *NewsClient) Local(ctx context.Context, locationName, country string) ([]NewsArticle, error) {
	locationName = strings.TrimSpace(locationName)
	if locationName == "" {
		return []NewsArticle{}, nil
	}
	if country == "" {
		country = c.country
	}

	v := url.Values{}
	v.Set("apikey", c.apiKey)
	v.Set("q", locationName)
	v.Set("country", country)
	v.Set("language", "en")
	v.Set("size", "10")

	var raw newsDataResponse
	if err := doGet(ctx, c.client, c.baseURL+"?"+v.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("newsdata search for %s: %w", locationName, err)
	}

	out := make([]NewsArticle, 0, len(raw.Results))
	for _, a := range raw.Results {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		var published *time.Time
		if t, err := time.Parse(newsDataTimeLayout, a.PubDate); err == nil {
			t = t.UTC()
			published = &t
		} else {
			c.log.Debug("unparseable pubDate", zap.String("pubDate", a.PubDate))
		}
		out = append(out, NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.Link,
			PublishedAt: published,
			Source:      a.SourceID,
			ImageURL:    a.ImageURL,
		})
	}
	return out, nil
}

package cache

import (
	"fmt"
	"strings"

	"github.com/curiocity/cityguide/internal/geo"
)

// Prefix starts every key built by this package.
const Prefix = "cache:"

// Key returns the key for a coordinate-scoped category, e.g.
// "cache:places:40.7128,-74.0060:5000".
func Key(category string, c geo.Coordinate, extra ...string) string {
	base := fmt.Sprintf("%s%s:%.4f,%.4f", Prefix, category, c.Latitude, c.Longitude)
	return join(base, extra)
}

// QueryKey returns the key for a text-scoped category such as search or news.
func QueryKey(category string, parts ...string) string {
	return join(Prefix+category, parts)
}

func join(base string, parts []string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

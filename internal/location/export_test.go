package location

import (
	"time"

	"golang.org/x/time/rate"
)

// Test hooks: drop retry backoff and client-side throttling so failure paths
// run instantly.

func noBackoff(int) time.Duration { return 0 }

func (c *NominatimClient) DisableThrottle() {
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	c.retry.backoff = noBackoff
}

func (c *WikipediaClient) DisableBackoff() { c.retry.backoff = noBackoff }

func (c *WAQIClient) DisableBackoff() { c.retry.backoff = noBackoff }

func (c *WAQIClient) SetClock(now func() time.Time) { c.now = now }

func (s *Service) SetClock(now func() time.Time) { s.now = now }

package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"
)

const (
	httpTimeout = 10 * time.Second

	retryAttempts = 2
	retryTimeout  = 8 * time.Second
)

// newHTTPClient returns an http.Client with a 10-second timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.Status)
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, rawURL string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", redact(rawURL), err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", redact(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: redact(rawURL), Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", redact(rawURL), err)
	}

	return nil
}

// retrier wraps doGet with a per-attempt timeout and exponential backoff.
// Attempt n (1-based) that fails waits 2^n seconds before the next one; the
// last attempt's error is returned as is. Client errors other than 429 are
// final and returned after the first attempt.
type retrier struct {
	attempts int
	timeout  time.Duration
	backoff  func(attempt int) time.Duration
}

func defaultRetrier() retrier {
	return retrier{
		attempts: retryAttempts,
		timeout:  retryTimeout,
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
	}
}

func (r retrier) get(ctx context.Context, client *http.Client, rawURL string, header http.Header, dst any) error {
	attempts := max(r.attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = r.once(ctx, client, rawURL, header, dst)
		if err == nil || attempt == attempts || !retryable(err) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}
	return err
}

// retryable reports whether another attempt could succeed: transport errors,
// 5xx and 429 can, any other 4xx cannot.
func retryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return true
	}
	return se.Status == http.StatusTooManyRequests || se.Status < 400 || se.Status >= 500
}

func (r retrier) once(ctx context.Context, client *http.Client, rawURL string, header http.Header, dst any) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return doGet(ctx, client, rawURL, header, dst)
}

var secretParams = []string{"apikey", "apiKey", "token", "key"}

// redact masks credentials carried in query parameters so URLs can be logged.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "xxx")
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

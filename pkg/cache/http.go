package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FromResponse builds an entry from a 200 response. The body is read and
// restored so the caller can still decode it.
func FromResponse(resp *http.Response, fallbackTTL time.Duration) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	entry := &Entry{
		Body:     body,
		ETag:     resp.Header.Get("ETag"),
		Expires:  ExpiresFrom(resp.Header, now, fallbackTTL),
		StoredAt: now,
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			entry.LastModified = t
		}
	}

	return entry, nil
}

// ExpiresFrom reads the Expires header. Missing or malformed values yield
// now+fallback; a past date yields now (the entry is not stored).
func ExpiresFrom(headers http.Header, now time.Time, fallback time.Duration) time.Time {
	value := headers.Get("Expires")
	if value == "" {
		return now.Add(fallback)
	}

	expires, err := http.ParseTime(value)
	if err != nil {
		return now.Add(fallback)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// AddConditionalHeaders sets If-None-Match, or If-Modified-Since when no
// ETag is known.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if req == nil || !entry.Revalidatable() {
		return
	}

	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else {
		req.Header.Set("If-Modified-Since", entry.LastModified.UTC().Format(http.TimeFormat))
	}
}

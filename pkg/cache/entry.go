package cache

import (
	"time"
)

// Entry is a cached document body with its validators.
type Entry struct {
	// Body is the raw JSON document.
	Body []byte `json:"body"`

	// ETag for If-None-Match revalidation.
	ETag string `json:"etag,omitempty"`

	// LastModified for If-Modified-Since revalidation.
	LastModified time.Time `json:"last_modified"`

	// Expires is when the entry stops being served.
	Expires time.Time `json:"expires"`

	// StoredAt is when the body was fetched.
	StoredAt time.Time `json:"stored_at"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration, or 0.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Revalidatable reports whether a conditional request can be made for the entry.
func (e *Entry) Revalidatable() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}

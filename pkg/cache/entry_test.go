package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"expired entry", time.Now().Add(-1 * time.Hour), true},
		{"valid entry", time.Now().Add(1 * time.Hour), false},
		{"zero expiry", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &Entry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_TTL(t *testing.T) {
	entry := &Entry{Expires: time.Now().Add(-time.Minute)}
	if got := entry.TTL(); got != 0 {
		t.Errorf("TTL() of expired entry = %v, want 0", got)
	}

	entry = &Entry{Expires: time.Now().Add(time.Hour)}
	if got := entry.TTL(); got < 59*time.Minute || got > time.Hour {
		t.Errorf("TTL() = %v, want ~1h", got)
	}
}

func TestEntry_Revalidatable(t *testing.T) {
	tests := []struct {
		name  string
		entry *Entry
		want  bool
	}{
		{"nil entry", nil, false},
		{"etag", &Entry{ETag: `"v1"`}, true},
		{"last modified", &Entry{LastModified: time.Now()}, true},
		{"no validators", &Entry{Body: []byte("{}")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Revalidatable(); got != tt.want {
				t.Errorf("Revalidatable() = %v, want %v", got, tt.want)
			}
		})
	}
}

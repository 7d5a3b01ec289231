package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	store := NewStore(client, 0)
	if store.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want default %v", store.TTL(), DefaultTTL)
	}

	store = NewStore(client, 5*time.Minute)
	if store.TTL() != 5*time.Minute {
		t.Errorf("TTL() = %v, want 5m", store.TTL())
	}
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil redis client")
		}
	}()
	NewStore(nil, time.Minute)
}

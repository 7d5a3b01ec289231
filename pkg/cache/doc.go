// Package cache stores single-document lookups from the SCJN service in Redis.
//
// Only GET /tesis/{id} responses are cached. Search pages are never cached:
// result sets change as new theses are published and a stale page would
// silently corrupt a pagination run.
//
// # Basic Usage
//
//	store := cache.NewStore(redisClient, cache.DefaultTTL)
//
//	key := cache.Key{Path: "/tesis/2031234", Query: url.Values{"hostName": {host}}}
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from SCJN, then:
//		entry, _ = cache.FromResponse(resp, store.TTL())
//		_ = store.Put(ctx, key, entry)
//	}
//
// Entries carrying an ETag or Last-Modified can be revalidated with
// AddConditionalHeaders; a 304 answer extends the entry via Refresh.
//
// # Metrics
//
//   - scjn_cache_hits_total
//   - scjn_cache_misses_total
//   - scjn_cache_stored_bytes
//   - scjn_cache_not_modified_total
//   - scjn_cache_errors_total{operation}
package cache

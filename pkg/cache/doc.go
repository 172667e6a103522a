// Package cache provides a Redis-backed response cache for external
// lookups: page-speed measurement responses and green-hosting checks.
//
// Both upstream services meter requests (the measurement API by daily
// quota, the hosting registry by courtesy limits), so repeat audits of the
// same targets are served from cache within a configured TTL instead of
// re-spending quota.
//
// Keys are deterministic strings derived from the service name, the target
// and a variant discriminator (for example the measurement strategy), so
// any process sharing the Redis instance shares the cache.
//
// Example usage:
//
//	manager := cache.NewManager(redisClient)
//	entry, err := manager.Get(ctx, cache.Key{Service: "psi", Target: url, Variant: "mobile"})
//	if err == cache.ErrCacheMiss {
//		// fetch and manager.Set(...)
//	}
package cache

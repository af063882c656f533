// Package cache stores raw upstream response bodies keyed by request URL,
// so repeated page loads do not spend the upstream rate limit.
//
// [Memory] is a bounded in-process LRU with per-entry expiry. [Redis]
// shares entries between service instances through a Redis server.
// Both satisfy [Store].
package cache

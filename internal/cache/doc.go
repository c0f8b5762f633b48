// Package cache holds decompressed chunks in memory.
//
// Entries are keyed by the physical location of the compressed payload, so a
// rewritten chunk (which always receives a new location) can never be served
// from a stale entry. Callers still remove the old key on commit to return
// its memory promptly.
//
// Memory is bounded by the cache capacity and, when a resource.Controller is
// supplied, by the controller's shared limit.
package cache

// Package cache stores synthesised announcement audio in two tiers: an
// in-memory LRU (L1) and a zstd-compressed disk store (L2) that survives
// restarts, so fixed phrases are synthesised once per voice and rate.
package cache

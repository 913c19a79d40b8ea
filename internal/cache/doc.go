// Package cache implements the bounded, disk-backed content cache. It is
// assembled from three small parts: a pure Addresser that maps identifiers
// to digest-based file names, a flat-directory blob Store with safe write
// semantics (temp file + rename), and an in-memory RecencyIndex that tracks
// usage order explicitly instead of relying on file mtimes. The Cache facade
// keeps index and store in lockstep, evicts the least recently used entry
// before admitting a new one, and collapses concurrent fetches for the same
// identifier into a single in-flight request.
package cache

package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Entry is the in-memory pointer to a record's location in data.db. It is
// deliberately minimal: a single data file means there is no segment ID to
// track, and reads verify freshness through the index map itself rather
// than a stored timestamp — the last Put for a key always wins because Put
// overwrites the map entry in place.
type Entry struct {
	// Offset is the byte position in data.db where the record begins.
	Offset int64
	// Length is the total encoded size of the record (key header + key +
	// value header + value), enough to read it back in one call.
	Length int
}

// Index is the in-memory hash table mapping keys to their location in
// data.db. All keys live in memory; values stay on disk, following the
// Bitcask design spec.md §3 describes.
type Index struct {
	mu      sync.RWMutex
	entries map[string]Entry
	log     *zap.SugaredLogger
	closed  atomic.Bool
}

// Config carries the dependencies Index needs at construction time.
type Config struct {
	Logger *zap.SugaredLogger
}

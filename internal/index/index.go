// Package index provides the in-memory hash table mapping keys to their
// on-disk location, the core Bitcask structure spec.md §4.2 describes. All
// keys are kept in memory; only metadata (offset, length) is stored per key,
// so the index's memory footprint stays small relative to the data file.
package index

import (
	stdErrors "errors"
	"sort"

	"github.com/ignitekv/ignite/pkg/errors"
)

// ErrIndexClosed is returned by any operation attempted after Close.
var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates an empty Index ready for concurrent use.
func New(config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		entries: make(map[string]Entry, 2048),
	}, nil
}

// Put records (or overwrites) the location of key. The newest Put for a key
// always wins since it replaces the map entry directly — there is no
// timestamp comparison to make.
func (idx *Index) Put(key string, e Entry) error {
	if idx.closed.Load() {
		return ErrIndexClosed
	}

	idx.mu.Lock()
	idx.entries[key] = e
	idx.mu.Unlock()
	return nil
}

// Get returns the location of key and whether it is present.
func (idx *Index) Get(key string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[key]
	return e, ok
}

// Delete removes key from the index, returning whether it had been present.
func (idx *Index) Delete(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.entries[key]; !ok {
		return false
	}
	delete(idx.entries, key)
	return true
}

// Len returns the number of keys currently tracked.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Range returns every key in [start, end] (inclusive, lexicographic on raw
// bytes) in ascending order, along with its Entry, satisfying spec.md
// §4.6's range-read contract.
func (idx *Index) Range(start, end string) []KeyEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []KeyEntry
	for k, e := range idx.entries {
		if k >= start && k <= end {
			out = append(out, KeyEntry{Key: k, Entry: e})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Snapshot returns a point-in-time copy of every key and its Entry, used by
// the checkpointer (under the caller's exclusive lock) and the compactor
// (under the caller's shared lock). It takes only the index's own read lock
// while copying; consistency with the data file comes from the caller's
// lock.
func (idx *Index) Snapshot() []KeyEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]KeyEntry, 0, len(idx.entries))
	for k, e := range idx.entries {
		out = append(out, KeyEntry{Key: k, Entry: e})
	}
	return out
}

// Load replaces the index's contents wholesale, used when restoring from a
// snapshot file or rebuilding after compaction.
func (idx *Index) Load(entries []KeyEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = make(map[string]Entry, len(entries))
	for _, ke := range entries {
		idx.entries[ke.Key] = ke.Entry
	}
}

// KeyEntry pairs a key with its Entry, used wherever the index needs to
// return more than a single lookup result.
type KeyEntry struct {
	Key   string
	Entry Entry
}

// Close releases the index's memory. Subsequent operations return
// ErrIndexClosed.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()
	clear(idx.entries)
	idx.entries = nil

	return nil
}

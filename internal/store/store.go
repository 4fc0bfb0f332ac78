package store

import (
	stdErrors "errors"
	"fmt"
	"path/filepath"

	"github.com/ignitekv/ignite/internal/datafile"
	"github.com/ignitekv/ignite/internal/dirlock"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/rwlock"
	"github.com/ignitekv/ignite/internal/wal"
	"github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/filesys"
	"github.com/ignitekv/ignite/pkg/options"
)

// ErrStoreClosed is returned by any operation attempted after Close.
var ErrStoreClosed = stdErrors.New("operation failed: cannot access closed store")

// New opens (or creates) the store at config.Options.DataDir: it acquires
// the directory lock, opens the WAL and data file, restores the index
// snapshot if one exists, replays any WAL entries written since, and
// returns a Store ready for use.
func New(config *Config) (*Store, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "store configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	opts := config.Options
	log := config.Logger

	if err := filesys.CreateDir(opts.DataDir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, opts.DataDir)
	}

	dl, err := dirlock.Acquire(opts.DataDir, log)
	if err != nil {
		return nil, err
	}

	idx, err := index.New(&index.Config{Logger: log})
	if err != nil {
		dl.Close()
		return nil, err
	}
	if err := idx.LoadSnapshot(filepath.Join(opts.DataDir, IndexFileName)); err != nil {
		dl.Close()
		return nil, err
	}

	df, err := datafile.Open(filepath.Join(opts.DataDir, DataFileName), log)
	if err != nil {
		dl.Close()
		return nil, err
	}

	w, err := wal.Open(filepath.Join(opts.DataDir, WALFileName), log)
	if err != nil {
		df.Close()
		dl.Close()
		return nil, err
	}

	replicator := config.Replicator
	if replicator == nil {
		replicator = noopReplicator{}
	}

	s := &Store{
		options:    opts,
		log:        log,
		dirLock:    dl,
		data:       df,
		wal:        w,
		index:      idx,
		lock:       rwlock.New(),
		replicator: replicator,
	}

	if err := s.recover(); err != nil {
		s.Close()
		return nil, err
	}

	log.Infow("store opened", "dataDir", opts.DataDir, "keys", idx.Len())
	return s, nil
}

// Put writes key/value following the two-phase protocol spec.md §4.6
// describes: WAL append under the WAL's own mutex, then data-file append
// and index update under the exclusive lock, then a non-blocking
// replication enqueue.
func (s *Store) Put(key, value []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	if err := s.wal.LogPut(key, value, nowMicros()); err != nil {
		return err
	}

	s.lock.AcquireExclusive()
	offset, length, err := s.data.Append(key, value)
	if err != nil {
		s.lock.ReleaseExclusive()
		return err
	}
	s.index.Put(string(key), index.Entry{Offset: offset, Length: length})
	s.lock.ReleaseExclusive()

	s.replicator.EnqueuePut(key, value)
	return nil
}

// BatchPut writes every (key, value) pair as a single WAL burst (one entry
// per pair) followed by a single exclusive-lock append+index run, and a
// single replication op, per spec.md §4.6.
func (s *Store) BatchPut(keys, values [][]byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if len(keys) != len(values) {
		return errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "batch_put key/value count mismatch",
		).WithField("keys,values").WithRule("equal_length").
			WithProvided(fmt.Sprintf("%d keys, %d values", len(keys), len(values)))
	}

	ts := nowMicros()
	for i := range keys {
		if err := s.wal.LogPut(keys[i], values[i], ts); err != nil {
			return err
		}
	}

	s.lock.AcquireExclusive()
	for i := range keys {
		offset, length, err := s.data.Append(keys[i], values[i])
		if err != nil {
			s.lock.ReleaseExclusive()
			return err
		}
		s.index.Put(string(keys[i]), index.Entry{Offset: offset, Length: length})
	}
	s.lock.ReleaseExclusive()

	s.replicator.EnqueueBatchPut(keys, values)
	return nil
}

// Read returns the current value for key, following the shared-lock
// protocol of spec.md §4.6: index lookup, read the record at its offset,
// verify the stored key matches, return absent on any miss or mismatch.
func (s *Store) Read(key []byte) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrStoreClosed
	}

	s.lock.AcquireShared()
	defer s.lock.ReleaseShared()

	entry, ok := s.index.Get(string(key))
	if !ok {
		return nil, false, nil
	}

	value, ok, err := s.data.Read(entry.Offset, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Range returns every live key in [start, end] (inclusive) with its current
// value, per spec.md §4.6. A record whose stored key does not match the
// index's key for that offset is skipped rather than surfaced as an error.
func (s *Store) Range(start, end []byte) (map[string][]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	s.lock.AcquireShared()
	defer s.lock.ReleaseShared()

	slice := s.index.Range(string(start), string(end))
	out := make(map[string][]byte, len(slice))
	for _, ke := range slice {
		value, ok, err := s.data.Read(ke.Entry.Offset, []byte(ke.Key))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out[ke.Key] = value
	}
	return out, nil
}

// Delete removes key, following the mandatory re-check race described in
// spec.md §4.6: a first shared-lock presence check, a WAL entry, then a
// second presence check under the exclusive lock immediately before the
// index mutation, because another goroutine may have deleted the key in
// the window between the two checks.
func (s *Store) Delete(key []byte) (bool, error) {
	if s.closed.Load() {
		return false, ErrStoreClosed
	}

	s.lock.AcquireShared()
	_, present := s.index.Get(string(key))
	s.lock.ReleaseShared()
	if !present {
		return false, nil
	}

	if err := s.wal.LogDelete(key, nowMicros()); err != nil {
		return false, err
	}

	s.lock.AcquireExclusive()
	existed := s.index.Delete(string(key))
	s.lock.ReleaseExclusive()

	if !existed {
		return false, nil
	}

	s.replicator.EnqueueDelete(key)
	return true, nil
}

// Checkpoint snapshots the index to index.db under the exclusive lock,
// then truncates the WAL under its own mutex. This ordering — snapshot
// first, truncate second — is load-bearing (I4): if the process dies
// between the two steps, recovery replays a WAL that is a harmless
// superset of what the snapshot already captured.
func (s *Store) Checkpoint() error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.checkpoint()
}

// checkpoint performs the snapshot-then-truncate sequence without the
// closed-state guard, so Close can run one final checkpoint after it has
// already flipped the closed flag.
func (s *Store) checkpoint() error {
	s.lock.AcquireExclusive()
	err := s.index.SaveSnapshot(filepath.Join(s.options.DataDir, IndexFileName))
	s.lock.ReleaseExclusive()
	if err != nil {
		return err
	}

	return s.wal.Truncate()
}

// DataFile, WAL, Index, and Lock expose the store's subsystems to the
// checkpointer and compactor, which run as separate goroutines coordinated
// by the same Store instance.
func (s *Store) DataFile() *datafile.DataFile { return s.data }
func (s *Store) WAL() *wal.WAL                { return s.wal }
func (s *Store) Index() *index.Index          { return s.index }
func (s *Store) Lock() *rwlock.RWLock         { return s.lock }
func (s *Store) DataDir() string              { return s.options.DataDir }
func (s *Store) Options() *options.Options    { return s.options }

// SwapDataFile replaces the store's active data file, used by the
// compactor's reconcile-and-swap phase (spec.md §4.8). The caller must
// already hold s.Lock() exclusively.
func (s *Store) SwapDataFile(df *datafile.DataFile) {
	s.data = df
}

// Close flushes a final checkpoint, then releases the WAL, data file,
// index, and directory lock in turn. Idempotent: a second Close returns
// ErrStoreClosed rather than double-releasing resources.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStoreClosed
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.wal != nil {
		record(s.checkpoint())
	}
	if s.wal != nil {
		record(s.wal.Close())
	}
	if s.data != nil {
		record(s.data.Close())
	}
	if s.index != nil {
		record(s.index.Close())
	}
	if s.dirLock != nil {
		record(s.dirLock.Close())
	}

	s.log.Infow("store closed", "dataDir", s.options.DataDir)
	return firstErr
}

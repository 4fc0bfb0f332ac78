// Package store implements the coordinator described in spec.md §4.6: the
// put/batch_put/read/range/delete operations, the two-phase WAL-then-data
// mutation protocol, and startup recovery. It is grounded on the teacher's
// internal/engine.Engine (dependency-injected Config, atomic closed flag,
// structured logger) generalized from segment-rotating storage to the
// spec's single data-file model.
package store

import (
	"sync/atomic"
	"time"

	"github.com/ignitekv/ignite/internal/datafile"
	"github.com/ignitekv/ignite/internal/dirlock"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/rwlock"
	"github.com/ignitekv/ignite/internal/wal"
	"github.com/ignitekv/ignite/pkg/options"
	"go.uber.org/zap"
)

// DataFileName, WALFileName, and IndexFileName are the fixed on-disk names
// spec.md §6's layout table specifies.
const (
	DataFileName  = "data.db"
	WALFileName   = "wal.log"
	IndexFileName = "index.db"
)

// Replicator is the store's view of the replication pipeline: enough to
// enqueue an op without the store importing internal/replication directly
// (which itself may need to reach back into store for dispatch helpers).
type Replicator interface {
	EnqueuePut(key, value []byte)
	EnqueueDelete(key []byte)
	EnqueueBatchPut(keys, values [][]byte)
}

// noopReplicator is used when replication is disabled.
type noopReplicator struct{}

func (noopReplicator) EnqueuePut(key, value []byte)          {}
func (noopReplicator) EnqueueDelete(key []byte)               {}
func (noopReplicator) EnqueueBatchPut(keys, values [][]byte) {}

// Store is the central coordinator for a single IgniteKV data directory. It
// owns the WAL, the data file, the in-memory index, the directory lock, and
// the process-local shared-exclusive lock guarding data file + index
// mutation, and exposes the put/read/delete/range/batch surface spec.md
// §4.6 specifies.
type Store struct {
	options *options.Options
	log     *zap.SugaredLogger

	closed atomic.Bool

	dirLock *dirlock.DirLock
	data    *datafile.DataFile
	wal     *wal.WAL
	index   *index.Index
	lock    *rwlock.RWLock

	replicator Replicator
}

// Config carries the dependencies Store needs at construction time.
type Config struct {
	Options    *options.Options
	Logger     *zap.SugaredLogger
	Replicator Replicator // nil is treated as a no-op.
}

func nowMicros() int64 {
	return time.Now().UnixMicro()
}

// Package options provides data structures and functions for configuring
// IgniteKV. It defines every tunable that controls storage durability,
// checkpointing, compaction, and replication behavior, following the
// functional-options pattern: a zero-value Options is never used directly,
// callers build one with New(WithX(...), WithY(...)).
package options

import (
	"strings"
	"time"
)

// ReplicationMode selects how the replication pipeline dispatches mutations
// to followers.
type ReplicationMode string

const (
	// ReplicationModeAsync enqueues mutations onto a bounded worker queue and
	// returns to the caller without waiting for followers to acknowledge.
	ReplicationModeAsync ReplicationMode = "async"

	// ReplicationModeSync dispatches to every follower inline, on the calling
	// goroutine, before the mutation is considered complete.
	ReplicationModeSync ReplicationMode = "sync"
)

// ReplicaAddress identifies a single follower endpoint.
type ReplicaAddress struct {
	Host string
	Port int
}

// Options holds the full configuration surface for an IgniteKV store: the
// data directory, background maintenance schedules, and replication
// settings. Build one with New and a list of OptionFuncs.
type Options struct {
	// Base directory holding wal.log, data.db, index.db, and .lock.
	//
	// Default: "/var/lib/ignitekv"
	DataDir string `json:"dataDir"`

	// Period between background index snapshots (checkpoints).
	//
	// Default: 10s
	CheckpointInterval time.Duration `json:"checkpointInterval"`

	// Enables the background compactor on this node. Followers normally
	// leave this on too; nothing in the design restricts it to primaries.
	//
	// Default: true
	CompactionEnabled bool `json:"compactionEnabled"`

	// Period between compaction should-run checks.
	//
	// Default: 30m
	CompactionInterval time.Duration `json:"compactionInterval"`

	// Fraction of dead bytes in the data file that triggers a compaction
	// pass once CompactionMinFileSize is exceeded.
	//
	// Default: 0.3
	CompactionThreshold float64 `json:"compactionThreshold"`

	// Data files below this size are never compacted, regardless of dead
	// ratio — avoids rewriting a nearly-empty file for no benefit.
	//
	// Default: 4MB
	CompactionMinFileSize int64 `json:"compactionMinFileSize"`

	// Enables the replication pipeline. When false, mutations are never
	// dispatched to followers and ReplicaAddresses is ignored.
	//
	// Default: false
	ReplicationEnabled bool `json:"replicationEnabled"`

	// Selects async (queued, non-blocking) or sync (inline) dispatch.
	//
	// Default: ReplicationModeAsync
	ReplicationMode ReplicationMode `json:"replicationMode"`

	// Follower endpoints this node replicates to. Only meaningful on a
	// primary with ReplicationEnabled set.
	//
	// Default: empty
	ReplicaAddresses []ReplicaAddress `json:"replicaAddresses"`

	// Per-operation retry budget when every follower dispatch fails.
	//
	// Default: 3
	ReplicationMaxRetries int `json:"replicationMaxRetries"`

	// Capacity of the bounded async replication queue. Once full, new
	// enqueues (and re-enqueues) are dropped and counted.
	//
	// Default: 10000
	ReplicationQueueSize int `json:"replicationQueueSize"`

	// Consecutive dispatch failures against one follower before it is
	// marked unhealthy.
	//
	// Default: 3
	ReplicationMaxFailures int `json:"replicationMaxFailures"`

	// Per-attempt TCP deadline when dispatching to a follower.
	//
	// Default: 5s
	ReplicationTimeout time.Duration `json:"replicationTimeout"`

	// True when this node is running as a replication follower: it accepts
	// REPLICATE commands and rejects ordinary mutating commands from
	// clients other than the primary.
	//
	// Default: false
	FollowerMode bool `json:"followerMode"`
}

// OptionFunc mutates an Options value during construction.
type OptionFunc func(*Options)

// New builds an Options value starting from the defaults and applying every
// supplied OptionFunc in order, so later options win over earlier ones.
func New(opts ...OptionFunc) *Options {
	o := NewDefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &o
}

// WithDefaultOptions resets every field to its documented default. Useful as
// the first entry in an options list when a caller wants to start clean.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the directory that holds wal.log, data.db, index.db, and
// .lock.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithCheckpointInterval sets the period between background index snapshots.
func WithCheckpointInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CheckpointInterval = interval
		}
	}
}

// WithCompactionEnabled toggles the background compactor.
func WithCompactionEnabled(enabled bool) OptionFunc {
	return func(o *Options) {
		o.CompactionEnabled = enabled
	}
}

// WithCompactionInterval sets the period between compaction should-run
// checks.
func WithCompactionInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactionInterval = interval
		}
	}
}

// WithCompactionThreshold sets the dead-byte fraction that triggers
// compaction. Values outside (0, 1] are ignored.
func WithCompactionThreshold(threshold float64) OptionFunc {
	return func(o *Options) {
		if threshold > 0 && threshold <= 1 {
			o.CompactionThreshold = threshold
		}
	}
}

// WithCompactionMinFileSize sets the minimum data file size eligible for
// compaction.
func WithCompactionMinFileSize(size int64) OptionFunc {
	return func(o *Options) {
		if size >= 0 {
			o.CompactionMinFileSize = size
		}
	}
}

// WithReplicationEnabled toggles the replication pipeline.
func WithReplicationEnabled(enabled bool) OptionFunc {
	return func(o *Options) {
		o.ReplicationEnabled = enabled
	}
}

// WithReplicationMode selects async or sync dispatch. Unrecognized values
// are ignored.
func WithReplicationMode(mode ReplicationMode) OptionFunc {
	return func(o *Options) {
		if mode == ReplicationModeAsync || mode == ReplicationModeSync {
			o.ReplicationMode = mode
		}
	}
}

// WithReplicaAddresses sets the follower endpoints this node replicates to.
func WithReplicaAddresses(addresses ...ReplicaAddress) OptionFunc {
	return func(o *Options) {
		o.ReplicaAddresses = addresses
	}
}

// WithReplicationMaxRetries sets the per-op retry budget on total dispatch
// failure.
func WithReplicationMaxRetries(retries int) OptionFunc {
	return func(o *Options) {
		if retries >= 0 {
			o.ReplicationMaxRetries = retries
		}
	}
}

// WithReplicationQueueSize sets the bounded async replication queue's
// capacity.
func WithReplicationQueueSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.ReplicationQueueSize = size
		}
	}
}

// WithReplicationMaxFailures sets the consecutive-failure threshold that
// marks a follower unhealthy.
func WithReplicationMaxFailures(failures int) OptionFunc {
	return func(o *Options) {
		if failures > 0 {
			o.ReplicationMaxFailures = failures
		}
	}
}

// WithReplicationTimeout sets the per-attempt TCP deadline used when
// dispatching to a follower.
func WithReplicationTimeout(timeout time.Duration) OptionFunc {
	return func(o *Options) {
		if timeout > 0 {
			o.ReplicationTimeout = timeout
		}
	}
}

// WithFollowerMode marks this node as a replication follower, accepting
// REPLICATE commands from a primary.
func WithFollowerMode(follower bool) OptionFunc {
	return func(o *Options) {
		o.FollowerMode = follower
	}
}

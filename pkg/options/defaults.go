package options

import "time"

const (
	// Default base directory where IgniteKV stores wal.log, data.db,
	// index.db, and .lock.
	DefaultDataDir = "/var/lib/ignitekv"

	// Default period between background index snapshots.
	DefaultCheckpointInterval = 10 * time.Second

	// Default for whether the background compactor runs.
	DefaultCompactionEnabled = true

	// Default period between compaction should-run checks.
	DefaultCompactionInterval = 30 * time.Minute

	// Default dead-byte fraction that triggers compaction.
	DefaultCompactionThreshold = 0.3

	// Default minimum data file size eligible for compaction (4MB) — below
	// this, a compaction pass would not reclaim enough to be worth the
	// rewrite.
	DefaultCompactionMinFileSize int64 = 4 * 1024 * 1024

	// Default for whether the replication pipeline is active.
	DefaultReplicationEnabled = false

	// Default dispatch mode when replication is enabled.
	DefaultReplicationMode = ReplicationModeAsync

	// Default per-op retry budget on total dispatch failure.
	DefaultReplicationMaxRetries = 3

	// Default bounded async replication queue capacity.
	DefaultReplicationQueueSize = 10_000

	// Default consecutive-failure threshold marking a follower unhealthy.
	DefaultReplicationMaxFailures = 3

	// Default per-attempt TCP deadline for follower dispatch.
	DefaultReplicationTimeout = 5 * time.Second

	// Default follower-mode flag.
	DefaultFollowerMode = false
)

// NewDefaultOptions returns an Options value populated entirely with the
// documented defaults. OptionFuncs layer on top of this starting point.
func NewDefaultOptions() Options {
	return Options{
		DataDir:                DefaultDataDir,
		CheckpointInterval:     DefaultCheckpointInterval,
		CompactionEnabled:      DefaultCompactionEnabled,
		CompactionInterval:     DefaultCompactionInterval,
		CompactionThreshold:    DefaultCompactionThreshold,
		CompactionMinFileSize:  DefaultCompactionMinFileSize,
		ReplicationEnabled:     DefaultReplicationEnabled,
		ReplicationMode:        DefaultReplicationMode,
		ReplicaAddresses:       nil,
		ReplicationMaxRetries:  DefaultReplicationMaxRetries,
		ReplicationQueueSize:   DefaultReplicationQueueSize,
		ReplicationMaxFailures: DefaultReplicationMaxFailures,
		ReplicationTimeout:     DefaultReplicationTimeout,
		FollowerMode:           DefaultFollowerMode,
	}
}

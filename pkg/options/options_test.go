package options

import (
	"testing"
	"time"
)

func TestNewDefaultOptions(t *testing.T) {
	o := New()

	if o.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", o.DataDir, DefaultDataDir)
	}
	if o.CheckpointInterval != DefaultCheckpointInterval {
		t.Errorf("CheckpointInterval = %v, want %v", o.CheckpointInterval, DefaultCheckpointInterval)
	}
	if !o.CompactionEnabled {
		t.Error("CompactionEnabled should default to true")
	}
	if o.ReplicationEnabled {
		t.Error("ReplicationEnabled should default to false")
	}
	if o.ReplicationMode != ReplicationModeAsync {
		t.Errorf("ReplicationMode = %q, want %q", o.ReplicationMode, ReplicationModeAsync)
	}
	if len(o.ReplicaAddresses) != 0 {
		t.Errorf("ReplicaAddresses should default empty, got %v", o.ReplicaAddresses)
	}
}

func TestWithDataDir_IgnoresBlank(t *testing.T) {
	o := New(WithDataDir("  "))
	if o.DataDir != DefaultDataDir {
		t.Errorf("blank directory should be ignored, got %q", o.DataDir)
	}

	o = New(WithDataDir("/tmp/ignitekv"))
	if o.DataDir != "/tmp/ignitekv" {
		t.Errorf("DataDir = %q, want /tmp/ignitekv", o.DataDir)
	}
}

func TestWithCompactionThreshold_RejectsOutOfRange(t *testing.T) {
	o := New(WithCompactionThreshold(0))
	if o.CompactionThreshold != DefaultCompactionThreshold {
		t.Errorf("threshold 0 should be rejected, got %v", o.CompactionThreshold)
	}

	o = New(WithCompactionThreshold(1.5))
	if o.CompactionThreshold != DefaultCompactionThreshold {
		t.Errorf("threshold > 1 should be rejected, got %v", o.CompactionThreshold)
	}

	o = New(WithCompactionThreshold(0.5))
	if o.CompactionThreshold != 0.5 {
		t.Errorf("threshold = %v, want 0.5", o.CompactionThreshold)
	}
}

func TestWithReplicationMode_IgnoresUnknown(t *testing.T) {
	o := New(WithReplicationMode("bogus"))
	if o.ReplicationMode != DefaultReplicationMode {
		t.Errorf("unknown mode should be ignored, got %q", o.ReplicationMode)
	}

	o = New(WithReplicationMode(ReplicationModeSync))
	if o.ReplicationMode != ReplicationModeSync {
		t.Errorf("ReplicationMode = %q, want sync", o.ReplicationMode)
	}
}

func TestWithReplicaAddresses(t *testing.T) {
	addrs := []ReplicaAddress{{Host: "10.0.0.1", Port: 6380}, {Host: "10.0.0.2", Port: 6380}}
	o := New(WithReplicaAddresses(addrs...))

	if len(o.ReplicaAddresses) != 2 {
		t.Fatalf("want 2 replica addresses, got %d", len(o.ReplicaAddresses))
	}
	if o.ReplicaAddresses[0] != addrs[0] {
		t.Errorf("ReplicaAddresses[0] = %v, want %v", o.ReplicaAddresses[0], addrs[0])
	}
}

func TestOptionFuncs_LaterWins(t *testing.T) {
	o := New(
		WithCheckpointInterval(time.Second),
		WithCheckpointInterval(5*time.Second),
	)

	if o.CheckpointInterval != 5*time.Second {
		t.Errorf("CheckpointInterval = %v, want 5s", o.CheckpointInterval)
	}
}

func TestWithFollowerMode(t *testing.T) {
	o := New(WithFollowerMode(true))
	if !o.FollowerMode {
		t.Error("FollowerMode should be true")
	}
}

package replica

import (
	"testing"

	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
)

func TestRegistry_StartsHealthy(t *testing.T) {
	r := NewRegistry([]options.ReplicaAddress{{Host: "a", Port: 1}}, 3, logger.NewNop())
	s, ok := r.Get("a", 1)
	if !ok || !s.IsHealthy {
		t.Fatalf("got (%+v, %v), want healthy", s, ok)
	}
}

func TestRegistry_FlipsUnhealthyAtMaxFailures(t *testing.T) {
	r := NewRegistry([]options.ReplicaAddress{{Host: "a", Port: 1}}, 3, logger.NewNop())

	r.RecordFailure("a", 1)
	r.RecordFailure("a", 1)
	if s, _ := r.Get("a", 1); !s.IsHealthy {
		t.Fatalf("expected still healthy after 2 failures, got %+v", s)
	}

	r.RecordFailure("a", 1)
	s, _ := r.Get("a", 1)
	if s.IsHealthy {
		t.Fatalf("expected unhealthy after 3 failures, got %+v", s)
	}
	if s.ConsecutiveFailures != 3 {
		t.Errorf("ConsecutiveFailures = %d, want 3", s.ConsecutiveFailures)
	}
}

func TestRegistry_SuccessResetsAndHeals(t *testing.T) {
	r := NewRegistry([]options.ReplicaAddress{{Host: "a", Port: 1}}, 2, logger.NewNop())
	r.RecordFailure("a", 1)
	r.RecordFailure("a", 1)

	r.RecordSuccess("a", 1)
	s, _ := r.Get("a", 1)
	if !s.IsHealthy || s.ConsecutiveFailures != 0 {
		t.Fatalf("got %+v, want healthy with 0 consecutive failures", s)
	}
}

func TestRegistry_HealthyFiltersUnhealthy(t *testing.T) {
	r := NewRegistry([]options.ReplicaAddress{
		{Host: "a", Port: 1},
		{Host: "b", Port: 2},
	}, 1, logger.NewNop())

	r.RecordFailure("b", 2)

	healthy := r.Healthy()
	if len(healthy) != 1 || healthy[0].Host != "a" {
		t.Fatalf("Healthy() = %+v, want only a:1", healthy)
	}
}

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry(nil, 3, logger.NewNop())
	r.Add("x", 9)
	if _, ok := r.Get("x", 9); !ok {
		t.Fatal("expected x:9 to be tracked after Add")
	}
	r.Remove("x", 9)
	if _, ok := r.Get("x", 9); ok {
		t.Fatal("expected x:9 to be gone after Remove")
	}
}

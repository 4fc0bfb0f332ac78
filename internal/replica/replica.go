// Package replica tracks the health of each configured replica endpoint:
// last success/failure timestamps, consecutive failure count, and a derived
// is_healthy flag, per spec.md §4.9. Grounded on Jipok-go-persist's use of
// github.com/puzpuzpuz/xsync/v3.Map as a lock-free concurrent registry
// (map.go's PersistMap.data/dirty fields), adopted here in place of a
// mutex-guarded map since endpoints are added/looked-up far more often
// than the set of endpoints itself changes.
package replica

import (
	"fmt"
	"time"

	"github.com/ignitekv/ignite/pkg/options"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Status is a point-in-time snapshot of one replica endpoint's health.
type Status struct {
	Host                string
	Port                int
	IsHealthy           bool
	LastSuccess         time.Time
	LastFailure         time.Time
	ConsecutiveFailures int
}

func key(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// state is the mutable record kept per endpoint. Replaced wholesale on each
// update via xsync.Map.Store rather than mutated in place, so readers via
// Range/Get always observe a consistent snapshot.
type state struct {
	host                string
	port                int
	isHealthy           bool
	lastSuccess         time.Time
	lastFailure         time.Time
	consecutiveFailures int
}

// Registry tracks health for a set of replica endpoints, seeded at
// construction and changed with Add and Remove.
type Registry struct {
	endpoints   *xsync.Map
	maxFailures int
	log         *zap.SugaredLogger
	stop        chan struct{}
}

// NewRegistry builds a Registry seeded with every address in addrs, all
// initially marked healthy (an endpoint is only marked unhealthy after it
// has actually failed to respond).
func NewRegistry(addrs []options.ReplicaAddress, maxFailures int, log *zap.SugaredLogger) *Registry {
	r := &Registry{
		endpoints:   xsync.NewMap(),
		maxFailures: maxFailures,
		log:         log,
	}
	for _, a := range addrs {
		r.endpoints.Store(key(a.Host, a.Port), &state{
			host:      a.Host,
			port:      a.Port,
			isHealthy: true,
		})
	}
	return r
}

// Add registers a new endpoint, a no-op if already tracked.
func (r *Registry) Add(host string, port int) {
	k := key(host, port)
	if _, ok := r.endpoints.Load(k); ok {
		return
	}
	r.endpoints.Store(k, &state{host: host, port: port, isHealthy: true})
}

// Remove stops tracking an endpoint.
func (r *Registry) Remove(host string, port int) {
	r.endpoints.Delete(key(host, port))
}

// RecordSuccess marks a dispatch success: resets the consecutive-failure
// counter and restores health immediately.
func (r *Registry) RecordSuccess(host string, port int) {
	k := key(host, port)
	s := &state{host: host, port: port, isHealthy: true, lastSuccess: time.Now()}
	if prev, ok := r.endpoints.Load(k); ok {
		old := prev.(*state)
		s.lastFailure = old.lastFailure
	}
	r.endpoints.Store(k, s)
}

// RecordFailure marks a dispatch failure, incrementing the consecutive
// count and marking the endpoint unhealthy once it reaches maxFailures, per
// spec.md §4.9.
func (r *Registry) RecordFailure(host string, port int) {
	k := key(host, port)
	var consecutive int
	var lastSuccess time.Time
	if prev, ok := r.endpoints.Load(k); ok {
		old := prev.(*state)
		consecutive = old.consecutiveFailures
		lastSuccess = old.lastSuccess
	}
	consecutive++

	s := &state{
		host:                host,
		port:                port,
		isHealthy:           consecutive < r.maxFailures,
		lastSuccess:         lastSuccess,
		lastFailure:         time.Now(),
		consecutiveFailures: consecutive,
	}
	r.endpoints.Store(k, s)

	if !s.isHealthy {
		r.log.Warnw("replica marked unhealthy", "host", host, "port", port, "consecutiveFailures", consecutive)
	}
}

// Get returns the current status of one endpoint.
func (r *Registry) Get(host string, port int) (Status, bool) {
	v, ok := r.endpoints.Load(key(host, port))
	if !ok {
		return Status{}, false
	}
	s := v.(*state)
	return toStatus(s), true
}

// All returns the status of every tracked endpoint.
func (r *Registry) All() []Status {
	out := make([]Status, 0)
	r.endpoints.Range(func(_ string, v interface{}) bool {
		out = append(out, toStatus(v.(*state)))
		return true
	})
	return out
}

// Healthy returns every endpoint currently marked is_healthy, the set the
// replication pipeline fans out to.
func (r *Registry) Healthy() []Status {
	out := make([]Status, 0)
	r.endpoints.Range(func(_ string, v interface{}) bool {
		s := v.(*state)
		if s.isHealthy {
			out = append(out, toStatus(s))
		}
		return true
	})
	return out
}

// StartHealthMonitoring launches a background ticker reserved for active
// replica probing. replica_manager.py's own _health_check_loop is a no-op
// ("In a more sophisticated implementation we would actively ping
// replicas"); this keeps that honestly, relying on the replication
// pipeline's passive success/failure reporting until active probing is
// implemented.
func (r *Registry) StartHealthMonitoring(interval time.Duration) {
	r.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				// No active probing; health is derived entirely from
				// RecordSuccess/RecordFailure calls made by the
				// replication pipeline.
			}
		}
	}()
}

// StopHealthMonitoring stops the ticker started by StartHealthMonitoring.
func (r *Registry) StopHealthMonitoring() {
	if r.stop != nil {
		close(r.stop)
	}
}

func toStatus(s *state) Status {
	return Status{
		Host:                s.host,
		Port:                s.port,
		IsHealthy:           s.isHealthy,
		LastSuccess:         s.lastSuccess,
		LastFailure:         s.lastFailure,
		ConsecutiveFailures: s.consecutiveFailures,
	}
}

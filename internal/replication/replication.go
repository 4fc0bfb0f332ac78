// Package replication implements the primary-side replication pipeline of
// spec.md §4.10: a bounded FIFO queue, async worker goroutines or inline
// sync dispatch, per-follower TCP fan-out using the wire protocol of §6,
// and retry-with-requeue. Grounded on
// original_source/kvstore/replication/replicator.py's Replicator
// (enqueue/worker-loop/replicate-to-all/replicate-to-replica shape),
// translated from Python threads+Queue into Go channels+goroutines, and
// from an HTTP transport (ppriyankuu-godkv/internal/cluster/replicator.go,
// consulted for the fan-out/ack-collection shape only) to the project's
// own TCP wire protocol.
package replication

import (
	"bufio"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ignitekv/ignite/internal/protocol"
	"github.com/ignitekv/ignite/internal/replica"
	"github.com/ignitekv/ignite/pkg/metrics"
	"github.com/ignitekv/ignite/pkg/options"
	"go.uber.org/zap"
)

// opKind mirrors ReplicationOperation.op in replicator.py.
type opKind int

const (
	opPut opKind = iota
	opDelete
	opBatchPut
)

type operation struct {
	kind       opKind
	key        []byte
	value      []byte
	keys       [][]byte
	values     [][]byte
	retryCount int
}

// Pipeline dispatches writes to every healthy follower, in async or sync
// mode per options.ReplicationMode.
type Pipeline struct {
	mode        options.ReplicationMode
	maxRetries  int
	timeout     time.Duration
	numWorkers  int
	registry    *replica.Registry
	metrics     *metrics.Replication
	log         *zap.SugaredLogger

	queue   chan operation
	stop    chan struct{}
	workers sync.WaitGroup
}

const defaultWorkerCount = 2

// New builds a Pipeline. Start must be called to launch async workers;
// sync-mode pipelines dispatch inline and do not need Start, but calling
// it is harmless (no workers are spawned in sync mode).
func New(opts *options.Options, registry *replica.Registry, m *metrics.Replication, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		mode:       opts.ReplicationMode,
		maxRetries: opts.ReplicationMaxRetries,
		timeout:    opts.ReplicationTimeout,
		numWorkers: defaultWorkerCount,
		registry:   registry,
		metrics:    m,
		log:        log,
		queue:      make(chan operation, opts.ReplicationQueueSize),
		stop:       make(chan struct{}),
	}
}

// Start launches the async worker pool. A no-op in sync mode.
func (p *Pipeline) Start() {
	if p.mode != options.ReplicationModeAsync {
		return
	}
	for i := 0; i < p.numWorkers; i++ {
		p.workers.Add(1)
		go p.workerLoop()
	}
	p.log.Infow("replication pipeline started", "mode", p.mode, "workers", p.numWorkers)
}

// Stop signals workers to exit and waits for them. The queue is not
// drained: a worker finishes the operation it is dispatching, and
// operations still queued may be abandoned. Stop has no timeout of its own
// (callers are expected to wrap Stop in their own timeout if a hard bound
// is required).
func (p *Pipeline) Stop() {
	close(p.stop)
	p.workers.Wait()
}

// EnqueuePut satisfies store.Replicator.
func (p *Pipeline) EnqueuePut(key, value []byte) {
	p.enqueue(operation{kind: opPut, key: key, value: value})
}

// EnqueueDelete satisfies store.Replicator.
func (p *Pipeline) EnqueueDelete(key []byte) {
	p.enqueue(operation{kind: opDelete, key: key})
}

// EnqueueBatchPut satisfies store.Replicator.
func (p *Pipeline) EnqueueBatchPut(keys, values [][]byte) {
	p.enqueue(operation{kind: opBatchPut, keys: keys, values: values})
}

func (p *Pipeline) enqueue(op operation) {
	p.metrics.Total.Inc()

	if p.mode == options.ReplicationModeSync {
		p.dispatchToAll(op)
		return
	}

	select {
	case p.queue <- op:
		p.metrics.QueueDepth.Set(float64(len(p.queue)))
	default:
		p.metrics.Dropped.Inc()
		p.log.Warnw("replication queue full, dropping operation", "kind", op.kind)
	}
}

func (p *Pipeline) workerLoop() {
	defer p.workers.Done()
	for {
		select {
		case <-p.stop:
			return
		case op := <-p.queue:
			p.metrics.QueueDepth.Set(float64(len(p.queue)))
			p.dispatchToAll(op)
		}
	}
}

// dispatchToAll sends op to every currently-healthy follower, mirroring
// replicator.py's _replicate_to_all: success if at least one follower
// acknowledges, and — in async mode, below max_retries — a failed op is
// re-enqueued with its retry count incremented.
func (p *Pipeline) dispatchToAll(op operation) {
	followers := p.registry.Healthy()
	if len(followers) == 0 {
		p.metrics.Failed.Inc()
		p.maybeRetry(op)
		return
	}

	var wg sync.WaitGroup
	successes := make([]bool, len(followers))
	for i, f := range followers {
		wg.Add(1)
		go func(i int, f replica.Status) {
			defer wg.Done()
			successes[i] = p.dispatchOne(f, op)
		}(i, f)
	}
	wg.Wait()

	successCount := 0
	for _, ok := range successes {
		if ok {
			successCount++
		}
	}

	if successCount > 0 {
		p.metrics.Successful.Inc()
		return
	}

	p.metrics.Failed.Inc()
	p.maybeRetry(op)
}

func (p *Pipeline) maybeRetry(op operation) {
	if p.mode != options.ReplicationModeAsync {
		return
	}
	if op.retryCount >= p.maxRetries {
		return
	}
	op.retryCount++
	select {
	case p.queue <- op:
		p.metrics.QueueDepth.Set(float64(len(p.queue)))
	default:
		p.metrics.Dropped.Inc()
	}
}

func (p *Pipeline) dispatchOne(f replica.Status, op operation) bool {
	addr := net.JoinHostPort(f.Host, strconv.Itoa(f.Port))

	conn, err := net.DialTimeout("tcp", addr, p.timeout)
	if err != nil {
		p.registry.RecordFailure(f.Host, f.Port)
		p.log.Warnw("replication dial failed", "host", f.Host, "port", f.Port, "error", err)
		return false
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(p.timeout))

	line := buildCommand(op)
	if _, err := conn.Write(append(line, '\n')); err != nil {
		p.registry.RecordFailure(f.Host, f.Port)
		return false
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		p.registry.RecordFailure(f.Host, f.Port)
		return false
	}

	if len(reply) >= 2 && reply[0] == 'O' && reply[1] == 'K' {
		p.registry.RecordSuccess(f.Host, f.Port)
		return true
	}

	p.registry.RecordFailure(f.Host, f.Port)
	p.log.Warnw("replica returned non-OK", "host", f.Host, "port", f.Port, "reply", reply)
	return false
}

func buildCommand(op operation) []byte {
	switch op.kind {
	case opPut:
		return protocol.BuildReplicatePut(op.key, op.value)
	case opDelete:
		return protocol.BuildReplicateDelete(op.key)
	case opBatchPut:
		return protocol.BuildReplicateBatchPut(op.keys, op.values)
	default:
		return nil
	}
}

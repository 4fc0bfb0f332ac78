// Package ignite provides a high-performance key/value data store
// designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (KeyDir/Index) with an append-only log
// structure on disk to achieve high throughput. It is designed for applications
// requiring fast read and write operations, such as caching, session management,
// and real-time data processing, aiming to provide a simple, efficient, and
// reliable solution for in-memory data storage in Go applications.
package ignite

import (
	"context"

	"github.com/ignitekv/ignite/internal/checkpoint"
	"github.com/ignitekv/ignite/internal/compaction"
	"github.com/ignitekv/ignite/internal/replica"
	"github.com/ignitekv/ignite/internal/replication"
	"github.com/ignitekv/ignite/internal/store"
	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/metrics"
	"github.com/ignitekv/ignite/pkg/options"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Represents an instance of the Ignite key/value data store.
// It encapsulates the core engine responsible for data handling and
// the configuration options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite store,
// providing methods for setting, getting, and deleting key-value pairs.
type Instance struct {
	store       *store.Store
	options     *options.Options
	log         *zap.SugaredLogger
	checkpoint  *checkpoint.Checkpointer
	compactor   *compaction.Compactor
	replicas    *replica.Registry
	replication *replication.Pipeline
	metrics     *metrics.Replication
}

// Creates and initializes a new Ignite DB instance. The background
// checkpointer always runs; the compactor and replication pipeline run
// when their respective options are enabled. context is accepted for
// parity with the rest of this package's API but opening a store is not
// itself cancellable — io is not proportioned to cancellation mid-open.
func NewInstance(context context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	// Initialize a logger for the given service.
	log := logger.New(service)

	// Initialize default options, then apply any overrides.
	o := options.New(opts...)

	var replicator store.Replicator
	var replicas *replica.Registry
	var pipeline *replication.Pipeline
	var repMetrics *metrics.Replication

	if o.ReplicationEnabled {
		replicas = replica.NewRegistry(o.ReplicaAddresses, o.ReplicationMaxFailures, log)
		repMetrics = metrics.NewReplication(prometheus.NewRegistry())
		pipeline = replication.New(o, replicas, repMetrics, log)
		replicator = pipeline
	}

	s, err := store.New(&store.Config{Options: o, Logger: log, Replicator: replicator})
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		store:       s,
		options:     o,
		log:         log,
		replicas:    replicas,
		replication: pipeline,
		metrics:     repMetrics,
	}

	inst.checkpoint = checkpoint.New(s, o.CheckpointInterval, log)
	inst.checkpoint.Start()

	if o.CompactionEnabled {
		inst.compactor = compaction.New(s, o.CompactionInterval, o.CompactionThreshold, o.CompactionMinFileSize, log)
		inst.compactor.Start()
	}

	if pipeline != nil {
		pipeline.Start()
	}

	return inst, nil
}

// Set stores a key-value pair in the database.
// If the key already exists, its value will be updated.
// The operation is durable and will be written to the append-only log.
func (i *Instance) Set(ctx context.Context, key string, value []byte) error {
	return i.store.Put([]byte(key), value)
}

// SetBatch stores every (key, value) pair as a single atomic-from-the-
// caller's-view batch, per the store coordinator's batch_put protocol.
func (i *Instance) SetBatch(ctx context.Context, keys []string, values [][]byte) error {
	byteKeys := make([][]byte, len(keys))
	for idx, k := range keys {
		byteKeys[idx] = []byte(k)
	}
	return i.store.BatchPut(byteKeys, values)
}

// Get retrieves the value associated with the given key.
func (i *Instance) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return i.store.Read([]byte(key))
}

// Range returns every live key in [start, end] with its current value.
func (i *Instance) Range(ctx context.Context, start, end string) (map[string][]byte, error) {
	return i.store.Range([]byte(start), []byte(end))
}

// Delete removes a key-value pair from the database.
func (i *Instance) Delete(ctx context.Context, key string) (bool, error) {
	return i.store.Delete([]byte(key))
}

// Store exposes the underlying coordinator for the server and CLI
// packages, which need direct access to replicate/checkpoint/compact
// beyond what this facade's convenience methods cover.
func (i *Instance) Store() *store.Store { return i.store }

// Options returns the configuration this instance was opened with.
func (i *Instance) Options() *options.Options { return i.options }

// Logger returns the structured logger this instance was opened with, for
// callers (cmd/ignited) that need to hand the same logger to other
// components such as internal/server.
func (i *Instance) Logger() *zap.SugaredLogger { return i.log }

// Close gracefully shuts down the Ignite DB instance, releasing all
// associated resources, flushing any pending writes, and ensuring data
// durability: stops the compactor and replication pipeline, stops the
// checkpointer, then closes the store (which runs one final checkpoint).
// If ctx ends first, Close returns ctx.Err() and the shutdown carries on
// in the background.
func (i *Instance) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		if i.compactor != nil {
			i.compactor.Stop()
		}
		if i.replication != nil {
			i.replication.Stop()
		}
		i.checkpoint.Stop()
		done <- i.store.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

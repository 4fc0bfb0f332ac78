// Package compaction implements the background compactor of spec.md §4.8:
// should-compact check, snapshot, rewrite, and reconcile-and-swap phases.
// Grounded on Jipok-go-persist's Shrink() (temp-file-then-rename
// compaction) and the teacher's segment-rotation naming helpers, adapted
// here to rewrite a single data file instead of rotating segments.
package compaction

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ignitekv/ignite/internal/datafile"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/rwlock"
	"go.uber.org/zap"
)

const (
	// CompactFileName is the temporary file the rewrite phase builds,
	// per spec.md §6's on-disk layout table.
	CompactFileName = "data.db.compact"
	// OldFileName is where the previous data file is renamed to during
	// the swap, kept around for manual recovery but untouched by
	// automatic recovery.
	OldFileName = "data.db.old"
)

// Compactable is the subset of *store.Store the compactor needs. Kept as an
// interface so this package does not import internal/store (which would
// create an import cycle once store wires the compactor in).
type Compactable interface {
	Lock() *rwlock.RWLock
	DataFile() *datafile.DataFile
	Index() *index.Index
	DataDir() string
	SwapDataFile(df *datafile.DataFile)
}

// Compactor runs the should-compact check on a timer and performs a
// compaction pass whenever the dead-byte ratio crosses the threshold.
type Compactor struct {
	store       Compactable
	interval    time.Duration
	threshold   float64
	minFileSize int64
	log         *zap.SugaredLogger

	stop    chan struct{}
	stopped sync.WaitGroup
}

// New creates a Compactor. Call Start to begin the background loop.
func New(store Compactable, interval time.Duration, threshold float64, minFileSize int64, log *zap.SugaredLogger) *Compactor {
	return &Compactor{
		store:       store,
		interval:    interval,
		threshold:   threshold,
		minFileSize: minFileSize,
		log:         log,
		stop:        make(chan struct{}),
	}
}

// Start launches the background goroutine.
func (c *Compactor) Start() {
	c.stopped.Add(1)
	go c.run()
}

// Stop signals the goroutine to exit and waits for it.
func (c *Compactor) Stop() {
	close(c.stop)
	c.stopped.Wait()
}

func (c *Compactor) run() {
	defer c.stopped.Done()

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-timer.C:
			if err := c.RunOnce(); err != nil {
				c.log.Errorw("compaction pass failed", "error", err)
			}
			timer.Reset(c.interval)
		}
	}
}

// RunOnce performs a single should-compact check and, if warranted, one
// full compaction pass. Exported so tests and a manual-trigger CLI path
// can invoke it directly without waiting on the timer.
func (c *Compactor) RunOnce() error {
	shouldRun, size := c.shouldCompact()
	if !shouldRun {
		return nil
	}

	c.log.Infow("starting compaction pass", "dataFileSize", size)
	return c.compact()
}

// shouldCompact implements the spec.md §4.8 step-1 check under the shared
// lock: skip below minFileSize, else compute the dead-byte ratio from the
// index's live bytes.
func (c *Compactor) shouldCompact() (bool, int64) {
	lock := c.store.Lock()
	lock.AcquireShared()
	defer lock.ReleaseShared()

	size := c.store.DataFile().Size()
	if size < c.minFileSize {
		return false, size
	}

	var liveBytes int64
	for _, ke := range c.store.Index().Snapshot() {
		liveBytes += int64(ke.Entry.Length)
	}

	deadRatio := 1 - float64(liveBytes)/float64(size)
	return deadRatio >= c.threshold, size
}

func (c *Compactor) compact() error {
	dataDir := c.store.DataDir()
	compactPath := filepath.Join(dataDir, CompactFileName)
	oldPath := filepath.Join(dataDir, OldFileName)

	lock := c.store.Lock()

	// Snapshot phase: copy the index under the shared lock.
	lock.AcquireShared()
	snapshot := c.store.Index().Snapshot()
	lock.ReleaseShared()

	tmp, err := datafile.Open(compactPath, c.log)
	if err != nil {
		return err
	}
	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			tmp.Close()
			os.Remove(compactPath)
		}
	}()

	rewritten := make(map[string]index.Entry, len(snapshot))

	// Rewrite phase: each live record is read from the current data file
	// under the shared lock and appended to the private temp file, which
	// needs no lock of its own since nothing else can see it yet.
	for _, ke := range snapshot {
		lock.AcquireShared()
		value, ok, err := c.store.DataFile().Read(ke.Entry.Offset, []byte(ke.Key))
		lock.ReleaseShared()
		if err != nil {
			return err
		}
		if !ok {
			// Integrity mismatch; skip it, matching the read-path's
			// skip-on-mismatch behavior.
			continue
		}

		offset, length, err := tmp.Append([]byte(ke.Key), value)
		if err != nil {
			return err
		}
		rewritten[ke.Key] = index.Entry{Offset: offset, Length: length}
	}

	// Reconcile & swap phase: under the exclusive lock, catch any key
	// written (or changed) during the rewrite phase, then perform the
	// file swap and index replacement atomically from callers' view.
	lock.AcquireExclusive()
	defer lock.ReleaseExclusive()

	current := c.store.Index().Snapshot()
	for _, ke := range current {
		if prior, ok := rewritten[ke.Key]; !ok || prior != ke.Entry {
			value, ok, err := c.store.DataFile().Read(ke.Entry.Offset, []byte(ke.Key))
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			offset, length, err := tmp.Append([]byte(ke.Key), value)
			if err != nil {
				return err
			}
			rewritten[ke.Key] = index.Entry{Offset: offset, Length: length}
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	cleanupTmp = false

	currentPath := c.store.DataFile().Path()
	if err := c.store.DataFile().Close(); err != nil {
		return err
	}

	os.Remove(oldPath)
	if err := os.Rename(currentPath, oldPath); err != nil {
		return err
	}
	if err := os.Rename(compactPath, currentPath); err != nil {
		return err
	}

	reopened, err := datafile.Open(currentPath, c.log)
	if err != nil {
		return err
	}
	c.store.SwapDataFile(reopened)

	entries := make([]index.KeyEntry, 0, len(rewritten))
	for k, e := range rewritten {
		entries = append(entries, index.KeyEntry{Key: k, Entry: e})
	}
	c.store.Index().Load(entries)

	if err := c.store.Index().SaveSnapshot(filepath.Join(dataDir, "index.db")); err != nil {
		return err
	}

	c.log.Infow("compaction pass complete", "liveKeys", len(entries))
	return nil
}

// Package datafile manages the single append-only data.db file that backs
// an IgniteKV store. Writes go through a regular fsync'd os.File append;
// reads go through a read-only mmap region that is remapped after every
// append so readers always see the latest bytes without a syscall per read.
package datafile

import (
	"fmt"
	"os"
	"sync"

	"github.com/ignitekv/ignite/internal/record"
	"github.com/ignitekv/ignite/pkg/errors"
	"golang.org/x/sys/unix"
	"go.uber.org/zap"
)

// DataFile is the append-only value log backing a store. Append is safe to
// call concurrently with Read (mmap remap is guarded by mu), but callers are
// expected to serialize Appends themselves — the store coordinator does this
// via internal/rwlock's exclusive mode, per spec.md §4.1.
type DataFile struct {
	mu   sync.RWMutex
	path string
	file *os.File
	mmap []byte // nil when the file is empty; mmap'ing a zero-length file fails.
	size int64
	log  *zap.SugaredLogger
}

// Open opens (creating if necessary) the data file at path and maps its
// current contents for reads.
func Open(path string, log *zap.SugaredLogger) (*DataFile, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to open data file",
		).WithPath(path).WithDetail("flags", []string{"O_CREATE", "O_RDWR", "O_APPEND"})
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat data file").WithPath(path)
	}

	df := &DataFile{path: path, file: file, size: info.Size(), log: log}
	if err := df.remapLocked(); err != nil {
		file.Close()
		return nil, err
	}

	log.Infow("data file opened", "path", path, "size", df.size)
	return df, nil
}

// Size returns the current length of the data file in bytes.
func (d *DataFile) Size() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size
}

// Append encodes key/value as a record, writes and fsyncs it to the end of
// the file, then remaps the read region so subsequent reads observe it.
// Returns the byte offset the record starts at and its total encoded length.
func (d *DataFile) Append(key, value []byte) (offset int64, length int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, n := record.Encode(make([]byte, 0, record.Size(key, value)), key, value)

	offset = d.size
	if _, err := d.file.Write(buf); err != nil {
		return 0, 0, errors.NewStorageError(
			err, errors.ErrorCodeIO, "failed to append record",
		).WithPath(d.path).WithOffset(int(offset))
	}

	if err := d.file.Sync(); err != nil {
		return 0, 0, errors.ClassifySyncError(err, "data.db", d.path, int(offset))
	}

	d.size += int64(n)
	if err := d.remapLocked(); err != nil {
		return 0, 0, err
	}

	return offset, n, nil
}

// Read returns the value stored at offset, verifying that the stored key
// matches expectedKey. A record that cannot be decoded without crossing EOF
// indicates index/data divergence and is a fatal error, not an absent read
// (it should be impossible under I1 but is never silently swallowed). A
// stored key that decodes fine but doesn't match expectedKey is an
// integrity mismatch: logged, not fatal, treated as absent.
func (d *DataFile) Read(offset int64, expectedKey []byte) ([]byte, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	storedKey, storedValue, _, err := record.Decode(d.mmap, offset)
	if err != nil {
		wrapped := errors.NewStorageError(
			err, errors.ErrorCodeIO, "read crossed end of data file: index/data divergence",
		).WithPath(d.path).WithOffset(int(offset))
		d.log.Errorw("data file record decode failed", "offset", offset, "error", err)
		return nil, false, wrapped
	}

	if string(storedKey) != string(expectedKey) {
		d.log.Errorw(
			"integrity mismatch: stored key does not match requested key",
			"offset", offset, "expectedKey", string(expectedKey), "storedKey", string(storedKey),
		)
		return nil, false, nil
	}

	value := make([]byte, len(storedValue))
	copy(value, storedValue)
	return value, true, nil
}

// remapLocked replaces the mmap region with one covering the file's current
// size. Callers must hold d.mu for writing.
func (d *DataFile) remapLocked() error {
	if d.mmap != nil {
		if err := unix.Munmap(d.mmap); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to unmap data file").WithPath(d.path)
		}
		d.mmap = nil
	}

	if d.size == 0 {
		return nil
	}

	data, err := unix.Mmap(int(d.file.Fd()), 0, int(d.size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to mmap data file").WithPath(d.path)
	}
	d.mmap = data
	return nil
}

// Sync flushes any buffered writes to disk. Append already fsyncs per
// write, so this is only an explicit extra flush for callers that want one.
func (d *DataFile) Sync() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.file.Sync(); err != nil {
		return errors.ClassifySyncError(err, "data.db", d.path, int(d.size))
	}
	return nil
}

// Close unmaps and closes the underlying file.
func (d *DataFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mmap != nil {
		if err := unix.Munmap(d.mmap); err != nil {
			return fmt.Errorf("datafile: munmap on close: %w", err)
		}
		d.mmap = nil
	}
	return d.file.Close()
}

// Path returns the filesystem path of the underlying file.
func (d *DataFile) Path() string { return d.path }

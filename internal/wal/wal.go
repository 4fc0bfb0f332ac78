// Package wal implements the write-ahead log described in spec.md §4.3:
// an explicit binary framing (1-byte op tag, u32-prefixed key, an optional
// u32-prefixed value, and a u64 timestamp in microseconds) rather than a
// general-purpose object serializer, per the DESIGN NOTES' recommendation —
// safer than deserializing arbitrary types and stable across languages.
package wal

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/ignitekv/ignite/pkg/errors"
	"go.uber.org/zap"
)

// Op identifies the kind of mutation a WAL entry records.
type Op byte

const (
	// OpPut records a key/value write.
	OpPut Op = 0
	// OpDelete records a key removal; Entry.Value is always nil for these.
	OpDelete Op = 1
)

// Entry is one replayed WAL record.
type Entry struct {
	Op              Op
	Key             []byte
	Value           []byte // nil for OpDelete.
	TimestampMicros int64
}

// WAL appends framed mutation records to wal.log and fsyncs after every
// write, so a crash can never lose an acknowledged entry without also
// losing the write that produced it.
type WAL struct {
	mu   sync.Mutex
	path string
	file *os.File
	log  *zap.SugaredLogger
}

// Open opens (creating if necessary) the WAL file at path for appending.
func Open(path string, log *zap.SugaredLogger) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open WAL file").WithPath(path)
	}
	return &WAL{path: path, file: file, log: log}, nil
}

// LogPut appends a put entry and fsyncs before returning.
func (w *WAL) LogPut(key, value []byte, timestampMicros int64) error {
	return w.append(OpPut, key, value, timestampMicros)
}

// LogDelete appends a delete entry and fsyncs before returning.
func (w *WAL) LogDelete(key []byte, timestampMicros int64) error {
	return w.append(OpDelete, key, nil, timestampMicros)
}

func (w *WAL) append(op Op, key, value []byte, timestampMicros int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := make([]byte, 0, 1+4+len(key)+4+len(value)+8)
	buf = append(buf, byte(op))

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], uint32(len(key)))
	buf = append(buf, u32[:]...)
	buf = append(buf, key...)

	if op == OpPut {
		binary.BigEndian.PutUint32(u32[:], uint32(len(value)))
		buf = append(buf, u32[:]...)
		buf = append(buf, value...)
	}

	var u64 [8]byte
	binary.BigEndian.PutUint64(u64[:], uint64(timestampMicros))
	buf = append(buf, u64[:]...)

	if _, err := w.file.Write(buf); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append WAL entry").WithPath(w.path)
	}
	if err := w.file.Sync(); err != nil {
		return errors.ClassifySyncError(err, "wal.log", w.path, 0)
	}
	return nil
}

// Replay reads every entry from the beginning of the file in write order.
// A zero-length file yields an empty slice. A partial tail entry — a
// length prefix with insufficient following bytes, the signature of a
// crash mid-write — is treated as not durable: it is dropped silently and
// the file is truncated to the last complete entry's boundary.
func (w *WAL) Replay() ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek WAL for replay").WithPath(w.path)
	}

	reader := bufio.NewReader(w.file)
	var entries []Entry
	var consumed int64

	for {
		opByte, err := reader.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read WAL op tag").WithPath(w.path)
		}

		entry, n, ok, err := readEntry(reader, Op(opByte))
		if err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read WAL entry").WithPath(w.path)
		}
		if !ok {
			// Partial tail entry: stop here and truncate it away.
			break
		}

		consumed += 1 + int64(n)
		entries = append(entries, entry)
	}

	if err := w.truncateToLocked(consumed); err != nil {
		return nil, err
	}

	return entries, nil
}

// readEntry reads the body of one entry (everything after the op byte) from
// r. ok is false when fewer bytes remain than the frame requires — a
// partial tail, not a corruption.
func readEntry(r *bufio.Reader, op Op) (entry Entry, bodyLen int, ok bool, err error) {
	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return Entry{}, 0, false, nil
	}
	bodyLen += 4
	keyLen := int(binary.BigEndian.Uint32(u32[:]))

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Entry{}, 0, false, nil
	}
	bodyLen += keyLen

	var value []byte
	if op == OpPut {
		if _, err := io.ReadFull(r, u32[:]); err != nil {
			return Entry{}, 0, false, nil
		}
		bodyLen += 4
		valLen := int(binary.BigEndian.Uint32(u32[:]))

		value = make([]byte, valLen)
		if _, err := io.ReadFull(r, value); err != nil {
			return Entry{}, 0, false, nil
		}
		bodyLen += valLen
	}

	var u64 [8]byte
	if _, err := io.ReadFull(r, u64[:]); err != nil {
		return Entry{}, 0, false, nil
	}
	bodyLen += 8

	return Entry{
		Op:              op,
		Key:             key,
		Value:           value,
		TimestampMicros: int64(binary.BigEndian.Uint64(u64[:])),
	}, bodyLen, true, nil
}

// truncateToLocked truncates the WAL file to length bytes, dropping any
// partial tail left by a crash mid-write, and repositions for future
// appends. Callers must hold w.mu.
func (w *WAL) truncateToLocked(length int64) error {
	info, err := w.file.Stat()
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat WAL file").WithPath(w.path)
	}
	if info.Size() == length {
		_, err := w.file.Seek(0, io.SeekEnd)
		return err
	}

	if err := w.file.Truncate(length); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to truncate partial WAL tail").WithPath(w.path)
	}
	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to reposition WAL after truncate").WithPath(w.path)
	}

	w.log.Warnw("dropped partial WAL tail", "path", w.path, "validLength", length, "fileSize", info.Size())
	return nil
}

// Truncate empties the WAL file, used by the checkpointer once an index
// snapshot makes the replayed entries redundant.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to truncate WAL").WithPath(w.path)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to reposition WAL after truncate").WithPath(w.path)
	}
	return nil
}

// Close flushes and releases the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

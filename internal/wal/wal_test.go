package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ignitekv/ignite/pkg/logger"
)

func TestReplay_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	entries, err := w.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %d", len(entries))
	}
}

func TestLogAndReplay_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	if err := w.LogPut([]byte("a"), []byte("1"), 100); err != nil {
		t.Fatalf("LogPut: %v", err)
	}
	if err := w.LogPut([]byte("b"), []byte("2"), 200); err != nil {
		t.Fatalf("LogPut: %v", err)
	}
	if err := w.LogDelete([]byte("a"), 300); err != nil {
		t.Fatalf("LogDelete: %v", err)
	}

	entries, err := w.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	want := []Entry{
		{Op: OpPut, Key: []byte("a"), Value: []byte("1"), TimestampMicros: 100},
		{Op: OpPut, Key: []byte("b"), Value: []byte("2"), TimestampMicros: 200},
		{Op: OpDelete, Key: []byte("a"), Value: nil, TimestampMicros: 300},
	}

	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("Replay() mismatch (-want +got):\n%s", diff)
	}
}

func TestReplay_DropsPartialTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := w.LogPut([]byte("a"), []byte("1"), 100); err != nil {
		t.Fatalf("LogPut: %v", err)
	}
	validSize, err := func() (int64, error) {
		info, err := os.Stat(path)
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	// Simulate a crash mid-write: append a truncated second entry (op tag
	// and a key-length prefix claiming more bytes than actually follow).
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := f.Write([]byte{byte(OpPut), 0, 0, 0, 10, 'b'}); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	f.Close()

	w2, err := Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w2.Close()

	entries, err := w2.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after dropping partial tail, got %d", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != validSize {
		t.Fatalf("file size after replay = %d, want %d (truncated to last valid entry)", info.Size(), validSize)
	}
}

func TestTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(path, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	if err := w.LogPut([]byte("a"), []byte("1"), 1); err != nil {
		t.Fatalf("LogPut: %v", err)
	}
	if err := w.Truncate(); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	entries, err := w.Replay()
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries after truncate, got %d", len(entries))
	}
}

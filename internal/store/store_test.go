package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ignitekv/ignite/pkg/logger"
	"github.com/ignitekv/ignite/pkg/options"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := New(&Config{
		Options: options.New(options.WithDataDir(dir)),
		Logger:  logger.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// TestPutReadDelete exercises scenario 1 from spec.md §8.
func TestPutReadDelete(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	if err := s.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	v, ok, err := s.Read([]byte("k"))
	if err != nil || !ok || string(v) != "v2" {
		t.Fatalf("Read = (%q, %v, %v), want (v2, true, nil)", v, ok, err)
	}

	deleted, err := s.Delete([]byte("k"))
	if err != nil || !deleted {
		t.Fatalf("first Delete = (%v, %v), want (true, nil)", deleted, err)
	}

	_, ok, err = s.Read([]byte("k"))
	if err != nil || ok {
		t.Fatalf("Read after delete = (_, %v, %v), want (false, nil)", ok, err)
	}

	deleted, err = s.Delete([]byte("k"))
	if err != nil || deleted {
		t.Fatalf("second Delete = (%v, %v), want (false, nil)", deleted, err)
	}
}

// TestBatchPutAndRange exercises scenario 2 from spec.md §8.
func TestBatchPutAndRange(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	keys := [][]byte{[]byte("k1"), []byte("k2"), []byte("k3")}
	values := [][]byte{[]byte("v1"), []byte("v2"), []byte("v3")}

	if err := s.BatchPut(keys, values); err != nil {
		t.Fatalf("BatchPut: %v", err)
	}

	got, err := s.Range([]byte("k1"), []byte("k3"))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	want := map[string][]byte{"k1": []byte("v1"), "k2": []byte("v2"), "k3": []byte("v3")}
	if len(got) != len(want) {
		t.Fatalf("Range returned %d keys, want %d", len(got), len(want))
	}
	for k, v := range want {
		if string(got[k]) != string(v) {
			t.Fatalf("Range[%q] = %q, want %q", k, got[k], v)
		}
	}
}

// TestBatchPut_LengthMismatchRejected exercises the invalid-argument error
// mode spec.md §4.6 and §7 describe — rejected before any WAL write.
func TestBatchPut_LengthMismatchRejected(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	err := s.BatchPut([][]byte{[]byte("a"), []byte("b")}, [][]byte{[]byte("1")})
	if err == nil {
		t.Fatal("expected an error for mismatched batch lengths")
	}
}

// TestRange_EmptyWindow exercises scenario 3 from spec.md §8.
func TestRange_EmptyWindow(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	if err := s.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put([]byte("z"), []byte("26")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Range([]byte("m"), []byte("n"))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Range(m, n) = %v, want empty", got)
	}
}

// TestCrashRecovery exercises scenario 4 from spec.md §8: writes that were
// only WAL-logged and applied, followed by a reopen without a clean close,
// must still be observable afterward.
func TestCrashRecovery(t *testing.T) {
	dir := t.TempDir()

	s := newTestStore(t, dir)
	if err := s.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Simulate a hard kill: release the directory lock and fds without
	// running the graceful Close/checkpoint sequence, leaving the WAL as
	// the only durable record of these writes.
	s.wal.Close()
	s.data.Close()
	s.dirLock.Close()

	s2 := newTestStore(t, dir)
	defer s2.Close()

	v, ok, err := s2.Read([]byte("a"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("Read(a) after recovery = (%q, %v, %v), want (1, true, nil)", v, ok, err)
	}
	v, ok, err = s2.Read([]byte("b"))
	if err != nil || !ok || string(v) != "2" {
		t.Fatalf("Read(b) after recovery = (%q, %v, %v), want (2, true, nil)", v, ok, err)
	}
}

// TestCloseReopen_Identity exercises P3: a graceful close/reopen preserves
// observable state.
func TestCloseReopen_Identity(t *testing.T) {
	dir := t.TempDir()

	s := newTestStore(t, dir)
	if err := s.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2 := newTestStore(t, dir)
	defer s2.Close()

	v, ok, err := s2.Read([]byte("a"))
	if err != nil || !ok || string(v) != "1" {
		t.Fatalf("Read(a) after reopen = (%q, %v, %v), want (1, true, nil)", v, ok, err)
	}
}

// TestConcurrentDelete_ExactlyOneWins exercises P7.
func TestConcurrentDelete_ExactlyOneWins(t *testing.T) {
	s := newTestStore(t, t.TempDir())
	defer s.Close()

	if err := s.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	const n = 16
	results := make([]bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ok, err := s.Delete([]byte("k"))
			if err != nil {
				t.Errorf("Delete: %v", err)
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	trueCount := 0
	for _, ok := range results {
		if ok {
			trueCount++
		}
	}
	if trueCount != 1 {
		t.Fatalf("expected exactly one successful delete, got %d", trueCount)
	}
}

func TestStore_OnDiskLayout(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)
	if err := s.Put([]byte("a"), []byte("1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, name := range []string{WALFileName, DataFileName, IndexFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

package index

import (
	"encoding/base64"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/ignitekv/ignite/pkg/errors"
)

// snapshotRecord is the on-disk JSON shape of one index entry. Keys are
// opaque byte strings, so they are base64-encoded rather than written
// as raw JSON strings (which require valid UTF-8).
type snapshotRecord struct {
	Key    string `json:"key"`
	Offset int64  `json:"offset"`
	Length int    `json:"length"`
}

// SaveSnapshot writes the index's current contents to path atomically: it
// serializes to a temp file in the same directory, fsyncs, then renames
// over path, so a crash mid-write never leaves a partial index.db behind.
func (idx *Index) SaveSnapshot(path string) error {
	entries := idx.Snapshot()

	records := make([]snapshotRecord, 0, len(entries))
	for _, ke := range entries {
		records = append(records, snapshotRecord{
			Key:    base64.StdEncoding.EncodeToString([]byte(ke.Key)),
			Offset: ke.Entry.Offset,
			Length: ke.Entry.Length,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return errors.NewIndexError(err, errors.ErrorCodeInternal, "failed to marshal index snapshot")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".index-*.tmp")
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create snapshot temp file").WithPath(dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write index snapshot").WithPath(tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.ClassifySyncError(err, filepath.Base(tmpName), tmpName, len(data))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close snapshot temp file").WithPath(tmpName)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to install index snapshot").WithPath(path)
	}

	idx.log.Infow("index snapshot saved", "path", path, "entries", len(records))
	return nil
}

// LoadSnapshot replaces the index's contents with whatever is stored at
// path. A missing file is not an error — it means this is a fresh store
// with nothing to restore.
func (idx *Index) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read index snapshot").WithPath(path)
	}

	if len(data) == 0 {
		return nil
	}

	var records []snapshotRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.NewIndexError(err, errors.ErrorCodeIndexCorrupted, "failed to unmarshal index snapshot")
	}

	entries := make([]KeyEntry, 0, len(records))
	for _, r := range records {
		keyBytes, err := base64.StdEncoding.DecodeString(r.Key)
		if err != nil {
			return errors.NewIndexError(err, errors.ErrorCodeIndexCorrupted, "failed to decode snapshot key")
		}
		entries = append(entries, KeyEntry{
			Key:   string(keyBytes),
			Entry: Entry{Offset: r.Offset, Length: r.Length},
		})
	}

	idx.Load(entries)
	idx.log.Infow("index snapshot loaded", "path", path, "entries", len(entries))
	return nil
}

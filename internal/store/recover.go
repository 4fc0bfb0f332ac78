package store

import (
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/internal/wal"
)

// recover implements spec.md §4.11: replay the WAL, re-applying each entry
// to the data file and index in order, then persist a fresh index snapshot
// and truncate the WAL if anything was replayed. Recovery is idempotent —
// replaying the same WAL twice yields the same final index, since every
// entry overwrites whatever state precedes it for that key.
func (s *Store) recover() error {
	entries, err := s.wal.Replay()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	s.log.Infow("replaying WAL entries", "count", len(entries), "dataDir", s.options.DataDir)

	for _, e := range entries {
		switch e.Op {
		case wal.OpPut:
			offset, length, err := s.data.Append(e.Key, e.Value)
			if err != nil {
				return err
			}
			s.index.Put(string(e.Key), index.Entry{Offset: offset, Length: length})
		case wal.OpDelete:
			s.index.Delete(string(e.Key))
		}
	}

	s.log.Infow("WAL replay complete, persisting checkpoint", "keys", s.index.Len())
	return s.checkpoint()
}

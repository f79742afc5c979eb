package session

import (
	"context"
	"log/slog"
)

// persist hands the current snapshot to the writer. If a write is already
// queued it is replaced, so the writer only ever sees the latest state.
func (s *Session) persist() {
	if s.store == nil {
		return
	}
	snap := s.snap.Clone()
	select {
	case s.saves <- snap:
	default:
		select {
		case <-s.saves:
		default:
		}
		s.saves <- snap
	}
}

// persistLoop writes snapshots until saves is closed, then returns after
// writing whatever was still queued.
func (s *Session) persistLoop() {
	for snap := range s.saves {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := s.store.Save(ctx, s.key, &snap)
		cancel()
		if err != nil {
			slog.Error("failed to save snapshot", "session", s.key, "error", err)
			s.recorder.SnapshotSaveFailed()
		}
	}
}

package store

import (
	"context"
	"fmt"
)

// WriteKeyGrant inserts a key grant record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteKeyGrant(ctx context.Context, g KeyGrant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO key_grants (id, seq, tick, player, crate, amount, balance, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, g.ID, g.Seq, int64(g.Tick), g.Player, g.Crate, g.Amount, g.Balance, g.Source)
	if err != nil {
		return fmt.Errorf("write key grant: %w", err)
	}
	return nil
}

// WriteOpenAttempt inserts an open attempt record.
func (s *Store) WriteOpenAttempt(ctx context.Context, a OpenAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO open_attempts (id, seq, tick, player, crate, entity, outcome, item, queue_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, a.ID, a.Seq, int64(a.Tick), a.Player, a.Crate, a.Entity, a.Outcome, a.Item, a.QueueID)
	if err != nil {
		return fmt.Errorf("write open attempt: %w", err)
	}
	return nil
}

// WriteStageRun inserts a stage run record. A second record for the same
// (queue_id, stage_index) is silently ignored.
func (s *Store) WriteStageRun(ctx context.Context, r StageRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_runs (id, seq, tick, queue_id, player, crate, stage_index, stage_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, r.ID, r.Seq, int64(r.Tick), r.QueueID, r.Player, r.Crate, r.StageIndex, r.StageName)
	if err != nil {
		return fmt.Errorf("write stage run: %w", err)
	}
	return nil
}

// WriteQueueResult inserts the terminal record of a queue. Each queue has
// exactly one result; later writes are ignored.
func (s *Store) WriteQueueResult(ctx context.Context, r QueueResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_results (queue_id, seq, tick, player, crate, state, stages_run)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(queue_id) DO NOTHING
	`, r.QueueID, r.Seq, int64(r.Tick), r.Player, r.Crate, r.State, r.StagesRun)
	if err != nil {
		return fmt.Errorf("write queue result: %w", err)
	}
	return nil
}

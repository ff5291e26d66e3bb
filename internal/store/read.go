package store

import (
	"context"
	"fmt"
)

// ReadKeyGrants returns the key grants of player ordered by seq.
// An empty player returns grants of every player.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadKeyGrants(ctx context.Context, player string) ([]KeyGrant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, tick, player, crate, amount, balance, source
		FROM key_grants
		WHERE ? = '' OR player = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, player, player)
	if err != nil {
		return nil, fmt.Errorf("query key grants: %w", err)
	}
	defer rows.Close()

	grants := []KeyGrant{}
	for rows.Next() {
		var g KeyGrant
		var tick int64
		if err := rows.Scan(&g.ID, &g.Seq, &tick, &g.Player, &g.Crate, &g.Amount, &g.Balance, &g.Source); err != nil {
			return nil, fmt.Errorf("scan key grant: %w", err)
		}
		g.Tick = uint64(tick)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key grants: %w", err)
	}
	return grants, nil
}

// ReadOpenAttempts returns the open attempts of player ordered by seq.
// An empty player returns attempts of every player.
func (s *Store) ReadOpenAttempts(ctx context.Context, player string) ([]OpenAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, tick, player, crate, entity, outcome, item, queue_id
		FROM open_attempts
		WHERE ? = '' OR player = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, player, player)
	if err != nil {
		return nil, fmt.Errorf("query open attempts: %w", err)
	}
	defer rows.Close()

	attempts := []OpenAttempt{}
	for rows.Next() {
		var a OpenAttempt
		var tick int64
		if err := rows.Scan(&a.ID, &a.Seq, &tick, &a.Player, &a.Crate, &a.Entity, &a.Outcome, &a.Item, &a.QueueID); err != nil {
			return nil, fmt.Errorf("scan open attempt: %w", err)
		}
		a.Tick = uint64(tick)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate open attempts: %w", err)
	}
	return attempts, nil
}

// ReadStageRuns returns the executed stages of a queue in stage order.
func (s *Store) ReadStageRuns(ctx context.Context, queueID string) ([]StageRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, tick, queue_id, player, crate, stage_index, stage_name
		FROM stage_runs
		WHERE queue_id = ?
		ORDER BY stage_index ASC
	`, queueID)
	if err != nil {
		return nil, fmt.Errorf("query stage runs: %w", err)
	}
	defer rows.Close()

	runs := []StageRun{}
	for rows.Next() {
		var r StageRun
		var tick int64
		if err := rows.Scan(&r.ID, &r.Seq, &tick, &r.QueueID, &r.Player, &r.Crate, &r.StageIndex, &r.StageName); err != nil {
			return nil, fmt.Errorf("scan stage run: %w", err)
		}
		r.Tick = uint64(tick)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage runs: %w", err)
	}
	return runs, nil
}

// ReadQueueResult returns the terminal record of a queue. ok is false when
// the queue has not finished (or never existed).
func (s *Store) ReadQueueResult(ctx context.Context, queueID string) (result QueueResult, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT queue_id, seq, tick, player, crate, state, stages_run
		FROM queue_results
		WHERE queue_id = ?
	`, queueID)
	if err != nil {
		return QueueResult{}, false, fmt.Errorf("query queue result: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return QueueResult{}, false, rows.Err()
	}
	var tick int64
	if err := rows.Scan(&result.QueueID, &result.Seq, &tick, &result.Player, &result.Crate, &result.State, &result.StagesRun); err != nil {
		return QueueResult{}, false, fmt.Errorf("scan queue result: %w", err)
	}
	result.Tick = uint64(tick)
	return result, true, nil
}

// ReadHistory merges key grants, open attempts and queue results of player
// into one timeline ordered by seq. limit <= 0 means no limit; otherwise
// the most recent limit entries are returned, still in ascending order.
func (s *Store) ReadHistory(ctx context.Context, player string, limit int) ([]Entry, error) {
	query := `
		SELECT seq, tick, kind, player, crate, detail FROM (
			SELECT seq, tick, 'key_grant' AS kind, player, crate,
				printf('+%d (%s) -> %d', amount, source, balance) AS detail
			FROM key_grants WHERE ? = '' OR player = ?
			UNION ALL
			SELECT seq, tick, 'open_attempt', player, crate,
				CASE WHEN item = '' THEN outcome ELSE outcome || ' ' || item END
			FROM open_attempts WHERE ? = '' OR player = ?
			UNION ALL
			SELECT seq, tick, 'queue_result', player, crate,
				printf('%s after %d stages', state, stages_run)
			FROM queue_results WHERE ? = '' OR player = ?
		)
		ORDER BY seq DESC
	`
	args := []any{player, player, player, player, player, player}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var tick int64
		if err := rows.Scan(&e.Seq, &tick, &e.Kind, &e.Player, &e.Crate, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Tick = uint64(tick)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	// Reverse into ascending order.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

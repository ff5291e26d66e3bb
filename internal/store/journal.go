package store

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultJournalBuffer is the number of records the journal holds before it
// starts dropping.
const DefaultJournalBuffer = 1024

type record struct {
	grant   *KeyGrant
	attempt *OpenAttempt
	stage   *StageRun
	result  *QueueResult
}

// Journal writes records to a Store from a background goroutine.
//
// Record* methods stamp the seq on the caller's goroutine and never block:
// when the buffer is full the record is dropped and counted. Close drains
// the buffer and waits for the writer.
type Journal struct {
	store  *Store
	ch     chan record
	seq    atomic.Int64
	logger *slog.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	wg      sync.WaitGroup
}

// JournalOption configures a Journal.
type JournalOption func(*journalSettings)

type journalSettings struct {
	buffer int
	logger *slog.Logger
}

// WithBuffer sets the record buffer size.
func WithBuffer(n int) JournalOption {
	return func(s *journalSettings) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithJournalLogger sets the logger for write failures.
func WithJournalLogger(l *slog.Logger) JournalOption {
	return func(s *journalSettings) {
		s.logger = l
	}
}

// NewJournal starts a journal writer for s. The seq counter resumes after
// the highest seq already stored.
func NewJournal(ctx context.Context, s *Store, opts ...JournalOption) (*Journal, error) {
	cfg := journalSettings{buffer: DefaultJournalBuffer, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, err
	}

	j := &Journal{
		store:  s,
		ch:     make(chan record, cfg.buffer),
		logger: cfg.logger,
	}
	j.seq.Store(last)

	j.wg.Add(1)
	go j.run()
	return j, nil
}

// RecordKeyGrant journals a key grant.
func (j *Journal) RecordKeyGrant(g KeyGrant) {
	if g.ID == "" {
		g.ID = newID()
	}
	g.Seq = j.seq.Add(1)
	j.send(record{grant: &g})
}

// RecordOpenAttempt journals an open attempt.
func (j *Journal) RecordOpenAttempt(a OpenAttempt) {
	if a.ID == "" {
		a.ID = newID()
	}
	a.Seq = j.seq.Add(1)
	j.send(record{attempt: &a})
}

// RecordStageRun journals an executed stage.
func (j *Journal) RecordStageRun(r StageRun) {
	if r.ID == "" {
		r.ID = newID()
	}
	r.Seq = j.seq.Add(1)
	j.send(record{stage: &r})
}

// RecordQueueResult journals the terminal state of a queue.
func (j *Journal) RecordQueueResult(r QueueResult) {
	r.Seq = j.seq.Add(1)
	j.send(record{result: &r})
}

// Dropped returns the number of records dropped because the buffer was full
// or the journal was closed.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Close stops accepting records, writes everything buffered, and waits for
// the writer goroutine. The store itself stays open.
func (j *Journal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.ch)
	j.mu.Unlock()

	j.wg.Wait()
}

func (j *Journal) send(r record) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.ch <- r:
	default:
		j.dropped.Add(1)
		j.logger.Warn("journal buffer full, record dropped", "dropped_total", j.dropped.Load())
	}
}

func (j *Journal) run() {
	defer j.wg.Done()

	ctx := context.Background()
	for r := range j.ch {
		var err error
		switch {
		case r.grant != nil:
			err = j.store.WriteKeyGrant(ctx, *r.grant)
		case r.attempt != nil:
			err = j.store.WriteOpenAttempt(ctx, *r.attempt)
		case r.stage != nil:
			err = j.store.WriteStageRun(ctx, *r.stage)
		case r.result != nil:
			err = j.store.WriteQueueResult(ctx, *r.result)
		}
		if err != nil {
			j.logger.Error("journal write failed", "error", err)
		}
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

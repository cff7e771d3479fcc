package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type InMemoryLedger struct {
	mu      sync.RWMutex
	records []Record
	lastID  int64
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*InMemoryLedger)

// WithClock replaces time.Now for timestamp assignment.
func WithClock(now func() time.Time) Option {
	return func(l *InMemoryLedger) {
		l.now = now
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *InMemoryLedger) {
		l.log = log
	}
}

func NewInMemoryLedger(opts ...Option) *InMemoryLedger {
	l := &InMemoryLedger{
		now: time.Now,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *InMemoryLedger) Append(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validate(rec); err != nil {
		return Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastID++
	rec.ID = l.lastID
	rec.Timestamp = l.now()
	l.records = append(l.records, rec)

	l.log.Debug("scan_appended",
		slog.Int64("id", rec.ID),
		slog.String("school_id", rec.SchoolID),
	)
	return rec, nil
}

func (l *InMemoryLedger) Query(ctx context.Context, schoolID string, r Range) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range l.records {
		if rec.SchoolID == schoolID && r.Contains(rec.Timestamp) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (l *InMemoryLedger) Latest(ctx context.Context, schoolID string, n int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, max(n, 0))
	for i := len(l.records) - 1; i >= 0 && len(out) < n; i-- {
		if l.records[i].SchoolID == schoolID {
			out = append(out, l.records[i])
		}
	}
	return out, nil
}

// Len is the number of stored records.
func (l *InMemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

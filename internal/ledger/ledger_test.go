package ledger

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/anishka-v/eco-dining/internal/db"
	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/waste"
)

// stepClock returns base, base+1m, base+2m, ... on successive calls.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
}

func newStepClock(base time.Time) *stepClock {
	return &stepClock{next: base}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(time.Minute)
	return t
}

func sampleRecord(school string, fraction float64) Record {
	scale := waste.DefaultScale()
	level := scale.Classify(fraction)
	return Record{
		SchoolID:      school,
		Dish:          "Pizza",
		WasteFraction: fraction,
		WasteLevel:    level,
		Points:        waste.Points(level),
		Impact:        impact.Calculate(fraction, impact.DefaultPortionOz),
	}
}

var base = time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)

// --------------------------------------------------
// Shared behaviour
// --------------------------------------------------

type ledgerFactory func(t *testing.T, now func() time.Time) Ledger

func runLedgerContract(t *testing.T, newLedger ledgerFactory) {
	ctx := context.Background()

	t.Run("sequential ids", func(t *testing.T) {
		l := newLedger(t, newStepClock(base).Now)

		for i := 1; i <= 5; i++ {
			rec, err := l.Append(ctx, sampleRecord("school_001", 0.2))
			if err != nil {
				t.Fatalf("append %d: %v", i, err)
			}
			if rec.ID != int64(i) {
				t.Fatalf("expected id %d, got %d", i, rec.ID)
			}
		}

		got, err := l.Query(ctx, "school_001", Range{})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 5 {
			t.Fatalf("expected 5 records, got %d", len(got))
		}
		for i, rec := range got {
			if rec.ID != int64(i+1) {
				t.Fatalf("expected id %d at position %d, got %d", i+1, i, rec.ID)
			}
		}
	})

	t.Run("concurrent appends never share an id", func(t *testing.T) {
		l := newLedger(t, time.Now)
		const n = 40

		var wg sync.WaitGroup
		ids := make(chan int64, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := l.Append(ctx, sampleRecord("school_001", 0.5))
				if err != nil {
					t.Errorf("append: %v", err)
					return
				}
				ids <- rec.ID
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id %d", id)
			}
			if id < 1 || id > n {
				t.Fatalf("id %d outside 1..%d", id, n)
			}
			seen[id] = true
		}

		got, _ := l.Query(ctx, "school_001", Range{})
		for i := 1; i < len(got); i++ {
			if got[i].ID <= got[i-1].ID {
				t.Fatalf("query not ascending at %d", i)
			}
		}
	})

	t.Run("query filters school and window", func(t *testing.T) {
		l := newLedger(t, newStepClock(base).Now)

		// timestamps base+0m .. base+5m
		for _, school := range []string{"a", "b", "a", "a", "b", "a"} {
			if _, err := l.Append(ctx, sampleRecord(school, 0.1)); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		got, err := l.Query(ctx, "a", Between(base.Add(2*time.Minute), base.Add(5*time.Minute)))
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 3 || got[0].ID != 3 || got[2].ID != 6 {
			t.Fatalf("expected ids 3,4,6, got %+v", ids(got))
		}

		got, _ = l.Query(ctx, "a", Since(base.Add(2*time.Minute)))
		if len(got) != 2 || got[0].ID != 4 {
			t.Fatalf("expected ids 4,6 after exclusive cutoff, got %v", ids(got))
		}

		got, _ = l.Query(ctx, "nobody", Range{})
		if len(got) != 0 {
			t.Fatalf("expected no records for unknown school, got %d", len(got))
		}
	})

	t.Run("latest is newest first and bounded", func(t *testing.T) {
		l := newLedger(t, newStepClock(base).Now)

		for _, school := range []string{"a", "b", "a", "a", "b", "a"} {
			if _, err := l.Append(ctx, sampleRecord(school, 0.1)); err != nil {
				t.Fatalf("append: %v", err)
			}
		}

		got, err := l.Latest(ctx, "a", 3)
		if err != nil {
			t.Fatalf("latest: %v", err)
		}
		if want := []int64{6, 4, 3}; !equalIDs(ids(got), want) {
			t.Fatalf("expected ids %v, got %v", want, ids(got))
		}

		got, _ = l.Latest(ctx, "b", 10)
		if want := []int64{5, 2}; !equalIDs(ids(got), want) {
			t.Fatalf("expected ids %v, got %v", want, ids(got))
		}

		got, _ = l.Latest(ctx, "a", 0)
		if len(got) != 0 {
			t.Fatalf("expected nothing for n=0, got %v", ids(got))
		}
	})

	t.Run("invalid record leaves no entry", func(t *testing.T) {
		l := newLedger(t, time.Now)

		bad := sampleRecord("", 0.3)
		if _, err := l.Append(ctx, bad); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("expected ErrInvalidRecord, got %v", err)
		}
		bad = sampleRecord("school_001", 1.3)
		if _, err := l.Append(ctx, bad); !errors.Is(err, ErrInvalidRecord) {
			t.Fatalf("expected ErrInvalidRecord, got %v", err)
		}

		rec, err := l.Append(ctx, sampleRecord("school_001", 0.3))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if rec.ID != 1 {
			t.Fatalf("expected rejected appends to consume no id, got %d", rec.ID)
		}
	})
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ids(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// --------------------------------------------------
// Implementations
// --------------------------------------------------

func TestInMemoryLedger(t *testing.T) {
	runLedgerContract(t, func(t *testing.T, now func() time.Time) Ledger {
		return NewInMemoryLedger(WithClock(now))
	})
}

func TestInMemoryLedgerQueryReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	l := NewInMemoryLedger()
	if _, err := l.Append(ctx, sampleRecord("s", 0.2)); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, _ := l.Query(ctx, "s", Range{})
	got[0].Dish = "Tampered"

	again, _ := l.Query(ctx, "s", Range{})
	if again[0].Dish != "Pizza" {
		t.Fatalf("stored record was mutated through a query result")
	}
}

func TestInMemoryLedgerHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewInMemoryLedger()
	if _, err := l.Append(ctx, sampleRecord("s", 0.2)); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if l.Len() != 0 {
		t.Fatalf("expected no record after cancelled append")
	}
}

func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	pool, err := db.ConnectPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	runLedgerContract(t, func(t *testing.T, now func() time.Time) Ledger {
		if _, err := pool.Exec(context.Background(), `TRUNCATE scans`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		l := NewPostgresLedger(pool)
		l.now = now
		return l
	})
}

// --------------------------------------------------
// Range
// --------------------------------------------------

func TestRangeContains(t *testing.T) {
	from := base
	to := base.Add(time.Hour)

	if !Between(from, to).Contains(from) || !Between(from, to).Contains(to) {
		t.Fatalf("Between must include both ends")
	}
	if Since(from).Contains(from) {
		t.Fatalf("Since must exclude the cutoff")
	}
	if !Since(from).Contains(to.Add(24 * time.Hour)) {
		t.Fatalf("Since must be open ended")
	}
	if !(Range{}).Contains(time.Time{}) {
		t.Fatalf("zero range must contain everything")
	}
}

func TestDayRange(t *testing.T) {
	r := Day(time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC), time.UTC)

	if !r.Contains(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day must include midnight")
	}
	if !r.Contains(time.Date(2024, 3, 4, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("day must include the last second")
	}
	if r.Contains(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day must exclude the next midnight")
	}
}

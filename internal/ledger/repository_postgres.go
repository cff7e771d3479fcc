package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/anishka-v/eco-dining/internal/waste"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const scanColumns = `
	id, recorded_at, school_id, dish,
	waste_fraction, waste_level, points,
	weight_lbs, cost_usd, co2_kg, meals_equivalent,
	before_image_ref, after_image_ref,
	estimate_degraded, dish_fallback`

// scanLedgerLock serialises id assignment across API replicas.
const scanLedgerLock = 7_310_001

type PostgresLedger struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db, now: time.Now}
}

// --------------------------------------------------
// Append
// --------------------------------------------------

func (r *PostgresLedger) Append(ctx context.Context, rec Record) (Record, error) {
	if err := validate(rec); err != nil {
		return Record{}, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Record{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, scanLedgerLock); err != nil {
		return Record{}, fmt.Errorf("lock scan ledger: %w", err)
	}

	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM scans`).Scan(&rec.ID); err != nil {
		return Record{}, fmt.Errorf("next scan id: %w", err)
	}
	rec.Timestamp = r.now().UTC()

	_, err = tx.Exec(ctx, `
		INSERT INTO scans (
			id, recorded_at, school_id, dish,
			waste_fraction, waste_level, points,
			weight_lbs, cost_usd, co2_kg, meals_equivalent,
			before_image_ref, after_image_ref,
			estimate_degraded, dish_fallback
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		rec.ID, rec.Timestamp, rec.SchoolID, rec.Dish,
		rec.WasteFraction, string(rec.WasteLevel), rec.Points,
		rec.Impact.WeightLbs, rec.Impact.CostUSD, rec.Impact.CO2Kg, rec.Impact.MealsEquivalent,
		rec.BeforeImageRef, rec.AfterImageRef,
		rec.EstimateDegraded, rec.DishFallback,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert scan: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// --------------------------------------------------
// Query
// --------------------------------------------------

func (r *PostgresLedger) Query(ctx context.Context, schoolID string, rng Range) ([]Record, error) {
	query := `SELECT` + scanColumns + `
		FROM scans
		WHERE school_id = $1`
	args := []any{schoolID}

	if !rng.From.IsZero() {
		op := ">="
		if rng.FromExclusive {
			op = ">"
		}
		args = append(args, rng.From)
		query += fmt.Sprintf(" AND recorded_at %s $%d", op, len(args))
	}
	if !rng.To.IsZero() {
		op := "<="
		if rng.ToExclusive {
			op = "<"
		}
		args = append(args, rng.To)
		query += fmt.Sprintf(" AND recorded_at %s $%d", op, len(args))
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// --------------------------------------------------
// Latest
// --------------------------------------------------

func (r *PostgresLedger) Latest(ctx context.Context, schoolID string, n int) ([]Record, error) {
	if n <= 0 {
		return []Record{}, nil
	}

	rows, err := r.db.Query(ctx, `SELECT`+scanColumns+`
		FROM scans
		WHERE school_id = $1
		ORDER BY id DESC
		LIMIT $2`,
		schoolID, n,
	)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec   Record
		level string
	)
	err := row.Scan(
		&rec.ID, &rec.Timestamp, &rec.SchoolID, &rec.Dish,
		&rec.WasteFraction, &level, &rec.Points,
		&rec.Impact.WeightLbs, &rec.Impact.CostUSD, &rec.Impact.CO2Kg, &rec.Impact.MealsEquivalent,
		&rec.BeforeImageRef, &rec.AfterImageRef,
		&rec.EstimateDegraded, &rec.DishFallback,
	)
	if err != nil {
		return Record{}, err
	}
	rec.WasteLevel = waste.Level(level)
	return rec, nil
}

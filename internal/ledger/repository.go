// Package ledger stores scan records in an append-only log.
package ledger

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidRecord = errors.New("invalid scan record")

// Ledger is the only way the rest of the system reaches stored scans.
// Implementations assign ids 1, 2, 3... in append order and return query
// results in that order.
type Ledger interface {
	// Append assigns the next id and the current time, then stores rec.
	Append(ctx context.Context, rec Record) (Record, error)
	// Query returns the school's records whose timestamp falls inside r.
	Query(ctx context.Context, schoolID string, r Range) ([]Record, error)
	// Latest returns at most n of the school's records, newest first.
	Latest(ctx context.Context, schoolID string, n int) ([]Record, error)
}

func validate(rec Record) error {
	switch {
	case rec.SchoolID == "":
		return fmt.Errorf("%w: missing school id", ErrInvalidRecord)
	case rec.Dish == "":
		return fmt.Errorf("%w: missing dish", ErrInvalidRecord)
	case rec.WasteFraction < 0 || rec.WasteFraction > 1:
		return fmt.Errorf("%w: waste fraction %v outside [0,1]", ErrInvalidRecord, rec.WasteFraction)
	}
	return nil
}

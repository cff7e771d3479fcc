package report

import (
	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/ledger"
)

type bucket struct {
	key      string
	count    int
	wasteSum float64
	impact   impact.Estimate
}

func (b *bucket) avg() float64 {
	if b.count == 0 {
		return 0
	}
	return b.wasteSum / float64(b.count)
}

// groups keeps buckets in the order their key was first seen, so that
// anything derived from them does not depend on map iteration.
type groups struct {
	order []*bucket
	byKey map[string]*bucket
}

func groupBy(records []ledger.Record, key func(ledger.Record) string) *groups {
	g := &groups{byKey: make(map[string]*bucket)}
	for _, rec := range records {
		k := key(rec)
		b, ok := g.byKey[k]
		if !ok {
			b = &bucket{key: k}
			g.byKey[k] = b
			g.order = append(g.order, b)
		}
		b.count++
		b.wasteSum += rec.WasteFraction
		b.impact = b.impact.Add(rec.Impact)
	}
	return g
}

// highest returns the bucket with the largest average; earlier buckets win ties.
func (g *groups) highest() *bucket {
	var best *bucket
	for _, b := range g.order {
		if best == nil || b.avg() > best.avg() {
			best = b
		}
	}
	return best
}

// lowest returns the bucket with the smallest average; earlier buckets win ties.
func (g *groups) lowest() *bucket {
	var best *bucket
	for _, b := range g.order {
		if best == nil || b.avg() < best.avg() {
			best = b
		}
	}
	return best
}

func sum(records []ledger.Record) (impact.Estimate, float64) {
	var (
		total    impact.Estimate
		wasteSum float64
	)
	for _, rec := range records {
		total = total.Add(rec.Impact)
		wasteSum += rec.WasteFraction
	}
	return total, wasteSum
}

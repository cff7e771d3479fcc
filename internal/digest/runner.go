// Package digest periodically computes insights for a set of schools and
// hands them to a publisher.
package digest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anishka-v/eco-dining/internal/report"
)

type Publisher interface {
	PublishInsights(ctx context.Context, schoolID string, insights []report.Insight) error
}

type InsightSource interface {
	Insights(ctx context.Context, schoolID string, days int) ([]report.Insight, error)
}

type Runner struct {
	source    InsightSource
	publisher Publisher
	schools   []string
	interval  time.Duration
	days      int
	log       *slog.Logger
}

func NewRunner(source InsightSource, publisher Publisher, schools []string, interval time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		source:    source,
		publisher: publisher,
		schools:   schools,
		interval:  interval,
		days:      report.DefaultInsightDays,
		log:       log.With(slog.String("component", "digest")),
	}
}

// Run publishes once immediately and then on every tick until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("digest_started",
		slog.Int("schools", len(r.schools)),
		slog.Duration("interval", r.interval),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.RunOnce(ctx); err != nil {
			r.log.Warn("digest_round_failed", slog.Any("err", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce publishes a digest for every school. One school failing does not
// stop the rest; the errors are joined.
func (r *Runner) RunOnce(ctx context.Context) error {
	var errs []error
	for _, school := range r.schools {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		insights, err := r.source.Insights(ctx, school, r.days)
		if err != nil {
			r.log.Error("digest_insights_err", slog.String("school_id", school), slog.Any("err", err))
			errs = append(errs, err)
			continue
		}
		if err := r.publisher.PublishInsights(ctx, school, insights); err != nil {
			r.log.Error("digest_publish_err", slog.String("school_id", school), slog.Any("err", err))
			errs = append(errs, err)
			continue
		}
		r.log.Info("digest_published",
			slog.String("school_id", school),
			slog.Int("insights", len(insights)),
		)
	}
	return errors.Join(errs...)
}

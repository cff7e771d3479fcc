// Package dish maps classifier output onto the fixed dish vocabulary.
package dish

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const DefaultTimeout = 5 * time.Second

type Source string

const (
	SourceHint     Source = "hint"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Fallback reasons.
const (
	ReasonNoProvider = "no_provider"
	ReasonTimeout    = "timeout"
	ReasonError      = "provider_error"
	ReasonNoLabels   = "no_labels"
	ReasonNoMatch    = "no_match"
)

// Result is the dish chosen for a scan. Fallback is set when the default dish
// was used because nothing better was available.
type Result struct {
	Dish     string
	Label    string
	Source   Source
	Fallback bool
	Reason   string
}

// FallbackRecorder is told about every fallback so systematic
// misclassification shows up in telemetry.
type FallbackRecorder interface {
	DishFallback(reason string)
}

type Classifier struct {
	vocab    Vocabulary
	provider LabelProvider
	timeout  time.Duration
	recorder FallbackRecorder
	log      *slog.Logger
}

func NewClassifier(
	vocab Vocabulary,
	provider LabelProvider,
	timeout time.Duration,
	recorder FallbackRecorder,
	log *slog.Logger,
) *Classifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		vocab:    vocab,
		provider: provider,
		timeout:  timeout,
		recorder: recorder,
		log:      log.With(slog.String("component", "dish_classifier")),
	}
}

// Resolve uses hint when it names a vocabulary dish and classifies the image
// otherwise.
func (c *Classifier) Resolve(ctx context.Context, hint string, image []byte) Result {
	if hint != "" && c.vocab.Contains(hint) {
		return Result{Dish: hint, Source: SourceHint}
	}
	return c.Classify(ctx, image)
}

// Classify asks the provider for labels and matches the top one. It returns
// within the configured timeout even if the provider does not.
func (c *Classifier) Classify(ctx context.Context, image []byte) Result {
	if c.provider == nil {
		return c.fallback(ReasonNoProvider, "", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		labels []Label
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		labels, err := c.provider.DetectLabels(ctx, image)
		done <- outcome{labels: labels, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{err: ctx.Err()}
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			return c.fallback(ReasonTimeout, "", out.err)
		}
		return c.fallback(ReasonError, "", out.err)
	}
	if len(out.labels) == 0 {
		return c.fallback(ReasonNoLabels, "", nil)
	}

	top := out.labels[0].Name
	if name, ok := c.vocab.Match(top); ok {
		return Result{Dish: name, Label: top, Source: SourceModel}
	}
	return c.fallback(ReasonNoMatch, top, nil)
}

func (c *Classifier) fallback(reason, label string, err error) Result {
	attrs := []any{
		slog.String("reason", reason),
		slog.String("dish", c.vocab.Default()),
	}
	if label != "" {
		attrs = append(attrs, slog.String("label", label))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	c.log.Warn("dish_fallback", attrs...)

	if c.recorder != nil {
		c.recorder.DishFallback(reason)
	}
	return Result{
		Dish:     c.vocab.Default(),
		Label:    label,
		Source:   SourceFallback,
		Fallback: true,
		Reason:   reason,
	}
}

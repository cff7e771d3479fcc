package dish

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --------------------------------------------------
// Fakes
// --------------------------------------------------

type fakeProvider struct {
	labels []Label
	err    error
	block  chan struct{}
	calls  int
}

func (f *fakeProvider) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	f.calls++
	if f.block != nil {
		// ignores ctx on purpose
		<-f.block
	}
	return f.labels, f.err
}

type countingRecorder struct {
	reasons map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{reasons: make(map[string]int)}
}

func (r *countingRecorder) DishFallback(reason string) {
	r.reasons[reason]++
}

// --------------------------------------------------
// Vocabulary
// --------------------------------------------------

func TestMatch(t *testing.T) {
	v := DefaultVocabulary()

	cases := map[string]string{
		"pizza":          "Pizza",
		"Pizza":          "Pizza",
		"carbonara":      "",
		"Salad Bar":      "Salad Bar",
		"caesar salad":   "Salad Bar",
		"chicken_wings":  "Chicken Tenders",
		"beef tacos":     "Tacos",
		"soup bowl":      "Soup",
		"frying pan":     "Stir Fry",
		"club sandwich":  "Sandwich",
		"cheese plate":   "Mac & Cheese",
		"hotdog":         "",
		"":               "",
		"ice_cream":      "",
	}

	for label, want := range cases {
		got, ok := v.Match(label)
		if want == "" {
			if ok {
				t.Fatalf("match(%q): expected no match, got %q", label, got)
			}
			continue
		}
		if !ok || got != want {
			t.Fatalf("match(%q): expected %q, got %q (ok=%v)", label, want, got, ok)
		}
	}
}

func TestMatchTieBreakIsVocabularyOrder(t *testing.T) {
	v := DefaultVocabulary()

	// "cheeseburger" matches Burger (substring) and Mac & Cheese (word "cheese").
	got, ok := v.Match("cheeseburger")
	if !ok || got != "Burger" {
		t.Fatalf("expected Burger to win the tie, got %q", got)
	}

	// reordering the vocabulary flips the winner
	reordered, err := NewVocabulary([]string{"Mac & Cheese", "Burger"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = reordered.Match("cheeseburger")
	if got != "Mac & Cheese" {
		t.Fatalf("expected Mac & Cheese to win after reordering, got %q", got)
	}
}

func TestNewVocabularyValidation(t *testing.T) {
	if _, err := NewVocabulary(nil); !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
	}
	if _, err := NewVocabulary([]string{"Pizza", "pizza"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if _, err := NewVocabulary([]string{"Pizza", "  "}); err == nil {
		t.Fatalf("expected blank name error")
	}
}

func TestVocabularyDefaultAndContains(t *testing.T) {
	v := DefaultVocabulary()
	if v.Default() != "Pizza" {
		t.Fatalf("expected Pizza as default, got %q", v.Default())
	}
	if !v.Contains("Stir Fry") || v.Contains("stir fry") {
		t.Fatalf("Contains must compare exact names")
	}
}

// --------------------------------------------------
// Classifier
// --------------------------------------------------

func TestClassifyUsesTopLabelOnly(t *testing.T) {
	p := &fakeProvider{labels: []Label{
		{Name: "spaghetti pasta", Confidence: 0.8},
		{Name: "pizza", Confidence: 0.7},
	}}
	c := NewClassifier(DefaultVocabulary(), p, time.Second, nil, nil)

	res := c.Classify(context.Background(), []byte("img"))
	if res.Dish != "Pasta" || res.Fallback || res.Source != SourceModel {
		t.Fatalf("expected Pasta from model, got %+v", res)
	}
}

func TestClassifyFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		provider LabelProvider
		reason   string
	}{
		{"no provider", nil, ReasonNoProvider},
		{"provider error", &fakeProvider{err: errors.New("boom")}, ReasonError},
		{"no labels", &fakeProvider{}, ReasonNoLabels},
		{"no match", &fakeProvider{labels: []Label{{Name: "hotdog", Confidence: 0.9}}}, ReasonNoMatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newCountingRecorder()
			c := NewClassifier(DefaultVocabulary(), tc.provider, time.Second, rec, nil)

			res := c.Classify(context.Background(), []byte("img"))
			if !res.Fallback || res.Dish != "Pizza" || res.Reason != tc.reason {
				t.Fatalf("expected fallback to Pizza with reason %q, got %+v", tc.reason, res)
			}
			if rec.reasons[tc.reason] != 1 {
				t.Fatalf("expected fallback to be recorded once, got %v", rec.reasons)
			}
		})
	}
}

func TestClassifyTimesOutOnStuckProvider(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{}), labels: []Label{{Name: "pizza"}}}
	defer close(p.block)

	rec := newCountingRecorder()
	c := NewClassifier(DefaultVocabulary(), p, 20*time.Millisecond, rec, nil)

	start := time.Now()
	res := c.Classify(context.Background(), []byte("img"))
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("classifier stalled for %v", elapsed)
	}
	if res.Reason != ReasonTimeout || !res.Fallback {
		t.Fatalf("expected timeout fallback, got %+v", res)
	}
	if rec.reasons[ReasonTimeout] != 1 {
		t.Fatalf("expected timeout to be recorded, got %v", rec.reasons)
	}
}

func TestResolvePrefersKnownHint(t *testing.T) {
	p := &fakeProvider{labels: []Label{{Name: "pizza"}}}
	c := NewClassifier(DefaultVocabulary(), p, time.Second, nil, nil)

	res := c.Resolve(context.Background(), "Tacos", []byte("img"))
	if res.Dish != "Tacos" || res.Source != SourceHint {
		t.Fatalf("expected hint to be used, got %+v", res)
	}
	if p.calls != 0 {
		t.Fatalf("provider must not be called when the hint is valid")
	}

	res = c.Resolve(context.Background(), "Lasagna", []byte("img"))
	if res.Dish != "Pizza" || res.Source != SourceModel {
		t.Fatalf("expected unknown hint to fall through to the model, got %+v", res)
	}
}

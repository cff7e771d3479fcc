package dish

import (
	"errors"
	"fmt"
	"strings"
)

var DefaultDishes = []string{
	"Pizza",
	"Pasta",
	"Salad Bar",
	"Burger",
	"Chicken Tenders",
	"Tacos",
	"Soup",
	"Stir Fry",
	"Sandwich",
	"Mac & Cheese",
}

var ErrEmptyVocabulary = errors.New("dish vocabulary is empty")

// Vocabulary is the closed, ordered set of dishes a scan can be filed under.
// The first entry is the fallback for anything that does not match.
type Vocabulary struct {
	names []string
	lower []string
	words [][]string
}

func NewVocabulary(names []string) (Vocabulary, error) {
	if len(names) == 0 {
		return Vocabulary{}, ErrEmptyVocabulary
	}

	v := Vocabulary{
		names: make([]string, 0, len(names)),
		lower: make([]string, 0, len(names)),
		words: make([][]string, 0, len(names)),
	}
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return Vocabulary{}, errors.New("dish name must not be blank")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return Vocabulary{}, fmt.Errorf("dish %q listed twice", name)
		}
		seen[key] = true

		v.names = append(v.names, name)
		v.lower = append(v.lower, key)
		v.words = append(v.words, strings.Fields(key))
	}
	return v, nil
}

func DefaultVocabulary() Vocabulary {
	v, _ := NewVocabulary(DefaultDishes)
	return v
}

func (v Vocabulary) Names() []string {
	cp := make([]string, len(v.names))
	copy(cp, v.names)
	return cp
}

// Default is the first dish of the vocabulary.
func (v Vocabulary) Default() string {
	return v.names[0]
}

// Contains reports whether name is a vocabulary entry, compared exactly.
func (v Vocabulary) Contains(name string) bool {
	for _, n := range v.names {
		if n == name {
			return true
		}
	}
	return false
}

// Match maps a free-text classifier label onto the vocabulary.
//
// An entry matches when its lowercase name, or any single word of it, is a
// substring of the lowercased label. Several entries can match one label
// ("cheeseburger" hits both Burger and Mac & Cheese); the earliest entry in
// vocabulary order wins.
func (v Vocabulary) Match(label string) (string, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "", false
	}

	for i, name := range v.lower {
		if strings.Contains(label, name) {
			return v.names[i], true
		}
		for _, w := range v.words[i] {
			if strings.Contains(label, w) {
				return v.names[i], true
			}
		}
	}
	return "", false
}

package waste

import (
	"errors"
	"fmt"
)

type Level string

const (
	LevelNone        Level = "None"
	LevelMinimal     Level = "Minimal"
	LevelModerate    Level = "Moderate"
	LevelSignificant Level = "Significant"
	LevelMostLeft    Level = "Most Left"
)

// Band is one step of a Scale. UpperBound is inclusive.
type Band struct {
	UpperBound float64
	Level      Level
}

// Scale maps a waste fraction onto an ordered set of levels.
type Scale struct {
	bands []Band
}

var ErrInvalidScale = errors.New("invalid waste scale")

var defaultBands = []Band{
	{UpperBound: 0.0, Level: LevelNone},
	{UpperBound: 0.1, Level: LevelMinimal},
	{UpperBound: 0.25, Level: LevelModerate},
	{UpperBound: 0.40, Level: LevelSignificant},
	{UpperBound: 1.0, Level: LevelMostLeft},
}

func DefaultScale() Scale {
	s, _ := NewScale(defaultBands)
	return s
}

// NewScale validates that bounds are strictly increasing, start at or above
// zero, end at 1.0, and name each level once.
func NewScale(bands []Band) (Scale, error) {
	if len(bands) == 0 {
		return Scale{}, fmt.Errorf("%w: no bands", ErrInvalidScale)
	}

	seen := make(map[Level]bool, len(bands))
	for i, b := range bands {
		if b.Level == "" {
			return Scale{}, fmt.Errorf("%w: band %d has no level", ErrInvalidScale, i)
		}
		if seen[b.Level] {
			return Scale{}, fmt.Errorf("%w: level %q repeated", ErrInvalidScale, b.Level)
		}
		seen[b.Level] = true

		if b.UpperBound < 0 || b.UpperBound > 1 {
			return Scale{}, fmt.Errorf("%w: bound %v outside [0,1]", ErrInvalidScale, b.UpperBound)
		}
		if i > 0 && b.UpperBound <= bands[i-1].UpperBound {
			return Scale{}, fmt.Errorf("%w: bounds must increase (%v after %v)", ErrInvalidScale, b.UpperBound, bands[i-1].UpperBound)
		}
	}
	if bands[len(bands)-1].UpperBound != 1.0 {
		return Scale{}, fmt.Errorf("%w: last bound must be 1.0", ErrInvalidScale)
	}

	cp := make([]Band, len(bands))
	copy(cp, bands)
	return Scale{bands: cp}, nil
}

// Classify returns the level of the first band whose bound is >= fraction.
// Values above every bound get the top level.
func (s Scale) Classify(fraction float64) Level {
	for _, b := range s.bands {
		if fraction <= b.UpperBound {
			return b.Level
		}
	}
	return s.bands[len(s.bands)-1].Level
}

// Severity is the ordinal of level within the scale, or -1 when unknown.
func (s Scale) Severity(level Level) int {
	for i, b := range s.bands {
		if b.Level == level {
			return i
		}
	}
	return -1
}

func (s Scale) Bands() []Band {
	cp := make([]Band, len(s.bands))
	copy(cp, s.bands)
	return cp
}

var points = map[Level]int{
	LevelNone:        15,
	LevelMinimal:     10,
	LevelModerate:    5,
	LevelSignificant: 2,
	LevelMostLeft:    1,
}

// Points is the reward for a tray at the given level. Unknown levels earn 0.
func Points(level Level) int {
	return points[level]
}

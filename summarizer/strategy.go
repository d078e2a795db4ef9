package summarizer

import (
	"fmt"
	"strings"
)

// Strategy is how the collaborator combines chunks into one summary.
// Only Stuff and MapReduce are valid; the zero value means "not chosen".
type Strategy uint8

const (
	// Stuff sends every chunk to the LLM in a single prompt.
	Stuff Strategy = iota + 1

	// MapReduce summarizes each chunk independently, then summarizes the summaries.
	MapReduce
)

// DefaultWordThreshold is the word count at which MapReduce takes over.
const DefaultWordThreshold = 800

// String returns the wire name: "stuff" or "map_reduce".
func (s Strategy) String() string {
	switch s {
	case Stuff:
		return "stuff"
	case MapReduce:
		return "map_reduce"
	default:
		return "unset"
	}
}

// Valid reports whether s is Stuff or MapReduce.
func (s Strategy) Valid() bool {
	return s == Stuff || s == MapReduce
}

// MarshalText implements encoding.TextMarshaler so strategies appear by name in JSON.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy accepts "stuff" and "map_reduce" (also "map-reduce"/"mapreduce"),
// case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stuff":
		return Stuff, nil
	case "map_reduce", "map-reduce", "mapreduce":
		return MapReduce, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// SelectStrategy picks Stuff when text has fewer than threshold words and
// MapReduce otherwise. A non-positive threshold uses DefaultWordThreshold.
//
// Example:
//
//	SelectStrategy(strings.Repeat("w ", 799), 800) // Stuff
//	SelectStrategy(strings.Repeat("w ", 800), 800) // MapReduce
func SelectStrategy(text string, threshold int) Strategy {
	return SelectStrategyForCount(CountWords(text), threshold)
}

// SelectStrategyForCount is SelectStrategy for a precomputed word count.
func SelectStrategyForCount(words, threshold int) Strategy {
	if threshold <= 0 {
		threshold = DefaultWordThreshold
	}
	if words < threshold {
		return Stuff
	}
	return MapReduce
}

package summarizer

import "errors"

var (
	// ErrEmptyInput is returned for blank input. Callers treat it as "nothing to do".
	ErrEmptyInput = errors.New("input text is empty")

	// ErrInvalidChunkConfig is returned when chunk size or overlap is out of range.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrUnknownStrategy is returned when a strategy name cannot be parsed.
	ErrUnknownStrategy = errors.New("unknown summarization strategy")

	// ErrNoSummarizer is returned by NewProcessor when no collaborator is given.
	ErrNoSummarizer = errors.New("summarizer collaborator is required")
)

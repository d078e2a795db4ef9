package summarizer

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunk boundaries.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// DefaultSeparators is the split priority: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// LengthFunc measures a piece of text. CharLength counts runes; TokenLength
// counts cl100k_base tokens.
type LengthFunc func(string) int

// SplitterConfig holds the chunk boundary parameters.
type SplitterConfig struct {
	// ChunkSize is the target maximum chunk length, measured by Length.
	ChunkSize int

	// ChunkOverlap is the maximum length carried over from one chunk to the next.
	// Must satisfy 0 <= ChunkOverlap < ChunkSize.
	ChunkOverlap int

	// Separators are tried in order. Nil uses DefaultSeparators.
	Separators []string

	// Length measures text. Nil uses CharLength.
	Length LengthFunc

	// LengthUnit names what Length counts ("chars" or "tokens"). It feeds
	// cache keys and logs; empty means "chars".
	LengthUnit string
}

// DefaultSplitterConfig returns 1000/100 character chunks on the default separators.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   DefaultSeparators,
		Length:       CharLength,
		LengthUnit:   "chars",
	}
}

// Validate checks 0 <= ChunkOverlap < ChunkSize.
func (c SplitterConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidChunkConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidChunkConfig, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// RecursiveSplitter splits text on the first separator present, recursing into
// pieces that are still too long with the remaining separators, then greedily
// merges small pieces back up to ChunkSize with a bounded overlap. Separators
// stay attached to the piece that follows them.
//
// Example:
//
//	splitter, err := NewRecursiveSplitter(DefaultSplitterConfig())
//	if err != nil {
//	    return err
//	}
//	chunks := splitter.SplitText(text)
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.RecursiveCharacter
}

// NewRecursiveSplitter validates config and fills in defaults.
func NewRecursiveSplitter(config SplitterConfig) (*RecursiveSplitter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	seps := config.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	length := config.Length
	if length == nil {
		length = CharLength
	}
	return &RecursiveSplitter{
		chunkSize:    config.ChunkSize,
		chunkOverlap: config.ChunkOverlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators(append([]string(nil), seps...)),
			textsplitter.WithKeepSeparator(true),
			textsplitter.WithLenFunc(length),
		),
	}, nil
}

// ChunkSize returns the configured maximum chunk length.
func (s *RecursiveSplitter) ChunkSize() int { return s.chunkSize }

// ChunkOverlap returns the configured overlap.
func (s *RecursiveSplitter) ChunkOverlap() int { return s.chunkOverlap }

// SplitText returns the ordered chunks of text. Chunks are whitespace-trimmed
// and never empty; blank input yields no chunks.
func (s *RecursiveSplitter) SplitText(text string) []string {
	if IsBlank(text) {
		return nil
	}
	// RecursiveCharacter never fails; the error is part of the TextSplitter interface.
	segments, err := s.splitter.SplitText(text)
	if err != nil {
		return nil
	}
	chunks := make([]string, 0, len(segments))
	for _, seg := range segments {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// CreateDocuments splits each text and wraps every chunk in a Document.
// The source index is recorded under the "source_index" metadata key when
// more than one text is given.
func (s *RecursiveSplitter) CreateDocuments(texts ...string) []Document {
	var docs []Document
	for i, text := range texts {
		for _, chunk := range s.SplitText(text) {
			doc := Document{PageContent: chunk}
			if len(texts) > 1 {
				doc.Metadata = map[string]any{"source_index": i}
			}
			docs = append(docs, doc)
		}
	}
	return docs
}

// SplitDocuments re-chunks existing documents, copying each one's metadata
// onto the chunks it produces.
func (s *RecursiveSplitter) SplitDocuments(docs []Document) []Document {
	var out []Document
	for _, d := range docs {
		for _, chunk := range s.SplitText(d.PageContent) {
			out = append(out, Document{PageContent: chunk, Metadata: copyMetadata(d.Metadata)})
		}
	}
	return out
}

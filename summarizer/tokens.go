package summarizer

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// NewTokenLength returns a LengthFunc counting cl100k_base tokens, for
// splitting by model tokens instead of characters.
func NewTokenLength() (LengthFunc, error) {
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	return func(text string) int {
		ids, _, err := enc.Encode(text)
		if err != nil {
			// Fall back to a rough 4-chars-per-token estimate.
			return CharLength(text) / 4
		}
		return len(ids)
	}, nil
}

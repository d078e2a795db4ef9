package summarizer

import (
	"fmt"
	"strings"
)

// numberedWords returns n unique fixed-width words: w0000 w0001 ...
func numberedWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return words
}

// paragraphText joins n unique words into paragraphs of perParagraph words.
func paragraphText(n, perParagraph int) string {
	words := numberedWords(n)
	var paragraphs []string
	for i := 0; i < len(words); i += perParagraph {
		end := i + perParagraph
		if end > len(words) {
			end = len(words)
		}
		paragraphs = append(paragraphs, strings.Join(words[i:end], " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

// longestOverlap returns the length of the longest suffix of a that is also a prefix of b.
func longestOverlap(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for k := max; k > 0; k-- {
		if a[len(a)-k:] == b[:k] {
			return k
		}
	}
	return 0
}

package summarizer

// Document is one unit of text handed to the LLM collaborator.
// Documents are created by the splitter and never mutated afterwards.
type Document struct {
	PageContent string
	Metadata    map[string]any
}

// Contents returns the page content of every document, in order.
func Contents(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.PageContent
	}
	return out
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

package summarizer

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func mustSplitter(t *testing.T, size, overlap int) *RecursiveSplitter {
	t.Helper()
	s, err := NewRecursiveSplitter(SplitterConfig{ChunkSize: size, ChunkOverlap: overlap})
	if err != nil {
		t.Fatalf("NewRecursiveSplitter(%d, %d) error = %v", size, overlap, err)
	}
	return s
}

func TestNewRecursiveSplitter_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  SplitterConfig
		wantErr bool
	}{
		{"defaults", DefaultSplitterConfig(), false},
		{"zero overlap", SplitterConfig{ChunkSize: 10}, false},
		{"zero size", SplitterConfig{ChunkSize: 0}, true},
		{"negative overlap", SplitterConfig{ChunkSize: 10, ChunkOverlap: -1}, true},
		{"overlap equals size", SplitterConfig{ChunkSize: 100, ChunkOverlap: 100}, true},
		{"overlap exceeds size", SplitterConfig{ChunkSize: 100, ChunkOverlap: 150}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecursiveSplitter(tt.config)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidChunkConfig) {
					t.Errorf("error = %v, want ErrInvalidChunkConfig", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewRecursiveSplitter_Defaults(t *testing.T) {
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)
	if s.ChunkSize() != 1000 || s.ChunkOverlap() != 100 {
		t.Errorf("got %d/%d, want 1000/100", s.ChunkSize(), s.ChunkOverlap())
	}
	if !reflect.DeepEqual(s.splitter.Separators, []string{"\n\n", "\n", " ", ""}) {
		t.Errorf("separators = %q", s.splitter.Separators)
	}
	if !s.splitter.KeepSeparator {
		t.Error("separators should stay attached to their pieces")
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
		want    []string
	}{
		{
			name: "blank input",
			size: 10, text: "  \n\t ",
			want: nil,
		},
		{
			name: "short text is one trimmed chunk",
			size: 100, text: "  Hello world.  ",
			want: []string{"Hello world."},
		},
		{
			name: "paragraphs merged up to size",
			size: 20, text: "aaaa bbbb\n\ncccc dddd\n\neeee",
			want: []string{"aaaa bbbb\n\ncccc dddd", "eeee"},
		},
		{
			name: "no separators falls back to characters",
			size: 10, text: "abcdefghijklmnopqrstuvwxy",
			want: []string{"abcdefghij", "klmnopqrst", "uvwxy"},
		},
		{
			name: "character fallback with overlap",
			size: 10, overlap: 3, text: "abcdefghijklmnopqrstuvwxy",
			want: []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxy"},
		},
		{
			name: "words with overlap",
			size: 11, overlap: 5, text: "aa bb cc dd ee ff",
			want: []string{"aa bb cc dd", "dd ee ff"},
		},
		{
			name: "multibyte runes counted as characters",
			size: 3, text: "héllo",
			want: []string{"hél", "lo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSplitter(t, tt.size, tt.overlap)
			got := s.SplitText(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitText(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitText_FiftyWordExample(t *testing.T) {
	text := strings.Join(numberedWords(50), " ")
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)

	chunks := s.SplitText(text)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk differs from input")
	}
	if got := SelectStrategy(text, DefaultWordThreshold); got != Stuff {
		t.Errorf("SelectStrategy() = %v, want stuff", got)
	}
}

func TestSplitText_TwoThousandWordExample(t *testing.T) {
	text := paragraphText(2000, 200)
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)

	chunks := s.SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want more than one", len(chunks))
	}
	if got := SelectStrategy(text, DefaultWordThreshold); got != MapReduce {
		t.Errorf("SelectStrategy() = %v, want map_reduce", got)
	}

	joined := strings.Join(chunks, " ")
	for _, w := range numberedWords(2000) {
		if !strings.Contains(joined, w) {
			t.Fatalf("word %s missing from chunks", w)
		}
	}
}

func TestSplitText_Properties(t *testing.T) {
	inputs := map[string]string{
		"paragraphs":       paragraphText(2000, 200),
		"short paragraphs": paragraphText(900, 15),
		"single line":      strings.Join(numberedWords(1200), " "),
		"lines":            strings.ReplaceAll(paragraphText(1500, 40), "\n\n", "\n"),
	}

	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)
			chunks := s.SplitText(text)
			if len(chunks) == 0 {
				t.Fatal("non-blank input produced no chunks")
			}

			sawOverlap := false
			for i, c := range chunks {
				if c == "" || c != strings.TrimSpace(c) {
					t.Errorf("chunk %d is empty or untrimmed: %q", i, c)
				}
				if n := CharLength(c); n > DefaultChunkSize {
					t.Errorf("chunk %d has %d chars, want <= %d", i, n, DefaultChunkSize)
				}
				if i > 0 {
					ov := longestOverlap(chunks[i-1], c)
					if ov > DefaultChunkOverlap {
						t.Errorf("chunks %d/%d overlap by %d chars, want <= %d", i-1, i, ov, DefaultChunkOverlap)
					}
					if ov > 0 {
						sawOverlap = true
					}
				}
			}
			if name == "single line" && !sawOverlap {
				t.Error("expected overlapping neighbours when splitting on spaces")
			}
		})
	}
}

func TestSplitText_Idempotent(t *testing.T) {
	s := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap)
	texts := []string{
		paragraphText(2000, 200),
		strings.ReplaceAll(paragraphText(1500, 40), "\n\n", "\n"),
		strings.Repeat("x", 3500),
	}

	for _, text := range texts {
		for i, chunk := range s.SplitText(text) {
			again := s.SplitText(chunk)
			if len(again) != 1 || again[0] != chunk {
				t.Fatalf("re-splitting chunk %d gave %d chunks, want exactly the chunk", i, len(again))
			}
		}
	}
}

func TestCreateDocuments(t *testing.T) {
	s := mustSplitter(t, 10, 0)

	docs := s.CreateDocuments("hello")
	if len(docs) != 1 || docs[0].PageContent != "hello" || docs[0].Metadata != nil {
		t.Fatalf("CreateDocuments(single) = %+v", docs)
	}

	docs = s.CreateDocuments("first", "   ", "second")
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[1].Metadata["source_index"] != 2 {
		t.Errorf("source_index = %v, want 2", docs[1].Metadata["source_index"])
	}
}

func TestSplitDocuments(t *testing.T) {
	s := mustSplitter(t, 10, 0)
	meta := map[string]any{"source": "upload.pdf"}

	out := s.SplitDocuments([]Document{{PageContent: "abcdefghijklmno", Metadata: meta}})
	if len(out) != 2 {
		t.Fatalf("got %d docs, want 2", len(out))
	}
	for _, d := range out {
		if d.Metadata["source"] != "upload.pdf" {
			t.Errorf("metadata not carried: %+v", d.Metadata)
		}
	}

	out[0].Metadata["source"] = "changed"
	if meta["source"] != "upload.pdf" {
		t.Error("SplitDocuments should copy metadata, not share it")
	}

	// Documents produced by the splitter re-split to themselves.
	docs := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap).CreateDocuments(paragraphText(2000, 200))
	again := mustSplitter(t, DefaultChunkSize, DefaultChunkOverlap).SplitDocuments(docs)
	if !reflect.DeepEqual(Contents(docs), Contents(again)) {
		t.Error("SplitDocuments(CreateDocuments(x)) should equal CreateDocuments(x)")
	}
}

func TestSplitText_KeepsInvalidUTF8Bytes(t *testing.T) {
	text := strings.Repeat("a\xffb\xfe", 10)
	chunks := mustSplitter(t, 4, 0).SplitText(text)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for _, c := range chunks {
		if strings.Contains(c, "\uFFFD") {
			t.Errorf("chunk %q holds a replacement character", c)
		}
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Errorf("chunks joined = %q, want the original bytes %q", got, text)
	}
}

func TestNewTokenLength(t *testing.T) {
	length, err := NewTokenLength()
	if err != nil {
		t.Fatalf("NewTokenLength() error = %v", err)
	}
	if got := length("hello world"); got != 2 {
		t.Errorf("length(hello world) = %d, want 2", got)
	}

	s, err := NewRecursiveSplitter(SplitterConfig{ChunkSize: 50, ChunkOverlap: 5, Length: length})
	if err != nil {
		t.Fatalf("NewRecursiveSplitter() error = %v", err)
	}
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	chunks := s.SplitText(text)
	if len(chunks) < 2 {
		t.Errorf("got %d chunks, want several for ~400 tokens at 50 per chunk", len(chunks))
	}
}

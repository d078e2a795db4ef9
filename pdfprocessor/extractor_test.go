package pdfprocessor

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"smartsummarizer/pdfprocessor/pdftest"
)

func TestNewExtractor_Defaults(t *testing.T) {
	e := NewExtractor(Options{MaxPages: -3})
	if e.opts.Separator != "\n" || e.opts.MaxPages != 0 {
		t.Errorf("opts = %+v, want newline separator and no page limit", e.opts)
	}
	if got := NewExtractor(Options{Separator: "\n\n"}).opts.Separator; got != "\n\n" {
		t.Errorf("Separator = %q, want a blank line", got)
	}
}

func TestExtractBytes(t *testing.T) {
	res, err := NewDefaultExtractor().ExtractBytes(pdftest.Build("First page text", "", "Third page text"))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}

	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
	if !slices.Equal(res.Read, []int{1, 3}) || !slices.Equal(res.Skipped, []int{2}) {
		t.Errorf("Read = %v, Skipped = %v, want [1 3] and [2]", res.Read, res.Skipped)
	}

	parts := strings.Split(res.Text, "\n")
	if len(parts) != 2 || !strings.Contains(parts[0], "First") || !strings.Contains(parts[1], "Third") {
		t.Errorf("Text = %q, want two pages joined by a newline", res.Text)
	}
}

func TestExtractBytes_MaxPages(t *testing.T) {
	res, err := NewExtractor(Options{MaxPages: 2}).ExtractBytes(pdftest.Build("one", "two", "three"))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if res.Pages != 3 || len(res.Read) != 2 {
		t.Errorf("Pages = %d, Read = %v, want 3 pages with 2 read", res.Pages, res.Read)
	}
	if strings.Contains(res.Text, "three") {
		t.Errorf("Text = %q should stop at page 2", res.Text)
	}
}

func TestExtractBytes_Separator(t *testing.T) {
	res, err := NewExtractor(Options{Separator: "\n\n"}).ExtractBytes(pdftest.Build("alpha", "beta"))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if !strings.Contains(res.Text, "\n\n") {
		t.Errorf("Text = %q, want pages separated by a blank line", res.Text)
	}
}

func TestExtractBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyData},
		{"not a pdf", []byte("hello, this is not a PDF"), ErrInvalidPDF},
		{"truncated", pdftest.Build("text")[:40], ErrInvalidPDF},
		{"only blank pages", pdftest.Build("", ""), ErrNoPDFContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDefaultExtractor().ExtractBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtractReader_Limit(t *testing.T) {
	data := pdftest.Build("Some text")

	if _, err := NewDefaultExtractor().ExtractReader(bytes.NewReader(data), int64(len(data)-1)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}

	for _, limit := range []int64{int64(len(data)), 0} {
		res, err := NewDefaultExtractor().ExtractReader(bytes.NewReader(data), limit)
		if err != nil {
			t.Fatalf("ExtractReader(limit %d) error = %v", limit, err)
		}
		if !strings.Contains(res.Text, "Some text") {
			t.Errorf("Text = %q", res.Text)
		}
	}
}

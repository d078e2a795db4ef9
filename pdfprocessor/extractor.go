// Package pdfprocessor turns uploaded PDFs into plain text for summarizing.
package pdfprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	ErrEmptyData    = errors.New("empty PDF")
	ErrInvalidPDF   = errors.New("invalid PDF document")
	ErrNoPDFContent = errors.New("no text content found in PDF")
	ErrTooLarge     = errors.New("PDF exceeds size limit")
)

// Options tune extraction. The zero value reads every page, joins pages with
// a newline and skips pages that cannot be parsed.
type Options struct {
	// MaxPages stops after the first N pages; 0 reads all of them.
	MaxPages int

	Separator string

	// Strict fails the document on the first unreadable page.
	Strict bool
}

// Result is the text of one document.
type Result struct {
	Text string

	// Pages is the page count of the document, including pages not read.
	Pages int

	// Read lists the 1-based pages that contributed text. Skipped lists the
	// ones that were blank or unreadable; Errors has one entry per unreadable page.
	Read    []int
	Skipped []int
	Errors  []error
}

type Extractor struct {
	opts Options
}

func NewExtractor(opts Options) *Extractor {
	if opts.Separator == "" {
		opts.Separator = "\n"
	}
	if opts.MaxPages < 0 {
		opts.MaxPages = 0
	}
	return &Extractor{opts: opts}
}

func NewDefaultExtractor() *Extractor {
	return NewExtractor(Options{})
}

// ExtractBytes reads an in-memory PDF. A document with no text on any page
// returns ErrNoPDFContent along with the partial Result.
func (e *Extractor) ExtractBytes(data []byte) (res *Result, err error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	// The parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrInvalidPDF, rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return e.read(r)
}

// ExtractReader buffers src, failing with ErrTooLarge past limit bytes.
// limit <= 0 means no limit.
func (e *Extractor) ExtractReader(src io.Reader, limit int64) (*Result, error) {
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return e.ExtractBytes(data)
}

func (e *Extractor) read(r *pdf.Reader) (*Result, error) {
	res := &Result{Pages: r.NumPage()}
	last := res.Pages
	if e.opts.MaxPages > 0 {
		last = min(last, e.opts.MaxPages)
	}

	var texts []string
	for n := 1; n <= last; n++ {
		text, err := pageText(r, n)
		switch {
		case err != nil:
			err = fmt.Errorf("page %d: %w", n, err)
			if e.opts.Strict {
				return res, err
			}
			res.Errors = append(res.Errors, err)
			res.Skipped = append(res.Skipped, n)
		case text == "":
			res.Skipped = append(res.Skipped, n)
		default:
			res.Read = append(res.Read, n)
			texts = append(texts, text)
		}
	}

	res.Text = strings.Join(texts, e.opts.Separator)
	if res.Text == "" {
		return res, ErrNoPDFContent
	}
	return res, nil
}

// pageText returns the trimmed text of page n, "" for a page without content.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("failed to extract text: %v", rec)
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

package pdfprocessor

import "github.com/gabriel-vasile/mimetype"

// SniffLength is how many leading bytes IsPDF needs to see.
const SniffLength = 3072

// IsPDF reports whether head, the first bytes of a file, is a PDF.
// The file name is ignored.
func IsPDF(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	return mimetype.Detect(head).Is("application/pdf")
}

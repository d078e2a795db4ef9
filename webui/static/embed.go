// Package static holds the summarizer page: one HTML file, its script and
// its stylesheet, compiled into the binary.
package static

import "embed"

//go:embed index.html app.js style.css
var Files embed.FS

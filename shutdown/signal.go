package shutdown

import (
	"os"
	"syscall"

	"smartsummarizer/core"
)

// ExitCodeForSignal follows the shell convention of 128 plus the signal
// number, so SIGINT exits 130 and SIGTERM 143.
func ExitCodeForSignal(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok && s > 0 {
		return 128 + int(s)
	}
	return core.ExitCodeError
}

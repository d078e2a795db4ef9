package shutdown

import (
	"context"
	"errors"
	"io"
	"net/http"

	"smartsummarizer/logging"
)

// Hook releases one resource. ctx carries what is left of the shutdown
// deadline. Hooks run once.
type Hook func(ctx context.Context) error

// HTTPServer stops srv, letting open requests finish within the deadline.
func HTTPServer(srv *http.Server) Hook {
	return func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func Closer(c io.Closer) Hook {
	return func(context.Context) error { return c.Close() }
}

// Func wraps a cleanup that cannot fail.
func Func(fn func()) Hook {
	return func(context.Context) error {
		fn()
		return nil
	}
}

// SyncLogger flushes the logger. Sync fails on terminals, so the error is dropped.
func SyncLogger(logger *logging.Logger) Hook {
	return func(context.Context) error {
		_ = logger.Sync()
		return nil
	}
}

package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation is how the JSON log file rolls over. Non-positive sizes, counts
// and ages take the values in DefaultRotation.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation keeps five gzipped 100 MB files for up to 30 days.
var DefaultRotation = Rotation{MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 30, Compress: true}

func (r Rotation) orDefault() Rotation {
	if r.MaxSizeMB <= 0 {
		r.MaxSizeMB = DefaultRotation.MaxSizeMB
	}
	if r.MaxBackups <= 0 {
		r.MaxBackups = DefaultRotation.MaxBackups
	}
	if r.MaxAgeDays <= 0 {
		r.MaxAgeDays = DefaultRotation.MaxAgeDays
	}
	return r
}

func (r Rotation) lumberjack(path string) *lumberjack.Logger {
	r = r.orDefault()
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.MaxSizeMB,
		MaxBackups: r.MaxBackups,
		MaxAge:     r.MaxAgeDays,
		Compress:   r.Compress,
	}
}

// RotatingFile opens path for logging, creating its directory.
func RotatingFile(path string, r Rotation) (zapcore.WriteSyncer, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return zapcore.AddSync(r.lumberjack(path)), nil
}

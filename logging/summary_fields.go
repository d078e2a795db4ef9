package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SummaryMetrics describes one summarization run. It implements
// zapcore.ObjectMarshaler so a run logs as a single nested object.
type SummaryMetrics struct {
	Provider   string
	Model      string
	Strategy   string
	Source     string // "text", "pdf" or "stdin"
	InputChars int
	Words      int
	Chunks     int
	CacheHit   bool

	SplitDuration time.Duration
	LLMDuration   time.Duration
	TotalDuration time.Duration
}

// MarshalLogObject encodes durations in milliseconds.
func (m SummaryMetrics) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("provider", m.Provider)
	enc.AddString("model", m.Model)
	enc.AddString("strategy", m.Strategy)
	if m.Source != "" {
		enc.AddString("source", m.Source)
	}
	enc.AddInt("input_chars", m.InputChars)
	enc.AddInt("words", m.Words)
	enc.AddInt("chunks", m.Chunks)
	enc.AddBool("cache_hit", m.CacheHit)
	enc.AddInt64("split_ms", m.SplitDuration.Milliseconds())
	enc.AddInt64("llm_ms", m.LLMDuration.Milliseconds())
	enc.AddInt64("total_ms", m.TotalDuration.Milliseconds())
	return nil
}

// SummaryFields wraps metrics as a ready-to-use field.
//
// Example:
//
//	logger.Info("summary complete", logging.SummaryFields(metrics))
func SummaryFields(metrics SummaryMetrics) zap.Field {
	return zap.Object("summary", metrics)
}

// RequestFields returns the fields logged for each HTTP request.
func RequestFields(method, path string, status int, duration time.Duration, remote string) []zap.Field {
	return []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
		zap.String("remote", remote),
	}
}

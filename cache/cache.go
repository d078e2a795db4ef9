// Package cache stores finished summaries keyed by input text and session
// fingerprint, so that resubmitting the same document is answered without
// calling the LLM again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendLRU   = "lru"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// ErrUnknownBackend is returned by New for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Entry is one cached summary.
type Entry struct {
	Summary   string    `json:"summary"`
	Strategy  string    `json:"strategy"`
	Words     int       `json:"words"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is implemented by every backend. A miss is (Entry{}, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry) error
	Close() error
}

// Config selects and sizes a backend.
type Config struct {
	Backend  string
	Size     int
	TTL      time.Duration
	RedisURL string
}

// Key derives the cache key for a text under a session fingerprint.
func Key(text, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds the backend named in cfg.
func New(cfg Config) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendLRU, "":
		return NewLRU(cfg.Size, cfg.TTL), nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires REDIS_URL")
		}
		return NewRedisFromURL(cfg.RedisURL, cfg.TTL)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (Entry, bool, error) { return Entry{}, false, nil }
func (Nop) Set(context.Context, string, Entry) error         { return nil }
func (Nop) Close() error                                     { return nil }

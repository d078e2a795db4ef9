package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKey(t *testing.T) {
	a := Key("some text", "groq|llama3-8b-8192")
	if len(a) != 64 {
		t.Fatalf("Key length = %d, want 64", len(a))
	}
	if a != Key("some text", "groq|llama3-8b-8192") {
		t.Error("Key is not deterministic")
	}
	if a == Key("some text", "openai|gpt-4o-mini") {
		t.Error("different fingerprints should give different keys")
	}
	if a == Key("other text", "groq|llama3-8b-8192") {
		t.Error("different texts should give different keys")
	}
}

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		want    string
	}{
		{"default is lru", Config{}, nil, "*cache.LRU"},
		{"lru", Config{Backend: "LRU", Size: 4}, nil, "*cache.LRU"},
		{"none", Config{Backend: "none"}, nil, "cache.Nop"},
		{"redis", Config{Backend: "redis", RedisURL: "redis://" + mr.Addr()}, nil, "*cache.Redis"},
		{"unknown", Config{Backend: "memcached"}, ErrUnknownBackend, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer c.Close()
			if got := typeName(c); got != tt.want {
				t.Errorf("New() type = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := New(Config{Backend: "redis"}); err == nil {
		t.Error("redis without URL should fail")
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *LRU:
		return "*cache.LRU"
	case *Redis:
		return "*cache.Redis"
	case Nop:
		return "cache.Nop"
	}
	return "unknown"
}

func exerciseCache(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	want := Entry{Summary: "short", Strategy: "stuff", Words: 12, Chunks: 1, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := c.Set(ctx, "k", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get(k) = ok %v, err %v", ok, err)
	}
	if got.Summary != want.Summary || got.Strategy != want.Strategy ||
		got.Words != want.Words || got.Chunks != want.Chunks || !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("Get(k) = %+v, want %+v", got, want)
	}
}

func TestLRU(t *testing.T) {
	c := NewLRU(2, 0)
	exerciseCache(t, c)

	ctx := context.Background()
	_ = c.Set(ctx, "a", Entry{Summary: "a"})
	_ = c.Set(ctx, "b", Entry{Summary: "b"})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("oldest entry should have been evicted")
	}
}

func TestLRU_Expiry(t *testing.T) {
	c := NewLRU(4, 20*time.Millisecond)
	ctx := context.Background()
	_ = c.Set(ctx, "k", Entry{Summary: "s"})
	time.Sleep(60 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	exerciseCache(t, c)

	if ttl := mr.TTL(keyPrefix + "k"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("entry should have expired")
	}
}

func TestRedis_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	defer c.Close()

	_ = mr.Set(keyPrefix+"bad", "{not json")
	if _, _, err := c.Get(context.Background(), "bad"); err == nil {
		t.Error("expected decode error")
	}
}

func TestRedis_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), 0)
	defer c.Close()
	mr.Close()

	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Error("expected error when redis is down")
	}
}

func TestNop(t *testing.T) {
	var c Nop
	ctx := context.Background()
	_ = c.Set(ctx, "k", Entry{Summary: "s"})
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Nop should never hit")
	}
}

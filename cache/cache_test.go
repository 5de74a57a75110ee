package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ogcard/config"
)

// exercise runs the same contract checks against every backend.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if err := c.Set(ctx, "a", []byte("alpha"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, ok, err := c.Get(ctx, "a")
	if err != nil || !ok || !bytes.Equal(data, []byte("alpha")) {
		t.Fatalf("Get(a) = %q, %v, %v", data, ok, err)
	}
	if err := c.Set(ctx, "a", []byte("beta"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if data, _, _ := c.Get(ctx, "a"); string(data) != "beta" {
		t.Errorf("overwritten value = %q", data)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("deleted entry is still present")
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete() of missing entry error = %v", err)
	}
}

func TestNull(t *testing.T) {
	var c Null
	if err := c.Set(context.Background(), "a", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(context.Background(), "a"); ok {
		t.Error("null cache must always miss")
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory(10))
}

func TestMemory_Expiration(t *testing.T) {
	c := NewMemory(0)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("x"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("y"), 0)

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("expired entry returned")
	}
	if _, ok, _ := c.Get(ctx, "forever"); !ok {
		t.Error("entry without ttl expired")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemory_Eviction(t *testing.T) {
	c := NewMemory(2)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	// touch a so b becomes least recently used
	_, _, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("least recently used entry was not evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("entry %q was evicted", k)
		}
	}
}

func TestMemory_Concurrent(t *testing.T) {
	c := NewMemory(8)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Go(func() {
			key := Key("k", string(rune('a'+i%4)))
			_ = c.Set(ctx, key, []byte{byte(i)}, 0)
			_, _, _ = c.Get(ctx, key)
		})
	}
	wg.Wait()
	if c.Len() > 8 {
		t.Errorf("Len() = %d exceeds bound", c.Len())
	}
}

func TestFile(t *testing.T) {
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, c)
}

func TestFile_Expiration(t *testing.T) {
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry was not removed")
	}
}

func TestFile_BrokenEntry(t *testing.T) {
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{1, 2}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(context.Background(), "k"); ok || err != nil {
		t.Errorf("broken entry: ok=%v err=%v", ok, err)
	}
}

func TestFile_CanceledContext(t *testing.T) {
	c, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Set(ctx, "k", nil, 0); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedis(config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"})
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	exercise(t, c)

	if err := c.Set(context.Background(), "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("test:k") {
		t.Error("key was not prefixed")
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := c.Get(context.Background(), "k"); ok {
		t.Error("expired entry returned")
	}
}

func TestRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := NewRedis(config.RedisConfig{Addr: addr})
	defer c.Close()
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Error("expected error when redis is down")
	}
}

func TestKey(t *testing.T) {
	if Key("a", "b") == Key("ab") {
		t.Error("parts must be separated")
	}
	if Key("a", "b") != Key("a", "b") {
		t.Error("Key is not deterministic")
	}
	if len(Key("x")) != 64 {
		t.Errorf("unexpected key length %d", len(Key("x")))
	}
}

func TestNew(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  config.CacheConfig
		want any
	}{
		{"none", config.CacheConfig{Kind: config.CacheKindNone}, Null{}},
		{"memory", config.CacheConfig{Kind: config.CacheKindMemory, MaxEntries: 4}, (*Memory)(nil)},
		{"file", config.CacheConfig{Kind: config.CacheKindFile, Dir: t.TempDir()}, (*File)(nil)},
		{"redis", config.CacheConfig{Kind: config.CacheKindRedis, Redis: config.RedisConfig{Addr: mr.Addr()}}, (*Redis)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, log)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer c.Close()
			switch tt.want.(type) {
			case Null:
				if _, ok := c.(Null); !ok {
					t.Errorf("got %T", c)
				}
			case *Memory:
				if _, ok := c.(*Memory); !ok {
					t.Errorf("got %T", c)
				}
			case *File:
				if _, ok := c.(*File); !ok {
					t.Errorf("got %T", c)
				}
			case *Redis:
				if _, ok := c.(*Redis); !ok {
					t.Errorf("got %T", c)
				}
			}
		})
	}

	if _, err := New(config.CacheConfig{Kind: config.CacheKind(42)}, nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

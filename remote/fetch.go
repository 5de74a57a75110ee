// Package remote downloads resources referenced by rendered markup: Google
// fonts, emoji images and <img> sources.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ogcard/cache"
	"ogcard/misc"
)

// DefaultMaxSize limits size of a single downloaded resource.
const DefaultMaxSize = 32 << 20

// DefaultTimeout bounds single download including retries.
const DefaultTimeout = 2 * time.Minute

// StatusError is returned for unexpected HTTP responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.URL)
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Request describes single download.
type Request struct {
	URL    string
	Header http.Header
	// TTL for cached result, zero means entry never expires.
	TTL time.Duration
}

// Fetcher downloads resources through the cache. Concurrent requests for the
// same URL share single download. Safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	cache    cache.Cache
	log      *zap.Logger
	group    singleflight.Group
	attempts int
	delay    time.Duration
	timeout  time.Duration
	maxSize  int64
}

// NewFetcher creates fetcher, nil client means http.DefaultClient and nil
// cache disables caching.
func NewFetcher(client *http.Client, c cache.Cache, log *zap.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if c == nil {
		c = cache.Null{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client:   client,
		cache:    c,
		log:      log.Named("fetch"),
		attempts: 3,
		delay:    500 * time.Millisecond,
		timeout:  DefaultTimeout,
		maxSize:  DefaultMaxSize,
	}
}

// WithTimeout changes limit for single download including retries.
func (f *Fetcher) WithTimeout(d time.Duration) *Fetcher {
	if d > 0 {
		f.timeout = d
	}
	return f
}

// WithRetry changes retry policy, mostly useful for tests.
func (f *Fetcher) WithRetry(attempts int, delay time.Duration) *Fetcher {
	f.attempts, f.delay = max(attempts, 1), delay
	return f
}

// Get returns resource body, either from cache or downloaded.
func (f *Fetcher) Get(ctx context.Context, req Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cache.Key("remote", req.URL)

	if data, ok, err := f.cache.Get(ctx, key); err != nil {
		f.log.Warn("Unable to read cache, downloading", zap.String("url", req.URL), zap.Error(err))
	} else if ok {
		f.log.Debug("Cache hit", zap.String("url", req.URL))
		return data, nil
	}

	// download outlives the caller which started it, other callers may be
	// waiting for the same result
	ch := f.group.DoChan(key, func() (any, error) {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		data, err := f.download(dctx, req)
		if err != nil {
			return nil, err
		}
		if err := f.cache.Set(dctx, key, data, req.TTL); err != nil {
			f.log.Warn("Unable to store downloaded resource in cache", zap.String("url", req.URL), zap.Error(err))
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.log.Debug("Download shared", zap.String("url", req.URL))
		}
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) download(ctx context.Context, req Request) (data []byte, err error) {
	defer func(start time.Time) {
		if err == nil {
			f.log.Debug("Downloaded", zap.String("url", req.URL), zap.Int("size", len(data)), zap.Duration("elapsed", time.Since(start)))
		}
	}(time.Now())

	delay := f.delay
	for i := range f.attempts {
		if data, err = f.once(ctx, req); err == nil {
			return data, nil
		}
		var re *retryableError
		if !errors.As(err, &re) {
			return nil, err
		}
		if i == f.attempts-1 {
			break
		}
		f.log.Debug("Retrying download", zap.String("url", req.URL), zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return nil, errors.Unwrap(err)
}

func (f *Fetcher) once(ctx context.Context, req Request) ([]byte, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	for k, v := range req.Header {
		r.Header[k] = v
	}
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", misc.GetAppName()+"/"+misc.GetVersion())
	}

	resp, err := f.client.Do(r)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{fmt.Errorf("unable to download %s: %w", req.URL, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		serr := &StatusError{URL: req.URL, Code: resp.StatusCode}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, &retryableError{serr}
		}
		return nil, serr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, &retryableError{fmt.Errorf("unable to read %s: %w", req.URL, err)}
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("resource %s is larger than %d bytes", req.URL, f.maxSize)
	}
	return data, nil
}

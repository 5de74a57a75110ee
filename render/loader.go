package render

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ogcard/remote"
)

var errLocalImages = errors.New("local images are not allowed")

// imageLoader resolves image sources: data URIs, http(s) URLs through the
// fetcher and, when base directory is set, local files.
type imageLoader struct {
	fetch *remote.Fetcher
	ttl   time.Duration
	dir   string
}

func (l *imageLoader) Load(ctx context.Context, src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return l.fetch.Get(ctx, remote.Request{URL: src, TTL: l.ttl})
	}

	if l.dir == "" {
		return nil, fmt.Errorf("unable to load %q: %w", src, errLocalImages)
	}
	name := strings.TrimPrefix(src, "file://")
	if !filepath.IsAbs(name) {
		name = filepath.Join(l.dir, filepath.FromSlash(name))
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read image: %w", err)
	}
	return data, nil
}

// decodeDataURI returns payload of data: URI, both base64 and percent
// encoded forms are accepted.
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		payload = strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\n', '\r':
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
				return nil, fmt.Errorf("unable to decode data uri: %w", err)
			}
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to decode data uri: %w", err)
	}
	return []byte(s), nil
}

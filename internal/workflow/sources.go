package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/verdant/pkg/guard"
)

// IDPlaceholder is replaced by the escaped image identifier in source patterns.
const IDPlaceholder = "{id}"

// HTTPSource fetches images from an HTTP image service through the guard.
// The caller's Authorization header is forwarded unchanged.
type HTTPSource struct {
	exec    *guard.Executor
	pattern string
	logger  *slog.Logger
}

// NewHTTPSource creates a Fetcher for URLs built from pattern, e.g.
// "http://image-service:8000/images/{id}/download".
func NewHTTPSource(exec *guard.Executor, pattern string, logger *slog.Logger) (*HTTPSource, error) {
	if !strings.Contains(pattern, IDPlaceholder) {
		return nil, fmt.Errorf("url pattern %q missing %s", pattern, IDPlaceholder)
	}
	return &HTTPSource{
		exec:    exec,
		pattern: pattern,
		logger:  logger.With("source", "http"),
	}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context, imageID, credential string) ([]byte, bool) {
	target := strings.ReplaceAll(s.pattern, IDPlaceholder, url.PathEscape(imageID))

	req := guard.Request{Headers: http.Header{}}
	if credential != "" {
		req.Headers.Set("Authorization", credential)
	}

	resp := s.exec.Get(ctx, target, req)
	if !resp.Available {
		return nil, false
	}

	s.logger.DebugContext(ctx, "image fetched",
		"image_id", imageID,
		"attempts", resp.Attempts,
		"content_type", resp.Header.Get("Content-Type"),
	)
	return resp.Body, true
}

// BlobReader is the subset of storage.System a BlobSource needs.
type BlobReader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// BlobSource fetches images from blob storage through the guard. Blob
// access uses the service's own storage credential, not the caller's.
type BlobSource struct {
	exec    *guard.Executor
	store   BlobReader
	pattern string
	maxSize int64
	logger  *slog.Logger
}

// NewBlobSource creates a Fetcher reading keys built from pattern, e.g.
// "images/{id}". Blobs larger than maxSize are rejected.
func NewBlobSource(exec *guard.Executor, store BlobReader, pattern string, maxSize int64, logger *slog.Logger) (*BlobSource, error) {
	if !strings.Contains(pattern, IDPlaceholder) {
		return nil, fmt.Errorf("key pattern %q missing %s", pattern, IDPlaceholder)
	}
	return &BlobSource{
		exec:    exec,
		store:   store,
		pattern: pattern,
		maxSize: maxSize,
		logger:  logger.With("source", "blob"),
	}, nil
}

func (s *BlobSource) Fetch(ctx context.Context, imageID, _ string) ([]byte, bool) {
	if strings.ContainsAny(imageID, "/\\") {
		s.logger.WarnContext(ctx, "rejected image id", "image_id", imageID)
		return nil, false
	}
	key := strings.ReplaceAll(s.pattern, IDPlaceholder, imageID)

	res := s.exec.Do(ctx, "blob_download", func(ctx context.Context) ([]byte, error) {
		return s.download(ctx, key)
	})
	if !res.Available {
		return nil, false
	}

	s.logger.DebugContext(ctx, "image fetched", "key", key, "attempts", res.Attempts)
	return res.Value, true
}

func (s *BlobSource) download(ctx context.Context, key string) ([]byte, error) {
	body, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("blob %s: %w", key, guard.ErrBodyTooLarge)
	}
	return data, nil
}

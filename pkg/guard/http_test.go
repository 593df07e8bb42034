package guard_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/verdant/pkg/guard"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExecutor(t *testing.T, retry guard.RetryPolicy, opts ...guard.Option) *guard.Executor {
	t.Helper()
	e, err := guard.New(
		retry,
		guard.TimeoutPolicy{Ceiling: time.Second, MaxConcurrent: 1},
		discardLogger(),
		opts...,
	)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	return e
}

func TestNewRejectsInvalidPolicies(t *testing.T) {
	_, err := guard.New(guard.RetryPolicy{}, guard.TimeoutPolicy{Ceiling: time.Second, MaxConcurrent: 1}, discardLogger())
	if !errors.Is(err, guard.ErrInvalidPolicy) {
		t.Errorf("retry err = %v", err)
	}

	_, err = guard.New(guard.RetryPolicy{Attempts: 1, Timeout: time.Second}, guard.TimeoutPolicy{}, discardLogger())
	if !errors.Is(err, guard.ErrInvalidPolicy) {
		t.Errorf("timeout err = %v", err)
	}
}

func TestGetAlwaysFailing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := newExecutor(t, guard.RetryPolicy{Attempts: 3, Backoff: 5 * time.Millisecond, Timeout: time.Second})

	resp := e.Get(context.Background(), srv.URL, guard.Request{})

	if resp.Available {
		t.Fatal("response should be unavailable")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("hits = %d, want 3", got)
	}
	if resp.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", resp.Attempts)
	}
	if resp.Body != nil {
		t.Error("unavailable response must not carry a body")
	}

	var se *guard.StatusError
	if !errors.As(resp.Err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("err = %v, want status 503", resp.Err)
	}
}

func TestGetSucceedsAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	e := newExecutor(t, guard.RetryPolicy{Attempts: 3, Timeout: time.Second})

	resp := e.Get(context.Background(), srv.URL, guard.Request{})

	if !resp.Available {
		t.Fatalf("response unavailable: %v", resp.Err)
	}
	if resp.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", resp.Attempts)
	}
	if string(resp.Body) != "image-bytes" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %s", ct)
	}
}

func TestGetForwardsHeadersAndParams(t *testing.T) {
	var gotAuth, gotSize, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSize = r.URL.Query().Get("size")
		gotFormat = r.URL.Query().Get("format")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	e := newExecutor(t, guard.RetryPolicy{Attempts: 1, Timeout: time.Second})

	resp := e.Get(context.Background(), srv.URL+"/images/1?format=png", guard.Request{
		Headers: http.Header{"Authorization": {"Bearer token"}},
		Params:  url.Values{"size": {"large"}},
	})

	if !resp.Available {
		t.Fatalf("response unavailable: %v", resp.Err)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotSize != "large" || gotFormat != "png" {
		t.Errorf("query size=%q format=%q", gotSize, gotFormat)
	}
}

func TestGetPerAttemptTimeout(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	policy := guard.RetryPolicy{Attempts: 2, Backoff: 10 * time.Millisecond, Timeout: 50 * time.Millisecond}
	e := newExecutor(t, policy)

	start := time.Now()
	resp := e.Get(context.Background(), srv.URL, guard.Request{})
	elapsed := time.Since(start)

	if resp.Available {
		t.Fatal("response should be unavailable")
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if elapsed > policy.Ceiling()+500*time.Millisecond {
		t.Errorf("elapsed = %v, exceeds ceiling %v", elapsed, policy.Ceiling())
	}
}

func TestGetBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	e := newExecutor(t, guard.RetryPolicy{Attempts: 2, Timeout: time.Second}, guard.WithMaxBodyBytes(16))

	resp := e.Get(context.Background(), srv.URL, guard.Request{})

	if resp.Available {
		t.Fatal("oversized body must not be returned as success")
	}
	if !errors.Is(resp.Err, guard.ErrBodyTooLarge) {
		t.Errorf("err = %v, want ErrBodyTooLarge", resp.Err)
	}
}

func TestGetInvalidURL(t *testing.T) {
	e := newExecutor(t, guard.RetryPolicy{Attempts: 3, Timeout: time.Second})

	resp := e.Get(context.Background(), "://bad", guard.Request{})
	if resp.Available || resp.Err == nil {
		t.Errorf("resp = %+v, want unavailable with error", resp)
	}
}

func TestDo(t *testing.T) {
	e := newExecutor(t, guard.RetryPolicy{Attempts: 3, Timeout: time.Second})

	calls := 0
	res := e.Do(context.Background(), "blob_download", func(context.Context) ([]byte, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return []byte("blob"), nil
	})

	if !res.Available || string(res.Value) != "blob" {
		t.Errorf("res = %+v", res)
	}
	if res.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", res.Attempts)
	}
}

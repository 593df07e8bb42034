package main

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/verdant/internal/config"
	"github.com/JaimeStill/verdant/pkg/lifecycle"
)

func serverConfig(t *testing.T, port int) *config.ServerConfig {
	t.Helper()
	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: port}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return cfg
}

func TestHTTPServerStartFailsOnTakenPort(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer taken.Close()

	port := taken.Addr().(*net.TCPAddr).Port
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := newHTTPServer(serverConfig(t, port), http.NotFoundHandler(), logger)

	lc := lifecycle.New()
	err = srv.Start(lc)
	if err == nil {
		t.Fatal("expected bind error, got nil")
	}
	if !strings.Contains(err.Error(), "listen 127.0.0.1:") {
		t.Errorf("error %q does not name the address", err)
	}
}

func TestHTTPServerServesUntilShutdown(t *testing.T) {
	free, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := free.Addr().(*net.TCPAddr).Port
	free.Close()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := serverConfig(t, port)
	srv := newHTTPServer(cfg, handler, logger)

	if srv.http.ReadHeaderTimeout != 10*time.Second || srv.http.IdleTimeout != 2*time.Minute {
		t.Errorf("timeouts not applied: header %v, idle %v", srv.http.ReadHeaderTimeout, srv.http.IdleTimeout)
	}
	if srv.http.ErrorLog == nil {
		t.Error("error log should route through slog")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	lc := lifecycle.New()
	if err := srv.Start(lc); err != nil {
		t.Fatalf("start: %v", err)
	}

	resp, err := client.Get("http://" + cfg.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", resp.StatusCode)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if _, err := client.Get("http://" + cfg.Addr() + "/healthz"); err == nil {
		t.Error("server still accepting after shutdown")
	}
}

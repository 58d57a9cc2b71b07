package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestServer_StartAndShutdown(t *testing.T) {
	env := newTestEnv(t)
	srv := NewServer(ServerConfig{
		Port:           0,
		CatalogService: env.svc,
		Sessions:       env.sessions,
		Repository:     env.repo,
		Logger:         testLogger(),
		StartTime:      time.Now(),
		Version:        "test",
	})

	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if !strings.HasPrefix(srv.Addr(), "127.0.0.1:") || strings.HasSuffix(srv.Addr(), ":0") {
		t.Fatalf("Addr() = %q, want a bound loopback port", srv.Addr())
	}

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Start() returned %v after shutdown", err)
	}
}

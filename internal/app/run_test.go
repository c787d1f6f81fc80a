package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invernadero-server/internal/config"
	"invernadero-server/internal/modules/telemetry/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AppEnv:           "dev",
		LogLevel:         slog.LevelInfo,
		HTTPMaxBodyBytes: 1 << 20,
		StoreDriver:      config.DriverSQLite,
		StoreTimeout:     2 * time.Second,
		Path:             filepath.Join(t.TempDir(), "invernadero.db"),
		MaxOpenConns:     1,
		MaxIdleConns:     1,
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	store, closeStore, err := openStore(context.Background(), sqliteConfig(t), discardLogger())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	t.Cleanup(closeStore)

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	ids, err := store.InsertMany(ctx, []types.Record{{{Key: types.FieldDate, Value: "2021-06-01"}}})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("ids = %d; want 1", len(ids))
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.StoreDriver = "postgres"

	if _, _, err := openStore(context.Background(), cfg, discardLogger()); err == nil {
		t.Fatal("openStore with unknown driver error = nil; want error")
	}
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.HTTPAddr = pickFreeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, discardLogger()) }()

	client := &http.Client{Timeout: time.Second}
	base := "http://" + cfg.HTTPAddr

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r, err := client.Get(base + "/healthz")
		if err == nil {
			resp = r
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if resp == nil {
		cancel()
		t.Fatal("server did not come up")
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d; want 200", resp.StatusCode)
	}

	post, err := client.Post(base+"/api/v1/addDatos", "application/json",
		strings.NewReader(`[{"FECHA":"2021-06-01","HORA":"10:00"}]`))
	if err != nil {
		t.Fatalf("addDatos: %v", err)
	}
	_ = post.Body.Close()
	if post.StatusCode != http.StatusCreated {
		t.Errorf("addDatos status = %d; want 201", post.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v; want context.Canceled", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MacklinHill1/neighborhood-help-app/internal/api"
	"github.com/MacklinHill1/neighborhood-help-app/internal/client"
	"github.com/MacklinHill1/neighborhood-help-app/internal/config"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/lock"
	"github.com/MacklinHill1/neighborhood-help-app/internal/workspace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

// testHome points LOCAID_HOME at a short temp dir and clears the backend
// overrides so the daemon runs on SQLite with an in-memory cache.
func testHome(t *testing.T) string {
	t.Helper()
	// Use a short path to avoid the 104-char Unix socket limit.
	dir, err := os.MkdirTemp("/tmp", "locaid-d-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	t.Setenv(workspace.EnvHome, dir)
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvRedisURL, "")
	t.Setenv(config.EnvHTTPAddr, "")
	t.Setenv(config.EnvAllowedOrigins, "")
	return dir
}

func TestDaemonLifecycle(t *testing.T) {
	testHome(t)
	const ws = "test"

	app := fxtest.New(t, fx.NopLogger, Module(Params{Workspace: ws}))
	app.RequireStart()

	socket := workspace.SocketPath(ws)
	c, err := client.New(socket)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	if u, err := c.CurrentUser(ctx); err != nil || u != nil {
		t.Errorf("CurrentUser() before sign-in = %v, %v; want nil", u, err)
	}
	u, err := c.SignIn(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if u.ID != "alice" {
		t.Errorf("SignIn() id = %q", u.ID)
	}

	if _, err := c.InsertMessage(ctx, domain.NewMessage{SenderID: "alice", ReceiverID: "bob", Content: "hi"}); err != nil {
		t.Fatalf("InsertMessage() error = %v", err)
	}
	thread, err := c.ListThread(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("ListThread() error = %v", err)
	}
	if len(thread) != 1 || thread[0].Content != "hi" {
		t.Errorf("ListThread() = %+v", thread)
	}

	if held, pid, err := lock.Probe(workspace.Dir(ws)); err != nil || !held || pid != os.Getpid() {
		t.Errorf("lock while running = %v, %d, %v", held, pid, err)
	}
	if _, err := os.Stat(workspace.DBPath(ws)); err != nil {
		t.Errorf("database not created: %v", err)
	}

	app.RequireStop()

	if _, err := os.Stat(socket); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket still present after stop: %v", err)
	}
	if held, _, _ := lock.Probe(workspace.Dir(ws)); held {
		t.Error("lock still held after stop")
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	testHome(t)
	const ws = "restart"

	app := fxtest.New(t, fx.NopLogger, Module(Params{Workspace: ws}))
	app.RequireStart()
	c, err := client.New(workspace.SocketPath(ws))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.SignIn(ctx, "carol", ""); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()
	app.RequireStop()

	app = fxtest.New(t, fx.NopLogger, Module(Params{Workspace: ws}))
	app.RequireStart()
	defer app.RequireStop()

	c, err = client.New(workspace.SocketPath(ws))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	u, err := c.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser() after restart error = %v", err)
	}
	if u == nil || u.ID != "carol" {
		t.Errorf("CurrentUser() = %+v, want carol", u)
	}
}

func TestSecondDaemonRefused(t *testing.T) {
	home := testHome(t)
	const ws = "single"

	app := fxtest.New(t, fx.NopLogger, Module(Params{Workspace: ws}))
	app.RequireStart()
	defer app.RequireStop()

	second := fx.New(fx.NopLogger, Module(Params{
		Workspace:  ws,
		SocketPath: filepath.Join(home, "second.sock"),
	}))
	err := second.Err()
	if err == nil {
		t.Fatal("second daemon on the same workspace: expected error")
	}
	if !strings.Contains(err.Error(), "workspace lock held") {
		t.Errorf("error = %v, want lock held", err)
	}
}

// TestNewServerSocketMode verifies the socket is private to the user.
func TestNewServerSocketMode(t *testing.T) {
	dir, err := os.MkdirTemp("/tmp", "locaid-s-*")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	socketPath := filepath.Join(dir, "d.sock")
	srv, err := NewServer(
		Params{Workspace: "fxtest", SocketPath: socketPath},
		zap.NewNop(),
		api.NewAuthService(nil),
		api.NewMessageService(nil, nil),
		api.NewProfileService(nil),
	)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	info, err := os.Stat(socketPath)
	if err != nil {
		t.Fatalf("socket not created at %s: %v", socketPath, err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("socket mode = %v, want 0600", perm)
	}

	srv.Stop(context.Background())
	if _, err := os.Stat(socketPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("socket not removed: %v", err)
	}
}

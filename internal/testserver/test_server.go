// Package testserver runs the full HTTP stack for functional tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/aoiforge/internal/cli"
	"github.com/rpggio/aoiforge/internal/config"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	Stack  *cli.Stack
}

// Option adjusts the test configuration before the stack is built.
type Option func(*config.Config)

// WithSQLiteStore keeps samples in the sqlite database.
func WithSQLiteStore() Option {
	return func(c *config.Config) { c.Store.Driver = "sqlite" }
}

// New starts a server with fast builds and imports, scratch directories and
// an in-memory database.
func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Transport.Mode = "http"
	cfg.Build.BaseDelay = 2 * time.Millisecond
	cfg.Build.Jitter = time.Millisecond
	cfg.Build.Seed = 1
	cfg.Import.Delay = 5 * time.Millisecond
	cfg.Upload.Dir = filepath.Join(dir, "uploads")
	cfg.Import.Dir = filepath.Join(dir, "imports")
	cfg.Package.Dir = filepath.Join(dir, "packages")
	for _, opt := range opts {
		opt(&cfg)
	}
	require.NoError(t, cfg.Validate())

	stack, err := cli.NewStack(context.Background(), cfg, nil, nil)
	require.NoError(t, err)

	server := httptest.NewServer(stack.HTTPHandler())
	t.Cleanup(func() {
		server.Close()
		_ = stack.Close()
	})

	return &TestServer{Server: server, Stack: stack}
}

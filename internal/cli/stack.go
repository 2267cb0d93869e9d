package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/aoiforge/internal/clock"
	"github.com/rpggio/aoiforge/internal/config"
	"github.com/rpggio/aoiforge/internal/console"
	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/build"
	"github.com/rpggio/aoiforge/internal/domain/class"
	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/ingest"
	"github.com/rpggio/aoiforge/internal/logging"
	"github.com/rpggio/aoiforge/internal/mcp"
	"github.com/rpggio/aoiforge/internal/metrics"
	"github.com/rpggio/aoiforge/internal/packager"
	"github.com/rpggio/aoiforge/internal/sqlite"
	"github.com/rpggio/aoiforge/internal/storage/memory"
	"github.com/rpggio/aoiforge/internal/transport"
)

// Stack is the composed service: stores, collaborators, consoles and the
// MCP server.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	DB       *sqlite.DB
	Registry *class.Registry
	Samples  *sample.Service
	Activity *activity.Service
	Metrics  *metrics.Collector
	Consoles *console.Manager
	MCP      *sdkmcp.Server
	Version  string
}

// NewStack wires every component from cfg. clk drives builds and simulated
// imports; nil means the wall clock.
func NewStack(ctx context.Context, cfg config.Config, logger *slog.Logger, clk clock.Clock) (*Stack, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("building class registry: %w", err)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("preparing database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	collector, err := metrics.New()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	collab, err := newCollaborators(cfg, clk)
	if err != nil {
		db.Close()
		return nil, err
	}

	var repo sample.Repository = memory.NewSampleRepository()
	if cfg.Store.Driver == "sqlite" {
		repo = sqlite.NewSampleRepository(db)
	}
	samples := sample.NewService(repo, registry, collab, collector, logger)
	if cfg.Store.SeedFixtures {
		if err := samples.Seed(ctx, sample.Fixtures()); err != nil {
			db.Close()
			return nil, err
		}
	}
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)

	trainer := build.NewScriptedTrainer(clk, build.ScriptedConfig{
		BaseDelay:    cfg.Build.BaseDelay,
		Jitter:       cfg.Build.Jitter,
		ArtifactSize: cfg.Build.ArtifactSizeBytes,
		Seed:         cfg.Build.Seed,
	})

	consoles := console.NewManager(console.Deps{
		Samples:           samples,
		Activity:          activitySvc,
		Trainer:           trainer,
		Clock:             clk,
		Metrics:           collector,
		Logger:            logger,
		Datasets:          cfg.Datasets,
		PreserveUnmounted: cfg.Console.PreserveUnmounted,
	}, cfg.Console.SessionTTL)

	s := &Stack{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Registry: registry,
		Samples:  samples,
		Activity: activitySvc,
		Metrics:  collector,
		Consoles: consoles,
		Version:  Version,
	}
	s.MCP = mcp.NewServer(mcp.Config{
		Consoles: consoles,
		Registry: registry,
		Metrics:  collector,
		Logger:   logger,
		Version:  Version,
	})
	return s, nil
}

func newCollaborators(cfg config.Config, clk clock.Clock) (sample.Collaborators, error) {
	uploader, err := ingest.NewDirUploader(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		return sample.Collaborators{}, err
	}
	pkg, err := packager.New(cfg.Package.Dir)
	if err != nil {
		return sample.Collaborators{}, err
	}
	importer := ingest.NewSimulatedImporter(clk, cfg.Import.Delay, cfg.Import.SimulatedCount,
		ingest.NewZipImporter(cfg.Import.Dir, cfg.Import.MaxBytes))
	return sample.Collaborators{Uploader: uploader, Importer: importer, Packager: pkg}, nil
}

// HTTPHandler routes /rpc, /mcp, /health and, when enabled, metrics.
func (s *Stack) HTTPHandler() http.Handler {
	streamable := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return s.MCP },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: s.Config.Console.SessionTTL},
	)
	opts := transport.Options{MCP: streamable, Logger: s.Logger}
	if s.Config.Metrics.Enabled {
		opts.Metrics = s.Metrics.Handler()
		opts.MetricsPath = s.Config.Metrics.Path
	}
	return transport.NewServer(mcp.NewHandler(s.Consoles), opts)
}

// Close tears down every console, then the database.
func (s *Stack) Close() error {
	s.Consoles.Close()
	return s.DB.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || filepath.Dir(path) == "." {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}

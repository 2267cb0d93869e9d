package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/aoiforge/internal/config"
	"github.com/spf13/cobra"
)

func buildServeCommand(root *rootOptions) *cobra.Command {
	var mode string
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long:  "Serve the console over stdio (default) or HTTP. HTTP mode exposes /mcp, /rpc, /health and metrics.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			adjust := func(cfg *config.Config) {
				if mode != "" {
					cfg.Transport.Mode = mode
				}
				if host != "" {
					cfg.Server.Host = host
				}
				if port != 0 {
					cfg.Server.Port = port
				}
			}
			stack, logCloser, err := root.openStack(ctx, true, adjust)
			if err != nil {
				return err
			}
			defer logCloser.Close()
			defer stack.Close()

			if stack.Config.Transport.Mode == "stdio" {
				return runStdio(ctx, stack)
			}
			return runHTTP(ctx, stack)
		},
	}

	cmd.Flags().StringVar(&mode, "transport", "", "transport override: stdio or http")
	cmd.Flags().StringVar(&host, "host", "", "HTTP listen host override")
	cmd.Flags().IntVar(&port, "port", 0, "HTTP listen port override")

	return cmd
}

func runStdio(ctx context.Context, stack *Stack) error {
	stack.Logger.Info("starting stdio transport", "version", stack.Version)

	// Run blocks until stdin closes or ctx is canceled.
	if err := stack.MCP.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTP(ctx context.Context, stack *Stack) error {
	addr := fmt.Sprintf("%s:%d", stack.Config.Server.Host, stack.Config.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           stack.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		stack.Logger.Info("server listening", "addr", addr, "metrics", stack.Config.Metrics.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stack.Logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

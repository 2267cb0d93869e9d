// Package cli builds the aoiforge command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rpggio/aoiforge/internal/config"
	"github.com/rpggio/aoiforge/internal/logging"
	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
}

// BuildCLI returns the root command.
func BuildCLI() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "aoiforge",
		Short: "AOI defect-inspection console",
		Long: `aoiforge runs the inspection console headless:
- a five-step training wizard with a simulated build
- a sample hub with annotation editing, upload and dataset import
- an MCP server over stdio or streamable HTTP`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default $AOIFORGE_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	rootCmd.AddCommand(buildServeCommand(opts))
	rootCmd.AddCommand(buildTrainCommand(opts))
	rootCmd.AddCommand(buildSamplesCommand(opts))
	rootCmd.AddCommand(buildClassesCommand(opts))

	return rootCmd
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// openStack loads configuration and composes the stack. Logs go to stderr
// except when serving HTTP, where stdout carries no protocol or output.
func (o *rootOptions) openStack(ctx context.Context, serving bool, adjust func(*config.Config)) (*Stack, io.Closer, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	if adjust != nil {
		adjust(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	logger, logCloser, err := logging.New(logging.Options{
		Level: cfg.Log.Level,
		Path:  cfg.Log.Path,
		Stdio: !(serving && cfg.Transport.Mode == "http"),
	})
	if err != nil {
		return nil, nil, err
	}
	stack, err := NewStack(ctx, cfg, logger, nil)
	if err != nil {
		logCloser.Close()
		return nil, nil, err
	}
	return stack, logCloser, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/aoiforge/internal/config"
	"github.com/rpggio/aoiforge/internal/console"
	"github.com/rpggio/aoiforge/internal/domain/build"
	"github.com/rpggio/aoiforge/internal/domain/wizard"
	"github.com/spf13/cobra"
)

type trainOptions struct {
	scenario  string
	hardware  string
	dataset   string
	intensity string
	imgSize   int
	engineer  bool
	batchSize int
	baseModel string
	optimizer string
	fast      bool
}

func buildTrainCommand(root *rootOptions) *cobra.Command {
	opts := &trainOptions{}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Walk the training wizard and run a build",
		Long: `Drive the five wizard steps with the given choices, start the simulated
build and stream its log until it finishes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stack, logCloser, err := root.openStack(ctx, false, func(cfg *config.Config) {
				if opts.fast {
					cfg.Build.BaseDelay = time.Millisecond
					cfg.Build.Jitter = 0
				}
			})
			if err != nil {
				return err
			}
			defer logCloser.Close()
			defer stack.Close()

			con, err := stack.Consoles.Get("cli")
			if err != nil {
				return err
			}
			return runTraining(ctx, cmd.OutOrStdout(), con, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scenario, "scenario", string(wizard.ScenarioDetection), "detection, classification or segmentation")
	cmd.Flags().StringVar(&opts.hardware, "hardware", string(wizard.HardwareGPU), "gpu or cpu")
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "dataset ref (default: first offered)")
	cmd.Flags().StringVar(&opts.intensity, "intensity", "", "fast, standard or deep")
	cmd.Flags().IntVar(&opts.imgSize, "img-size", 0, "input image size: 320 or 640")
	cmd.Flags().BoolVar(&opts.engineer, "engineer", false, "enable engineer mode")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "requested batch size (engineer mode)")
	cmd.Flags().StringVar(&opts.baseModel, "base-model", "", "base model override (engineer mode)")
	cmd.Flags().StringVar(&opts.optimizer, "optimizer", "", "AdamW or SGD (engineer mode)")
	cmd.Flags().BoolVar(&opts.fast, "fast", false, "emit build log lines without delay")

	return cmd
}

func (o *trainOptions) update() wizard.ParameterUpdate {
	var u wizard.ParameterUpdate
	if o.engineer {
		on := true
		u.EngineerMode = &on
	}
	if o.intensity != "" {
		in := wizard.Intensity(o.intensity)
		u.Intensity = &in
	}
	if o.imgSize != 0 {
		u.ImgSize = &o.imgSize
	}
	if o.batchSize != 0 {
		u.BatchSize = &o.batchSize
	}
	if o.baseModel != "" {
		u.BaseModel = &o.baseModel
	}
	if o.optimizer != "" {
		opt := wizard.Optimizer(o.optimizer)
		u.Optimizer = &opt
	}
	return u
}

func runTraining(ctx context.Context, out io.Writer, con *console.Console, opts *trainOptions) error {
	w, err := con.Wizard()
	if err != nil {
		return err
	}

	if _, err := w.SetScenario(wizard.Scenario(opts.scenario)); err != nil {
		return err
	}
	if _, err := w.Advance(); err != nil {
		return err
	}
	if _, err := w.SetHardware(wizard.Hardware(opts.hardware)); err != nil {
		return err
	}
	view, err := w.Advance()
	if err != nil {
		return err
	}

	ref := opts.dataset
	if ref == "" {
		if len(view.Datasets) == 0 {
			return fmt.Errorf("no datasets configured")
		}
		ref = view.Datasets[0].Ref
	}
	if _, err := w.SelectDataset(ref); err != nil {
		return err
	}
	if _, err := w.Advance(); err != nil {
		return err
	}
	view, err = w.Configure(opts.update())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "scenario=%s hardware=%s dataset=%s base_model=%s batch_size=%d\n",
		opts.scenario, opts.hardware, ref, view.BaseModel, view.EffectiveBatchSize)
	if _, err := w.Advance(); err != nil {
		return err
	}

	if _, err := con.StartBuild(); err != nil {
		return err
	}
	runner := w.Runner()
	if runner == nil {
		return fmt.Errorf("build runner not bound")
	}
	return streamBuild(ctx, out, runner)
}

func streamBuild(ctx context.Context, out io.Writer, runner *build.Runner) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var printed int64
	flush := func() build.Status {
		st := runner.Status()
		for _, line := range st.Logs {
			if line.ID > printed {
				fmt.Fprintln(out, line.Text)
				printed = line.ID
			}
		}
		return st
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-runner.Done():
			st := flush()
			if st.State == build.StateFailed {
				return fmt.Errorf("build failed: %s", st.Error)
			}
			if st.Artifact != nil {
				fmt.Fprintf(out, "artifact %s (%s)\n", st.Artifact.Name, humanize.IBytes(uint64(st.Artifact.SizeBytes)))
			}
			return nil
		case <-ticker.C:
			flush()
		}
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"mcsim/internal/config"
	"mcsim/internal/export"
	"mcsim/internal/gbm"
	"mcsim/internal/logging"
	"mcsim/internal/metrics"
	"mcsim/internal/render"
	"mcsim/internal/runner"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is the state shared by subcommands once flags are parsed.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Recorder
	runner  *runner.Runner
	timeout time.Duration
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = runner.SeedFromClock()
	}

	a.cfg = cfg
	a.log = logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	a.metrics = metrics.New()
	a.runner = runner.New(gbm.NewSimulator(gbm.WithWorkers(cfg.Workers)), a.log, a.metrics)
	return nil
}

func (a *app) run(cmd *cobra.Command) (*runner.Result, error) {
	ctx := cmd.Context()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.runner.Run(ctx, a.cfg.Parameters(), a.cfg.Seed)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mcsim",
		Short:         "Monte Carlo simulation of asset price paths under geometric Brownian motion",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "inspect" {
				return nil
			}
			return a.setup(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "abort the simulation after this long (0 = no limit)")

	root.AddCommand(newRunCmd(a), newExportCmd(a), newInspectCmd())
	return root
}

func newRunCmd(a *app) *cobra.Command {
	var (
		pathsPNG    string
		histPNG     string
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate and print summary statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.run(cmd)
			if err != nil {
				return err
			}

			if err := render.WriteSummary(cmd.OutOrStdout(), res.Params, res.Summary); err != nil {
				return err
			}

			if pathsPNG != "" {
				img, err := render.PathsChart(res.Paths)
				if err != nil {
					return err
				}
				if err := writeFile(pathsPNG, img); err != nil {
					return err
				}
				a.log.WithField("file", pathsPNG).Info("wrote paths chart")
			}
			if histPNG != "" {
				img, err := render.HistogramChart(res.Final, res.Summary)
				if err != nil {
					return err
				}
				if err := writeFile(histPNG, img); err != nil {
					return err
				}
				a.log.WithField("file", histPNG).Info("wrote histogram")
			}

			if showMetrics {
				return a.metrics.WriteText(cmd.ErrOrStderr())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pathsPNG, "paths-png", "", "write the trajectory chart to this PNG file")
	cmd.Flags().StringVar(&histPNG, "hist-png", "", "write the final price histogram to this PNG file")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "dump run metrics to stderr")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		out   string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Simulate and write trajectories as checksummed XOR chunks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.run(cmd)
			if err != nil {
				return err
			}

			w, closeFn, err := openOutput(cmd, out)
			if err != nil {
				return err
			}
			digest, n, err := export.WritePaths(w, res.Paths, limit)
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			a.log.WithFields(logrus.Fields{
				"trajectories": n,
				"sha256":       digest,
			}).Info("exported trajectories")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().IntVar(&limit, "limit", export.DefaultLimit, "number of trajectories to export, 0 for all")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Validate an export stream and describe its trajectories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			r := export.NewReader(in)
			all, err := r.ReadAll()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, prices := range all {
				if len(prices) == 0 {
					fmt.Fprintf(out, "trajectory %d: empty\n", i)
					continue
				}
				fmt.Fprintf(out, "trajectory %d: %d days, first %.2f, last %.2f\n",
					i, len(prices), prices[0], prices[len(prices)-1])
			}
			fmt.Fprintf(out, "%d trajectories, sha256 %s\n", len(all), r.Digest())
			return nil
		},
	}
}

func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mcsim: %v\n", err)
		stop()
		os.Exit(1)
	}
}

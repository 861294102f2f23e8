package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/dailyreport/internal/adapter/adminfile"
	"github.com/Strob0t/dailyreport/internal/config"
	"github.com/Strob0t/dailyreport/internal/logger"
	"github.com/Strob0t/dailyreport/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "dailyreport",
		Short:         "Email each project's daily delivery report to its recipients",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "path to the YAML configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the batch once and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runOnce(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "schedule",
			Short: "Run the batch on the configured cron schedule until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runScheduled(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "Validate the configuration and admin ID file, then print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return checkConfig(cmd, configPath)
			},
		},
	)
	return root
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runOnce(parent context.Context, configPath string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.svc.Run(ctx); err != nil {
		return fmt.Errorf("daily report: %w", err)
	}
	return nil
}

func runScheduled(parent context.Context, configPath string) error {
	ctx, stop := signalContext(parent)
	defer stop()

	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := scheduler.New(a.cfg.Schedule.Spec, func(ctx context.Context) error {
		_, err := a.svc.Run(ctx)
		return err
	}, a.cfg.Schedule.RunOnStart, a.logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

func checkConfig(cmd *cobra.Command, configPath string) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	admins, err := adminfile.Read(cfg.AdminIDsFile)
	if err != nil {
		return fmt.Errorf("admin ids: %w", err)
	}
	if _, err := scheduler.New(cfg.Schedule.Spec, func(context.Context) error { return nil }, false, nil); err != nil {
		return err
	}

	out := logger.NewWithWriter(cmd.OutOrStdout(), config.Logging{Level: "info", Format: "text", Service: cfg.Logging.Service})
	out.Info("configuration ok", append(cfg.LogAttrs(), "admins", len(admins))...)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/outpost/internal/db"
	"github.com/jonathan/outpost/internal/observability"
)

var (
	createQuery string
	createWait  bool
)

var createRunCmd = &cobra.Command{
	Use:   "create-run",
	Short: "Create a new lead generation run",
	Long:  `Insert a new run for the given query. A running worker picks it up immediately; with --wait this command polls until the run reaches a terminal status.`,
	RunE:  runCreateRun,
}

func init() {
	createRunCmd.Flags().StringVar(&createQuery, "query", "", "Search query to generate leads for (required)")
	createRunCmd.Flags().BoolVar(&createWait, "wait", false, "Poll until the run completes or fails")
	_ = createRunCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(createRunCmd)
}

func runCreateRun(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.db.CreateRun(ctx, createQuery)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintRun(run)

	if !createWait {
		fmt.Printf("Run %s created. A running worker will process it.\n", run.ID)
		return nil
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		current, err := a.db.GetRun(ctx, run.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("run %s disappeared while waiting", run.ID)
		}
		if current.Status == db.RunStatusPending {
			continue
		}

		printRunResult(ctx, a, run.ID)
		if current.Status == db.RunStatusFailed {
			return fmt.Errorf("run %s failed", run.ID)
		}
		return nil
	}
}

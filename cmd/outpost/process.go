package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/outpost/internal/db"
	"github.com/jonathan/outpost/internal/observability"
	"github.com/jonathan/outpost/internal/pipeline"
)

var processRunID string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single run by ID",
	Long:  `Process one existing run synchronously. The run must be in PENDING status; use this to reprocess after fixing credentials or to run without the worker.`,
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processRunID, "run-id", "", "ID of the run to process (required)")
	_ = processCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(processCmd)
}

func runProcess(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	run, err := a.db.GetRun(ctx, processRunID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", processRunID)
	}
	if run.Status != db.RunStatusPending {
		return fmt.Errorf("run %s is %s, only PENDING runs can be processed", run.ID, run.Status)
	}

	processor := a.newProcessor(ctx)
	if err := processor.ProcessRun(ctx, pipeline.Trigger{
		Op:    "INSERT",
		RunID: run.ID,
		Query: run.Query,
	}); err != nil {
		return err
	}

	printRunResult(ctx, a, run.ID)
	return nil
}

// printRunResult shows the final run and its leads.
func printRunResult(ctx context.Context, a *app, runID string) {
	printer := observability.NewPrinter(os.Stdout)

	run, err := a.db.GetRun(ctx, runID)
	if err != nil || run == nil {
		return
	}
	printer.PrintRun(run)

	leads, err := a.db.ListLeadsByRun(ctx, runID)
	if err != nil {
		return
	}
	printer.PrintLeads(leads)
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/outpost/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server and run worker",
	Long:  `Start the HTTP API for managing runs together with the worker that processes newly inserted runs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort != 0 {
		port = servePort
	}

	srv := server.New(server.Config{Port: port}, a.db)
	worker := a.newWorker(ctx)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Start(groupCtx)
	})
	group.Go(func() error {
		err := worker.Run(groupCtx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	return group.Wait()
}

package pipeline

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/outpost/internal/db"
)

// DefaultConcurrency bounds how many runs process at once. Enrichment is
// paced per run, so a small bound keeps aggregate model traffic predictable.
const DefaultConcurrency = 2

// Worker listens for run insert notifications and dispatches them to a
// Processor.
type Worker struct {
	DB          *db.DB
	Processor   *Processor
	Concurrency int
}

// Run blocks listening for run events until ctx is canceled. Each insert is
// processed on its own goroutine, bounded by Concurrency. Processing errors
// are already recorded on the run row, so here they are only logged.
func (w *Worker) Run(ctx context.Context) error {
	listener, err := w.DB.ListenRunEvents(ctx)
	if err != nil {
		return err
	}
	defer listener.Close()

	concurrency := w.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	log.Printf("[WORKER] Listening for run events (concurrency %d)", concurrency)

	for {
		payload, err := listener.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				_ = group.Wait()
				return ctx.Err()
			}
			_ = group.Wait()
			return err
		}

		trigger, err := ParseTrigger(payload)
		if err != nil {
			log.Printf("[WORKER] Ignoring bad payload %q: %v", payload, err)
			continue
		}
		if !trigger.IsInsert() {
			log.Printf("[WORKER] Ignoring %s event for run %s", trigger.Op, trigger.RunID)
			continue
		}

		group.Go(func() error {
			if err := w.Processor.ProcessRun(groupCtx, trigger); err != nil {
				log.Printf("[WORKER] Run %s failed: %v", trigger.RunID, err)
			}
			return nil
		})
	}
}

package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor is one pass of background work, invoked on every tick.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker drives a JobProcessor on a fixed poll interval until stopped.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop. An initial pass runs immediately so
// manuals left pending across a restart do not wait a full interval.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("sweep worker started, interval %v", w.pollInterval)

	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("sweep worker: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("sweep worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("sweep worker stopped")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("sweep worker: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for the current pass to end.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/dang-hang/fleet-wise-aide/internal/domain"
	"github.com/dang-hang/fleet-wise-aide/internal/service"
)

const sweepBatchSize = 5

// UnprocessedManualLister finds manuals still waiting for ingestion.
type UnprocessedManualLister interface {
	ListUnprocessed(ctx context.Context, limit int) ([]*domain.Manual, error)
}

// IngestRunner runs the ingestion pipeline for one manual.
type IngestRunner interface {
	Ingest(ctx context.Context, ownerID, manualID string) (*service.IngestStats, error)
}

// IngestWorker sweeps manuals left in the unprocessed state and runs
// them through ingestion. Failed manuals are marked by the pipeline
// itself and are not retried here.
type IngestWorker struct {
	manuals  UnprocessedManualLister
	ingester IngestRunner
}

func NewIngestWorker(manuals UnprocessedManualLister, ingester IngestRunner) *IngestWorker {
	return &IngestWorker{
		manuals:  manuals,
		ingester: ingester,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	manuals, err := w.manuals.ListUnprocessed(ctx, sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list unprocessed manuals: %w", err)
	}

	if len(manuals) == 0 {
		return nil
	}

	log.Printf("ingest sweep: %d manual(s) pending", len(manuals))

	for _, m := range manuals {
		stats, err := w.ingester.Ingest(ctx, m.OwnerID, m.ID)
		if err != nil {
			log.Printf("ingest sweep: manual %s failed: %v", m.ID, err)
			continue
		}
		log.Printf("ingest sweep: manual %s processed (%d pages, %d chunks)", m.ID, stats.TotalPages, stats.Chunks)
	}

	return nil
}

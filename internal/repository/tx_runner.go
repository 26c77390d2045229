package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dang-hang/fleet-wise-aide/internal/service"
)

// TxRunner provides transaction-bound repositories using a pgx pool.
// Ingestion uses it to replace a manual's derived rows atomically.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Manuals() service.ManualRepositoryInterface {
	return NewManualRepositoryWithTx(r.tx)
}

func (r *txRepos) Spans() service.SpanRepositoryInterface {
	return NewSpanRepositoryWithTx(r.tx)
}

func (r *txRepos) Chunks() service.ChunkRepositoryInterface {
	return NewChunkRepositoryWithTx(r.tx)
}

func (r *txRepos) Sections() service.SectionRepositoryInterface {
	return NewSectionRepositoryWithTx(r.tx)
}

func (r *txRepos) Figures() service.FigureRepositoryInterface {
	return NewFigureRepositoryWithTx(r.tx)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/workflow"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

// Ensure TxRunner implements stock.TxRunner and workflow.TxRunner.
var _ stock.TxRunner = (*TxRunner)(nil)
var _ workflow.TxRunner = (*TxRunner)(nil)

// Nombre de tentatives sur échec de sérialisation (40001/40P01) avant de
// remonter un ConcurrencyConflictError à l'appelant.
const maxTxAttempts = 3

// TxRunner exécute les callbacks dans une transaction PostgreSQL.
// Une fois la transaction engagée, elle va au bout ou rollback en bloc : un
// timeout côté appelant n'interrompt pas un commit en vol.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construit le runner avec le pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transaction du coordinateur de réservation : repos mouvement, stock et
// produit liés à la tx. Retente sur échec de sérialisation, de façon bornée.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return r.withRetry(ctx, "reserve", func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		movementRepo := NewMovementRepository(tx)
		stockRepo := NewStockRepository(tx)
		productRepo := NewProductRepository(tx)

		if err := fn(movementRepo, stockRepo, productRepo); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// RunWorkflow transaction du moteur de transitions : repos entité, historique,
// mouvement et stock liés à la tx.
func (r *TxRunner) RunWorkflow(ctx context.Context, fn func(
	entityRepo repository.TrackedEntityRepository,
	recordRepo repository.TransitionRecordRepository,
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.withRetry(ctx, "transition", func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		entityRepo := NewTrackedEntityRepository(tx)
		recordRepo := NewTransitionRecordRepository(tx)
		movementRepo := NewMovementRepository(tx)
		stockRepo := NewStockRepository(tx)

		if err := fn(entityRepo, recordRepo, movementRepo, stockRepo); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

// withRetry relance attempt sur échec de sérialisation, jusqu'à maxTxAttempts.
// Les violations métier remontent telles quelles, sans retry.
func (r *TxRunner) withRetry(ctx context.Context, op string, attempt func(ctx context.Context) error) error {
	var err error
	for i := 0; i < maxTxAttempts; i++ {
		err = attempt(ctx)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return &domain.ConcurrencyConflictError{Op: op, Err: err}
}

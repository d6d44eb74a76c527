package memory

import (
	"context"

	"github.com/Bobyyy70/speede-flow-engine/internal/application/stock"
	"github.com/Bobyyy70/speede-flow-engine/internal/application/workflow"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

// TxRunner transactions mémoire : le verrou global du magasin sérialise les
// fonctions transactionnelles entre elles et avec les repos hors transaction,
// et un snapshot restauré sur erreur donne la même atomicité qu'un ROLLBACK.
type TxRunner struct {
	s *Store
}

var (
	_ stock.TxRunner    = (*TxRunner)(nil)
	_ workflow.TxRunner = (*TxRunner)(nil)
)

// NewTxRunner construit le runner lié au magasin.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run exécute fn atomiquement avec les repos du coordinateur de stock.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := r.s.snapshot()
	err := fn(
		&MovementRepo{s: r.s, noLock: true},
		&StockRepo{s: r.s, noLock: true},
		&ProductRepo{s: r.s, noLock: true},
	)
	if err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

// RunWorkflow exécute fn atomiquement avec les repos du moteur de transitions.
func (r *TxRunner) RunWorkflow(ctx context.Context, fn func(
	entityRepo repository.TrackedEntityRepository,
	recordRepo repository.TransitionRecordRepository,
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := r.s.snapshot()
	err := fn(
		&TrackedEntityRepo{s: r.s, noLock: true},
		&TransitionRecordRepo{s: r.s, noLock: true},
		&MovementRepo{s: r.s, noLock: true},
		&StockRepo{s: r.s, noLock: true},
	)
	if err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

package workflow

import (
	"context"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

// TxRunner exécute une fonction dans une transaction de BD, en passant des
// repositories liés à cette tx. Garantit l'atomicité transition + effet de
// stock + trace d'audit : tout commite ou rien.
type TxRunner interface {
	RunWorkflow(ctx context.Context, fn func(
		entityRepo repository.TrackedEntityRepository,
		recordRepo repository.TransitionRecordRepository,
		movementRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// Notifier publie les transitions commitées aux abonnés (best-effort, hors
// frontière de correction : un abonné qui rate une publication se réconcilie
// via l'historique).
type Notifier interface {
	Publish(record *entity.TransitionRecord)
}

package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/pkg/metrics"
)

// TransitionUseCase moteur de transitions : valide un changement de statut
// contre le graphe de la famille, l'applique atomiquement avec son éventuel
// effet de stock, trace l'audit et publie aux abonnés.
type TransitionUseCase struct {
	txRunner    TxRunner
	notifier    Notifier
	recordRepo  repository.TransitionRecordRepository // lié au pool, lectures hors tx
	entityRepo  repository.TrackedEntityRepository    // lié au pool, lectures hors tx
	productRepo repository.ProductRepository
}

// NewTransitionUseCase construit le moteur.
func NewTransitionUseCase(
	txRunner TxRunner,
	notifier Notifier,
	recordRepo repository.TransitionRecordRepository,
	entityRepo repository.TrackedEntityRepository,
	productRepo repository.ProductRepository,
) *TransitionUseCase {
	return &TransitionUseCase{
		txRunner:    txRunner,
		notifier:    notifier,
		recordRepo:  recordRepo,
		entityRepo:  entityRepo,
		productRepo: productRepo,
	}
}

// TransitionInput demande de changement de statut.
type TransitionInput struct {
	Type     status.EntityType
	EntityID string
	Target   status.Status
	ActorID  string
	Reason   string
	Metadata map[string]string
}

// Transition applique la demande. Exactement une TransitionRecord et zéro ou
// un lot de mouvements par appel réussi ; aucun effet en cas de rejet.
// Les rejets (transition illégale, entité inconnue) sont définitifs : erreurs
// de logique de l'appelant, jamais retentées ici.
func (uc *TransitionUseCase) Transition(ctx context.Context, input TransitionInput) (*entity.TransitionRecord, error) {
	if input.EntityID == "" || input.ActorID == "" || input.Target == "" {
		return nil, domain.ErrInvalidInput
	}
	graph, err := status.ForType(input.Type)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	var record *entity.TransitionRecord

	err = uc.txRunner.RunWorkflow(ctx, func(
		entityRepo repository.TrackedEntityRepository,
		recordRepo repository.TransitionRecordRepository,
		movementRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error {
		// Verrouille la ligne de l'entité : deux transitions concurrentes sur la
		// même entité se sérialisent, la seconde se réévalue contre le nouveau
		// statut courant et peut légitimement devenir illégale.
		ent, err := entityRepo.GetForUpdate(input.Type, input.EntityID)
		if err != nil {
			return err
		}
		if ent == nil {
			return domain.ErrEntityNotFound
		}
		if !graph.CanTransition(ent.CurrentStatus, input.Target) {
			return &domain.IllegalTransitionError{
				EntityType: input.Type,
				From:       ent.CurrentStatus,
				To:         input.Target,
				Allowed:    graph.AllowedNext(ent.CurrentStatus),
			}
		}

		if err := uc.applyStockEffect(ent, input, now, entityRepo, movementRepo, stockRepo); err != nil {
			return err
		}

		if err := entityRepo.UpdateStatus(input.Type, input.EntityID, input.Target, now); err != nil {
			return err
		}
		record = &entity.TransitionRecord{
			ID:         uuid.New().String(),
			EntityType: input.Type,
			EntityID:   input.EntityID,
			FromStatus: ent.CurrentStatus,
			ToStatus:   input.Target,
			ActorID:    input.ActorID,
			Reason:     input.Reason,
			Metadata:   input.Metadata,
			OccurredAt: now,
		}
		return recordRepo.Create(record)
	})
	if err != nil {
		metrics.TransitionRejectionsTotal.WithLabelValues(string(input.Type), rejectionLabel(err)).Inc()
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(input.Type), string(input.Target)).Inc()
	// Publication après commit uniquement : un abonné ne voit jamais une
	// transition non commitée.
	uc.notifier.Publish(record)
	return record, nil
}

// AllowedNext statuts légaux depuis currentStatus pour la famille donnée.
// Ensemble vide pour un statut terminal.
func (uc *TransitionUseCase) AllowedNext(t status.EntityType, current status.Status) ([]status.Status, error) {
	graph, err := status.ForType(t)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	if !graph.Contains(current) {
		return nil, domain.ErrInvalidInput
	}
	return graph.AllowedNext(current), nil
}

// History historique ordonné (ordre de commit) des transitions d'une entité.
func (uc *TransitionUseCase) History(t status.EntityType, entityID string) ([]*entity.TransitionRecord, error) {
	if _, err := status.ForType(t); err != nil {
		return nil, domain.ErrInvalidInput
	}
	ent, err := uc.entityRepo.GetByID(t, entityID)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return nil, domain.ErrEntityNotFound
	}
	return uc.recordRepo.ListByEntity(t, entityID)
}

// CreateEntityInput création d'une entité suivie par un workflow d'intake.
type CreateEntityInput struct {
	Type      status.EntityType
	Reference string
	ActorID   string
	Lines     []LineInput
}

// LineInput ligne produit à la création.
type LineInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateEntity crée l'entité sur le statut initial de sa famille, avec ses
// lignes. La réservation de stock des commandes reste un appel explicite du
// workflow d'intake (coordinateur de réservation), pas un effet de création.
func (uc *TransitionUseCase) CreateEntity(ctx context.Context, input CreateEntityInput) (*entity.TrackedEntity, error) {
	graph, err := status.ForType(input.Type)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	if input.ActorID == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, line := range input.Lines {
		if line.ProductID == "" || !line.Quantity.IsInteger() || !line.Quantity.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
		product, err := uc.productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrProductNotFound
		}
	}

	now := time.Now().UTC()
	ent := &entity.TrackedEntity{
		ID:            uuid.New().String(),
		Type:          input.Type,
		CurrentStatus: graph.Initial(),
		Reference:     input.Reference,
		CreatedBy:     input.ActorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lines := make([]*entity.Line, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, &entity.Line{
			ID:         uuid.New().String(),
			EntityType: input.Type,
			EntityID:   ent.ID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
		})
	}

	err = uc.txRunner.RunWorkflow(ctx, func(
		entityRepo repository.TrackedEntityRepository,
		_ repository.TransitionRecordRepository,
		_ repository.MovementRepository,
		_ repository.StockRepository,
	) error {
		return entityRepo.Create(ent, lines)
	})
	if err != nil {
		return nil, err
	}
	return ent, nil
}

func rejectionLabel(err error) string {
	switch err.(type) {
	case *domain.IllegalTransitionError:
		return "illegal_transition"
	case *domain.InsufficientStockError:
		return "insufficient_stock"
	case *domain.ConcurrencyConflictError:
		return "concurrency_conflict"
	}
	switch err {
	case domain.ErrEntityNotFound, domain.ErrProductNotFound, domain.ErrNotFound:
		return "not_found"
	case domain.ErrInvalidInput:
		return "invalid_input"
	}
	return "internal"
}

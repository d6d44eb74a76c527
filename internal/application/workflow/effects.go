package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// Effets de stock couplés aux transitions. Exécutés dans la transaction de la
// transition : si l'effet échoue, la transition entière échoue, sans écriture
// partielle du grand livre ni changement de statut.
//
// Couplages :
//   - commande -> expédiée              : release des réservations + mouvements shipment
//   - attendu  -> réceptionné_totalement : mouvements receipt
//   - retour   -> remis_en_stock         : mouvements receipt
//
// Les statuts d'annulation ne libèrent rien : le release d'une commande
// annulée est une action explicite de l'appelant (releaseStock), pas un effet
// déduit du statut.
func (uc *TransitionUseCase) applyStockEffect(
	ent *entity.TrackedEntity,
	input TransitionInput,
	now time.Time,
	entityRepo repository.TrackedEntityRepository,
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error {
	switch {
	case ent.Type == status.EntityTypeOrder && input.Target == status.OrderShipped:
		return uc.shipOrderLines(ent, input.ActorID, now, entityRepo, movementRepo, stockRepo)
	case ent.Type == status.EntityTypeShipment && input.Target == status.ShipmentFullyReceived:
		return uc.receiveLines(ent, input.ActorID, now, entityRepo, movementRepo, stockRepo)
	case ent.Type == status.EntityTypeReturn && input.Target == status.ReturnRestocked:
		return uc.receiveLines(ent, input.ActorID, now, entityRepo, movementRepo, stockRepo)
	}
	return nil
}

// shipOrderLines convertit les réservations de la commande en sorties
// physiques : pour chaque ligne, release du réservé restant puis mouvement
// shipment. Le disponible est revérifié sous verrou, une ligne expédiée sans
// réservation préalable ne doit pas créer de survente.
func (uc *TransitionUseCase) shipOrderLines(
	ent *entity.TrackedEntity,
	actorID string,
	now time.Time,
	entityRepo repository.TrackedEntityRepository,
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error {
	lines, err := entityRepo.ListLines(ent.Type, ent.ID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		level, err := stockRepo.GetForUpdate(line.ProductID)
		if err != nil {
			return err
		}
		outstanding, err := movementRepo.OutstandingReservation(line.ProductID, ent.ID)
		if err != nil {
			return err
		}

		if outstanding.IsPositive() {
			release := &entity.Movement{
				ID:               uuid.New().String(),
				ProductID:        line.ProductID,
				QuantityDelta:    outstanding.Neg(),
				Kind:             entity.MovementKindRelease,
				OriginEntityType: ent.Type,
				OriginEntityID:   ent.ID,
				OriginReference:  ent.Reference,
				CreatedAt:        now,
				CreatedBy:        actorID,
			}
			if err := release.Validate(); err != nil {
				return err
			}
			if err := movementRepo.Create(release); err != nil {
				return err
			}
			level.Reserved = level.Reserved.Sub(outstanding)
		}

		if level.Physical.Sub(level.Reserved).LessThan(line.Quantity) {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: level.Physical.Sub(level.Reserved),
			}
		}

		shipment := &entity.Movement{
			ID:               uuid.New().String(),
			ProductID:        line.ProductID,
			QuantityDelta:    line.Quantity.Neg(),
			Kind:             entity.MovementKindShipment,
			OriginEntityType: ent.Type,
			OriginEntityID:   ent.ID,
			OriginReference:  ent.Reference,
			CreatedAt:        now,
			CreatedBy:        actorID,
		}
		if err := shipment.Validate(); err != nil {
			return err
		}
		if err := movementRepo.Create(shipment); err != nil {
			return err
		}
		level.Physical = level.Physical.Sub(line.Quantity)
		level.UpdatedAt = now
		if err := stockRepo.Upsert(level); err != nil {
			return err
		}
	}
	return nil
}

// receiveLines entrée physique des lignes (réception totale d'un attendu,
// remise en stock d'un retour contrôlé).
func (uc *TransitionUseCase) receiveLines(
	ent *entity.TrackedEntity,
	actorID string,
	now time.Time,
	entityRepo repository.TrackedEntityRepository,
	movementRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error {
	lines, err := entityRepo.ListLines(ent.Type, ent.ID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		level, err := stockRepo.GetForUpdate(line.ProductID)
		if err != nil {
			return err
		}
		receipt := &entity.Movement{
			ID:               uuid.New().String(),
			ProductID:        line.ProductID,
			QuantityDelta:    line.Quantity,
			Kind:             entity.MovementKindReceipt,
			OriginEntityType: ent.Type,
			OriginEntityID:   ent.ID,
			OriginReference:  ent.Reference,
			CreatedAt:        now,
			CreatedBy:        actorID,
		}
		if err := receipt.Validate(); err != nil {
			return err
		}
		if err := movementRepo.Create(receipt); err != nil {
			return err
		}
		level.Physical = level.Physical.Add(line.Quantity)
		level.UpdatedAt = now
		if err := stockRepo.Upsert(level); err != nil {
			return err
		}
	}
	return nil
}

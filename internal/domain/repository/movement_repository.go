package repository

import (
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// MovementRepository port de persistance du grand livre de mouvements (DIP).
// Append-only : pas d'update ni de delete.
type MovementRepository interface {
	Create(movement *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	ListByProduct(productID string, limit, offset int) ([]*entity.Movement, error)
	ListByOrigin(entityType status.EntityType, entityID string) ([]*entity.Movement, error)

	// Replay recalcule l'agrégat par rejeu complet du grand livre :
	// physical = Σ deltas receipt/shipment/adjustment,
	// reserved = Σ deltas reservation/release.
	Replay(productID string) (physical, reserved decimal.Decimal, err error)

	// OutstandingReservation réservé restant pour (produit, entité d'origine) :
	// Σ reservation + Σ release de cette origine. Sert l'idempotence du release.
	OutstandingReservation(productID string, originEntityID string) (decimal.Decimal, error)
}

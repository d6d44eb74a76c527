package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// Kinds de mouvement (faits de stock du grand livre).
const (
	MovementKindReceipt     = "receipt"     // entrée physique : réception, remise en stock d'un retour
	MovementKindReservation = "reservation" // blocage de disponible au profit d'une commande
	MovementKindRelease     = "release"     // contrepartie d'une réservation
	MovementKindShipment    = "shipment"    // sortie physique : expédition
	MovementKindAdjustment  = "adjustment"  // correction d'inventaire
)

// Movement fait immuable du grand livre de stock. Jamais modifié ni supprimé.
//
// Sémantique du delta (entier signé, porté en decimal pour le NUMERIC de la BD) :
// receipt/shipment/adjustment s'appliquent au physique ;
// reservation (delta > 0) et release (delta < 0) s'appliquent au réservé.
type Movement struct {
	ID               string
	ProductID        string
	QuantityDelta    decimal.Decimal
	Kind             string
	OriginEntityType status.EntityType
	OriginEntityID   string
	OriginReference  string
	CreatedAt        time.Time
	CreatedBy        string
}

// AffectsPhysical indique si le delta s'applique au stock physique.
func (m *Movement) AffectsPhysical() bool {
	switch m.Kind {
	case MovementKindReceipt, MovementKindShipment, MovementKindAdjustment:
		return true
	}
	return false
}

// AffectsReserved indique si le delta s'applique au stock réservé.
func (m *Movement) AffectsReserved() bool {
	return m.Kind == MovementKindReservation || m.Kind == MovementKindRelease
}

// Validate vérifie la forme du fait avant append. Les conditions métier
// (disponible suffisant, etc.) sont contrôlées en amont par le coordinateur ;
// ici on ne rejette que le malformé.
func (m *Movement) Validate() error {
	if m.ProductID == "" {
		return domain.ErrInvalidInput
	}
	if !m.QuantityDelta.IsInteger() || m.QuantityDelta.IsZero() {
		return domain.ErrInvalidInput
	}
	switch m.Kind {
	case MovementKindReceipt, MovementKindReservation:
		if m.QuantityDelta.IsNegative() {
			return domain.ErrInvalidInput
		}
	case MovementKindShipment, MovementKindRelease:
		if m.QuantityDelta.IsPositive() {
			return domain.ErrInvalidInput
		}
	case MovementKindAdjustment:
		// delta signé libre
	default:
		return domain.ErrInvalidInput
	}
	return nil
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
)

// ReserveRequest réservation de stock pour une ligne de commande.
type ReserveRequest struct {
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	OriginEntityType string          `json:"origin_entity_type"`
	OriginEntityID   string          `json:"origin_entity_id"`
	OriginReference  string          `json:"origin_reference"`
}

// ReleaseRequest libération explicite d'une réservation (idempotente).
type ReleaseRequest struct {
	ProductID        string          `json:"product_id"`
	OriginEntityType string          `json:"origin_entity_type"`
	OriginEntityID   string          `json:"origin_entity_id"`
	Quantity         decimal.Decimal `json:"quantity"` // zéro = tout le restant
	OriginReference  string          `json:"origin_reference"`
}

// StockLevelResponse agrégat {physique, réservé, disponible} d'un produit.
type StockLevelResponse struct {
	ProductID string          `json:"product_id"`
	Physical  decimal.Decimal `json:"physical"`
	Reserved  decimal.Decimal `json:"reserved"`
	Available decimal.Decimal `json:"available"`
}

// NewStockLevelResponse mappe l'agrégat de domaine vers la réponse.
func NewStockLevelResponse(level *entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID: level.ProductID,
		Physical:  level.Physical,
		Reserved:  level.Reserved,
		Available: level.Available(),
	}
}

// MovementResponse fait du grand livre.
type MovementResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	QuantityDelta    decimal.Decimal `json:"quantity_delta"`
	Kind             string          `json:"kind"`
	OriginEntityType string          `json:"origin_entity_type,omitempty"`
	OriginEntityID   string          `json:"origin_entity_id,omitempty"`
	OriginReference  string          `json:"origin_reference,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	CreatedBy        string          `json:"created_by,omitempty"`
}

// NewMovementResponse mappe le mouvement de domaine vers la réponse.
func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:               m.ID,
		ProductID:        m.ProductID,
		QuantityDelta:    m.QuantityDelta,
		Kind:             m.Kind,
		OriginEntityType: string(m.OriginEntityType),
		OriginEntityID:   m.OriginEntityID,
		OriginReference:  m.OriginReference,
		CreatedAt:        m.CreatedAt,
		CreatedBy:        m.CreatedBy,
	}
}

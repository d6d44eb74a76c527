package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
)

// CreateEntityRequest création d'une entité suivie par un workflow d'intake.
type CreateEntityRequest struct {
	Reference string              `json:"reference"`
	Lines     []EntityLineRequest `json:"lines"`
}

// EntityLineRequest ligne produit à la création.
type EntityLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// EntityResponse entité suivie.
type EntityResponse struct {
	ID            string    `json:"id"`
	EntityType    string    `json:"entity_type"`
	CurrentStatus string    `json:"current_status"`
	Reference     string    `json:"reference"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEntityResponse mappe l'entité de domaine vers la réponse.
func NewEntityResponse(e *entity.TrackedEntity) EntityResponse {
	return EntityResponse{
		ID:            e.ID,
		EntityType:    string(e.Type),
		CurrentStatus: string(e.CurrentStatus),
		Reference:     e.Reference,
		CreatedAt:     e.CreatedAt,
	}
}

// TransitionRequest demande de changement de statut.
type TransitionRequest struct {
	TargetStatus string            `json:"target_status"`
	Reason       string            `json:"reason"`
	Metadata     map[string]string `json:"metadata"`
}

// TransitionRecordResponse trace d'audit d'une transition commitée.
type TransitionRecordResponse struct {
	ID         string            `json:"id"`
	Seq        int64             `json:"seq"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	FromStatus string            `json:"from_status"`
	ToStatus   string            `json:"to_status"`
	ActorID    string            `json:"actor_id"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewTransitionRecordResponse mappe la trace de domaine vers la réponse.
func NewTransitionRecordResponse(rec *entity.TransitionRecord) TransitionRecordResponse {
	return TransitionRecordResponse{
		ID:         rec.ID,
		Seq:        rec.Seq,
		EntityType: string(rec.EntityType),
		EntityID:   rec.EntityID,
		FromStatus: string(rec.FromStatus),
		ToStatus:   string(rec.ToStatus),
		ActorID:    rec.ActorID,
		Reason:     rec.Reason,
		Metadata:   rec.Metadata,
		OccurredAt: rec.OccurredAt,
	}
}

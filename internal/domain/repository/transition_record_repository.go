package repository

import (
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// TransitionRecordRepository port du magasin d'historique (append-only).
// ListByEntity rend l'historique complet dans l'ordre de commit (Seq croissant).
type TransitionRecordRepository interface {
	Create(record *entity.TransitionRecord) error
	ListByEntity(entityType status.EntityType, entityID string) ([]*entity.TransitionRecord, error)
}

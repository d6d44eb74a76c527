package repository

import (
	"time"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// TrackedEntityRepository port de persistance des entités suivies et de leurs
// lignes. Le moteur n'écrit que current_status ; les lignes sont posées à la
// création par le workflow d'origine puis lues pour les effets de stock.
type TrackedEntityRepository interface {
	Create(e *entity.TrackedEntity, lines []*entity.Line) error
	GetByID(entityType status.EntityType, id string) (*entity.TrackedEntity, error)
	// GetForUpdate bloque la ligne de l'entité (SELECT FOR UPDATE) :
	// sérialise les transitions concurrentes sur la même entité.
	GetForUpdate(entityType status.EntityType, id string) (*entity.TrackedEntity, error)
	UpdateStatus(entityType status.EntityType, id string, newStatus status.Status, updatedAt time.Time) error
	ListLines(entityType status.EntityType, id string) ([]*entity.Line, error)
}

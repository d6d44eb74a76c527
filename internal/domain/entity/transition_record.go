package entity

import (
	"time"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// TransitionRecord trace immuable d'une transition réussie (journal d'audit).
// Une trace par transition commitée ; les tentatives rejetées ne sont pas
// enregistrées ici (elles partent dans les logs de diagnostic).
// Seq est attribué par le magasin d'historique et suit l'ordre de commit.
type TransitionRecord struct {
	ID         string
	Seq        int64
	EntityType status.EntityType
	EntityID   string
	FromStatus status.Status
	ToStatus   status.Status
	ActorID    string
	Reason     string
	Metadata   map[string]string
	OccurredAt time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// TrackedEntity objet de workflow (attendu, commande ou retour) dont le cycle
// de vie est gouverné par le graphe de sa famille. Le moteur de transitions ne
// lit et n'écrit que CurrentStatus ; les champs métier appartiennent au
// workflow d'origine (intake commandes, quai de réception, guichet retours).
// Une entité arrivée sur un statut terminal ne bouge plus.
type TrackedEntity struct {
	ID            string
	Type          status.EntityType
	CurrentStatus status.Status
	Reference     string // référence métier (n° commande, n° BL, n° retour)
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Line ligne produit d'une entité suivie. Alimente les effets de stock des
// transitions (réception totale, expédition, remise en stock).
type Line struct {
	ID         string
	EntityType status.EntityType
	EntityID   string
	ProductID  string
	Quantity   decimal.Decimal // entier strictement positif
}

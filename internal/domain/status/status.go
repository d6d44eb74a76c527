package status

// Status statut de workflow d'une entité suivie (vocabulaire métier en français,
// identique aux valeurs affichées sur le tableau de bord).
type Status string

// String représentation texte (pour logs et erreurs).
func (s Status) String() string { return string(s) }

// EntityType famille d'entité gouvernée par un graphe de transitions.
type EntityType string

const (
	EntityTypeShipment EntityType = "shipment" // attendu de réception (entrant)
	EntityTypeOrder    EntityType = "order"    // commande (sortant)
	EntityTypeReturn   EntityType = "return"   // retour client
)

// ParseEntityType valide une famille d'entité reçue de l'extérieur.
func ParseEntityType(s string) (EntityType, bool) {
	switch EntityType(s) {
	case EntityTypeShipment, EntityTypeOrder, EntityTypeReturn:
		return EntityType(s), true
	}
	return "", false
}

// Statuts des attendus de réception.
const (
	ShipmentPlanned           Status = "prévu"
	ShipmentInTransit         Status = "en_transit"
	ShipmentArrived           Status = "arrivé"
	ShipmentReceiving         Status = "en_cours_réception"
	ShipmentPartiallyReceived Status = "réceptionné_partiellement"
	ShipmentFullyReceived     Status = "réceptionné_totalement"
	ShipmentAnomaly           Status = "anomalie"
	ShipmentClosed            Status = "clôturé"
	ShipmentCancelled         Status = "annulé"
)

// Statuts des commandes.
const (
	OrderPending   Status = "en_attente"
	OrderPicking   Status = "en_préparation"
	OrderPicked    Status = "préparée"
	OrderShipped   Status = "expédiée"
	OrderDelivered Status = "livrée"
	OrderAnomaly   Status = "anomalie"
	OrderCancelled Status = "annulée"
	OrderClosed    Status = "clôturée"
)

// Statuts des retours.
const (
	ReturnAnnounced  Status = "annoncé"
	ReturnReceived   Status = "reçu"
	ReturnInspecting Status = "en_contrôle"
	ReturnRestocked  Status = "remis_en_stock"
	ReturnScrapped   Status = "rebuté"
	ReturnAnomaly    Status = "anomalie"
	ReturnClosed     Status = "clôturé"
	ReturnCancelled  Status = "annulé"
)

package status

import "fmt"

// Les trois graphes sont indépendants : même forme générale (chemin nominal
// linéaire plus arêtes d'exception/annulation vers un état rattrapable) mais
// chaque famille garde son vocabulaire propre.

var shipmentGraph = mustGraph(EntityTypeShipment, ShipmentPlanned, map[Status][]Status{
	ShipmentPlanned:           {ShipmentInTransit, ShipmentCancelled},
	ShipmentInTransit:         {ShipmentArrived, ShipmentPlanned, ShipmentCancelled},
	ShipmentArrived:           {ShipmentReceiving},
	ShipmentReceiving:         {ShipmentPartiallyReceived, ShipmentFullyReceived, ShipmentAnomaly},
	ShipmentPartiallyReceived: {ShipmentFullyReceived, ShipmentAnomaly},
	ShipmentAnomaly:           {ShipmentReceiving, ShipmentFullyReceived},
	ShipmentFullyReceived:     {ShipmentClosed},
	ShipmentClosed:            {},
	ShipmentCancelled:         {},
})

var orderGraph = mustGraph(EntityTypeOrder, OrderPending, map[Status][]Status{
	OrderPending:   {OrderPicking, OrderCancelled},
	OrderPicking:   {OrderPicked, OrderPending, OrderCancelled},
	OrderPicked:    {OrderShipped, OrderAnomaly},
	OrderAnomaly:   {OrderPicking, OrderShipped},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {OrderClosed},
	OrderClosed:    {},
	OrderCancelled: {},
})

var returnGraph = mustGraph(EntityTypeReturn, ReturnAnnounced, map[Status][]Status{
	ReturnAnnounced:  {ReturnReceived, ReturnCancelled},
	ReturnReceived:   {ReturnInspecting},
	ReturnInspecting: {ReturnRestocked, ReturnScrapped, ReturnAnomaly},
	ReturnAnomaly:    {ReturnInspecting, ReturnScrapped},
	ReturnRestocked:  {ReturnClosed},
	ReturnScrapped:   {ReturnClosed},
	ReturnClosed:     {},
	ReturnCancelled:  {},
})

var graphs = map[EntityType]*Graph{
	EntityTypeShipment: shipmentGraph,
	EntityTypeOrder:    orderGraph,
	EntityTypeReturn:   returnGraph,
}

// ForType retourne le graphe de la famille, ou une erreur si la famille est inconnue.
func ForType(t EntityType) (*Graph, error) {
	g, ok := graphs[t]
	if !ok {
		return nil, fmt.Errorf("famille d'entité inconnue: %q", t)
	}
	return g, nil
}

// All graphes par famille (diagnostics, validation au démarrage).
func All() map[EntityType]*Graph {
	out := make(map[EntityType]*Graph, len(graphs))
	for t, g := range graphs {
		out[t] = g
	}
	return out
}

func mustGraph(entityType EntityType, initial Status, edges map[Status][]Status) *Graph {
	g, err := NewGraph(entityType, initial, edges)
	if err != nil {
		panic(err)
	}
	return g
}

package status

import (
	"fmt"
	"sort"
)

// Graph graphe orienté des transitions légales d'une famille d'entité.
// Table pure et immuable : les règles métier décidant *quand* transitionner
// restent chez les appelants, le graphe ne dit que ce qui est *légal*.
// Un statut avec un ensemble sortant vide est terminal.
type Graph struct {
	entityType EntityType
	initial    Status
	edges      map[Status][]Status
}

// NewGraph construit et valide un graphe.
// Validation au démarrage : le statut initial existe, toute cible d'arête est
// elle-même une clé du graphe (pas d'état orphelin) et il existe au moins un
// statut terminal.
func NewGraph(entityType EntityType, initial Status, edges map[Status][]Status) (*Graph, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("graphe %s: aucune arête définie", entityType)
	}
	if _, ok := edges[initial]; !ok {
		return nil, fmt.Errorf("graphe %s: statut initial %q absent du graphe", entityType, initial)
	}
	hasTerminal := false
	for from, targets := range edges {
		if len(targets) == 0 {
			hasTerminal = true
		}
		seen := make(map[Status]bool, len(targets))
		for _, to := range targets {
			if _, ok := edges[to]; !ok {
				return nil, fmt.Errorf("graphe %s: cible orpheline %q depuis %q", entityType, to, from)
			}
			if to == from {
				return nil, fmt.Errorf("graphe %s: boucle sur %q", entityType, from)
			}
			if seen[to] {
				return nil, fmt.Errorf("graphe %s: arête dupliquée %q -> %q", entityType, from, to)
			}
			seen[to] = true
		}
	}
	if !hasTerminal {
		return nil, fmt.Errorf("graphe %s: aucun statut terminal", entityType)
	}

	// Copie défensive, le graphe est partagé entre goroutines en lecture seule.
	copied := make(map[Status][]Status, len(edges))
	for from, targets := range edges {
		copied[from] = append([]Status(nil), targets...)
	}
	return &Graph{entityType: entityType, initial: initial, edges: copied}, nil
}

// EntityType famille gouvernée par ce graphe.
func (g *Graph) EntityType() EntityType { return g.entityType }

// Initial statut de création des entités de cette famille.
func (g *Graph) Initial() Status { return g.initial }

// Contains indique si le statut appartient au graphe.
func (g *Graph) Contains(s Status) bool {
	_, ok := g.edges[s]
	return ok
}

// AllowedNext statuts atteignables depuis s. Ensemble vide pour un statut
// terminal, nil si s n'appartient pas au graphe.
func (g *Graph) AllowedNext(s Status) []Status {
	targets, ok := g.edges[s]
	if !ok {
		return nil
	}
	out := append([]Status(nil), targets...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanTransition indique si l'arête from -> to existe.
func (g *Graph) CanTransition(from, to Status) bool {
	for _, t := range g.edges[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal indique si s n'a aucune arête sortante.
func (g *Graph) IsTerminal(s Status) bool {
	targets, ok := g.edges[s]
	return ok && len(targets) == 0
}

// Statuses tous les statuts du graphe, triés (pour diagnostics).
func (g *Graph) Statuses() []Status {
	out := make([]Status, 0, len(g.edges))
	for s := range g.edges {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

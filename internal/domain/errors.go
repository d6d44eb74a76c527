package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

// Erreurs de domaine (sentinelles).
var (
	ErrNotFound          = errors.New("ressource introuvable")
	ErrProductNotFound   = errors.New("produit introuvable")
	ErrEntityNotFound    = errors.New("entité introuvable")
	ErrInvalidInput      = errors.New("entrée invalide")
	ErrDuplicate         = errors.New("ressource dupliquée")
	ErrUnauthorized      = errors.New("non autorisé")
	ErrConflict          = errors.New("conflit avec l'état courant")
	ErrInsufficientStock = errors.New("stock insuffisant")
)

// IllegalTransitionError transition absente du graphe de la famille.
// Porte l'ensemble des statuts permis pour que l'appelant puisse se corriger.
// Jamais retenté automatiquement : c'est une erreur de logique de l'appelant.
type IllegalTransitionError struct {
	EntityType status.EntityType
	From       status.Status
	To         status.Status
	Allowed    []status.Status
}

func (e *IllegalTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("transition illégale %s: %q -> %q (permis: [%s])",
		e.EntityType, e.From, e.To, strings.Join(allowed, ", "))
}

// Is permet errors.Is(err, ErrConflict) sur l'erreur typée.
func (e *IllegalTransitionError) Is(target error) bool { return target == ErrConflict }

// InsufficientStockError réservation refusée faute de disponible.
// Condition métier légitime, pas une faute : l'appelant décide de la suite
// (mise en attente, reliquat, rejet de la ligne).
type InsufficientStockError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant produit %s: demandé %s, disponible %s",
		e.ProductID, e.Requested, e.Available)
}

// Is permet errors.Is(err, ErrInsufficientStock) sur l'erreur typée.
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ConcurrencyConflictError écriture concurrente non résolue par la
// sérialisation (échec optimiste du stockage). Seule classe d'erreur que le
// moteur peut retenter, de façon bornée, depuis une relecture fraîche.
type ConcurrencyConflictError struct {
	Op  string
	Err error
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("conflit de concurrence (%s): %v", e.Op, e.Err)
}

func (e *ConcurrencyConflictError) Unwrap() error { return e.Err }

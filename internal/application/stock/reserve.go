package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
	"github.com/Bobyyy70/speede-flow-engine/pkg/metrics"
)

// ReserveUseCase coordinateur de réservation : la seule opération du moteur
// exigeant une vraie section critique. Le check-then-append sur un produit est
// sérialisé par le verrou de ligne (SELECT FOR UPDATE) pris dans la
// transaction ; deux produits différents ne se contendent jamais.
type ReserveUseCase struct {
	txRunner TxRunner
}

// NewReserveUseCase construit le coordinateur.
func NewReserveUseCase(txRunner TxRunner) *ReserveUseCase {
	return &ReserveUseCase{txRunner: txRunner}
}

// ReserveInput demande de réservation d'une ligne de commande.
type ReserveInput struct {
	ProductID        string
	Quantity         decimal.Decimal // entier strictement positif
	OriginEntityType status.EntityType
	OriginEntityID   string
	OriginReference  string
	ActorID          string
}

// Reserve bloque Quantity sur le disponible du produit, ou échoue en
// InsufficientStockError sans rien écrire. Deux Reserve concurrents sur le
// même produit ne peuvent pas réussir tous les deux si leur somme dépasse le
// disponible au moment de l'évaluation.
func (uc *ReserveUseCase) Reserve(ctx context.Context, input ReserveInput) (*entity.Movement, error) {
	if input.ProductID == "" || input.OriginEntityID == "" || input.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.IsInteger() || !input.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	var movement *entity.Movement

	err := uc.txRunner.Run(ctx, func(
		movementRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetByID(input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}

		// Section critique par produit : la ligne reste verrouillée jusqu'au
		// commit, les réservations concurrentes du même produit attendent ici.
		level, err := stockRepo.GetForUpdate(input.ProductID)
		if err != nil {
			return err
		}
		available := level.Available()
		if input.Quantity.GreaterThan(available) {
			return &domain.InsufficientStockError{
				ProductID: input.ProductID,
				Requested: input.Quantity,
				Available: available,
			}
		}

		movement = &entity.Movement{
			ID:               uuid.New().String(),
			ProductID:        input.ProductID,
			QuantityDelta:    input.Quantity,
			Kind:             entity.MovementKindReservation,
			OriginEntityType: input.OriginEntityType,
			OriginEntityID:   input.OriginEntityID,
			OriginReference:  input.OriginReference,
			CreatedAt:        now,
			CreatedBy:        input.ActorID,
		}
		if err := movement.Validate(); err != nil {
			return err
		}
		if err := movementRepo.Create(movement); err != nil {
			return err
		}
		level.Reserved = level.Reserved.Add(input.Quantity)
		level.UpdatedAt = now
		return stockRepo.Upsert(level)
	})
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.ReservationsTotal.WithLabelValues("accepted").Inc()
	return movement, nil
}

// ReleaseInput demande de libération, explicite et pilotée par l'appelant
// (jamais déduite d'un statut d'annulation).
type ReleaseInput struct {
	ProductID        string
	OriginEntityType status.EntityType
	OriginEntityID   string
	Quantity         decimal.Decimal // zéro = libérer tout le restant
	OriginReference  string
	ActorID          string
}

// Release appende le mouvement compensatoire d'une réservation. Idempotent
// par (produit, entité d'origine) : re-libérer une réservation déjà soldée est
// un no-op (mouvement nil), pas une erreur, pour tolérer la livraison
// at-least-once des workflows appelants. Une quantité partielle libère au plus
// le restant.
func (uc *ReserveUseCase) Release(ctx context.Context, input ReleaseInput) (*entity.Movement, error) {
	if input.ProductID == "" || input.OriginEntityID == "" || input.ActorID == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.IsInteger() || input.Quantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	var movement *entity.Movement

	err := uc.txRunner.Run(ctx, func(
		movementRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := productRepo.GetByID(input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}

		level, err := stockRepo.GetForUpdate(input.ProductID)
		if err != nil {
			return err
		}
		outstanding, err := movementRepo.OutstandingReservation(input.ProductID, input.OriginEntityID)
		if err != nil {
			return err
		}
		if !outstanding.IsPositive() {
			return nil // déjà soldé : no-op
		}

		quantity := outstanding
		if input.Quantity.IsPositive() && input.Quantity.LessThan(outstanding) {
			quantity = input.Quantity
		}
		movement = &entity.Movement{
			ID:               uuid.New().String(),
			ProductID:        input.ProductID,
			QuantityDelta:    quantity.Neg(),
			Kind:             entity.MovementKindRelease,
			OriginEntityType: input.OriginEntityType,
			OriginEntityID:   input.OriginEntityID,
			OriginReference:  input.OriginReference,
			CreatedAt:        now,
			CreatedBy:        input.ActorID,
		}
		if err := movement.Validate(); err != nil {
			return err
		}
		if err := movementRepo.Create(movement); err != nil {
			return err
		}
		level.Reserved = level.Reserved.Sub(quantity)
		level.UpdatedAt = now
		return stockRepo.Upsert(level)
	})
	if err != nil {
		metrics.ReleasesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if movement == nil {
		metrics.ReleasesTotal.WithLabelValues("noop").Inc()
	} else {
		metrics.ReleasesTotal.WithLabelValues("applied").Inc()
	}
	return movement, nil
}

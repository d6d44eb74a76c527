package stock

import (
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

// StockUseCase chemin de lecture unique de l'agrégat de stock. Les couches UI
// ne re-dérivent jamais réservé/disponible depuis les mouvements bruts : elles
// passent par ici.
type StockUseCase struct {
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	productRepo  repository.ProductRepository
}

// NewStockUseCase construit le lecteur d'agrégat.
func NewStockUseCase(
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) *StockUseCase {
	return &StockUseCase{stockRepo: stockRepo, movementRepo: movementRepo, productRepo: productRepo}
}

// StockOf agrégat courant {physique, réservé, disponible} d'un produit.
// Un produit connu sans mouvement a un agrégat à zéro (création paresseuse).
func (uc *StockUseCase) StockOf(productID string) (*entity.StockLevel, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	level, err := uc.stockRepo.Get(productID)
	if err != nil {
		return nil, err
	}
	return level, nil
}

// Movements page du grand livre d'un produit (audit).
func (uc *StockUseCase) Movements(productID string, limit, offset int) ([]*entity.Movement, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return uc.movementRepo.ListByProduct(productID, limit, offset)
}

// Replay recalcule l'agrégat par rejeu complet du grand livre. C'est la
// définition de vérité ; l'agrégat matérialisé n'est qu'un cache.
func (uc *StockUseCase) Replay(productID string) (physical, reserved decimal.Decimal, err error) {
	return uc.movementRepo.Replay(productID)
}

// Reconcile compare l'agrégat matérialisé au rejeu du grand livre.
// Contrat de correction de l'agrégateur : les deux doivent toujours être
// égaux. En cas d'écart, le rejeu fait foi.
func (uc *StockUseCase) Reconcile(productID string) (equal bool, cached, replayed *entity.StockLevel, err error) {
	level, err := uc.stockRepo.Get(productID)
	if err != nil {
		return false, nil, nil, err
	}
	physical, reserved, err := uc.movementRepo.Replay(productID)
	if err != nil {
		return false, nil, nil, err
	}
	replayed = &entity.StockLevel{ProductID: productID, Physical: physical, Reserved: reserved}
	equal = level.Physical.Equal(physical) && level.Reserved.Equal(reserved)
	return equal, level, replayed, nil
}

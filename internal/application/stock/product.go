package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

// ProductUseCase gestion du référentiel produit. Le moteur ne connaît des
// produits que leur existence : toute ligne d'entité et tout mouvement
// référencent un produit créé ici.
type ProductUseCase struct {
	productRepo repository.ProductRepository
}

// NewProductUseCase construit le référentiel.
func NewProductUseCase(productRepo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{productRepo: productRepo}
}

// Create crée une référence produit. SKU unique.
func (uc *ProductUseCase) Create(sku, name string) (*entity.Product, error) {
	if sku == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.productRepo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	product := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.productRepo.Create(product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetByID retourne le produit, ou ErrProductNotFound.
func (uc *ProductUseCase) GetByID(id string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

// GetBySKU retourne le produit, ou ErrProductNotFound.
func (uc *ProductUseCase) GetBySKU(sku string) (*entity.Product, error) {
	product, err := uc.productRepo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

package repository

import "github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"

// ProductRepository port de persistance des références produit (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
}

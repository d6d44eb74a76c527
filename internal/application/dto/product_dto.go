package dto

import (
	"time"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
)

// CreateProductRequest entrée pour créer une référence produit.
type CreateProductRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// ProductResponse référence produit.
type ProductResponse struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProductResponse mappe le produit de domaine vers la réponse.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	}
}

package repository

import "github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"

// StockRepository port de lecture/écriture de l'agrégat de stock matérialisé.
// Utilisé dans les transactions du coordinateur et du moteur de transitions.
type StockRepository interface {
	Get(productID string) (*entity.StockLevel, error)
	Upsert(level *entity.StockLevel) error
	// GetForUpdate bloque la ligne du produit (SELECT FOR UPDATE) :
	// c'est la section critique par produit du reserve.
	GetForUpdate(productID string) (*entity.StockLevel, error)
}

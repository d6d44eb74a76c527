package stock

import (
	"context"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

// TxRunner exécute une fonction dans une transaction de BD, en passant des
// repositories liés à cette tx. C'est l'unité indivisible du coordinateur de
// réservation : lecture du disponible, vérification et append du mouvement
// commitent ou échouent ensemble.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movementRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}

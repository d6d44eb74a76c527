package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo agrégat de stock matérialisé sur PostgreSQL (pool ou tx).
// La table stock_levels est un cache du grand livre, maintenu dans la même
// transaction que chaque append de mouvement.
type StockRepo struct {
	q Querier
}

// NewStockRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get agrégat courant d'un produit. Ligne absente = agrégat à zéro
// (création paresseuse au premier mouvement).
func (r *StockRepo) Get(productID string) (*entity.StockLevel, error) {
	query := `
		SELECT product_id, physical, reserved, updated_at
		FROM stock_levels WHERE product_id = $1`
	var s entity.StockLevel
	err := r.q.QueryRow(context.Background(), query, productID).Scan(
		&s.ProductID, &s.Physical, &s.Reserved, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, Physical: decimal.Zero, Reserved: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &s, nil
}

// GetForUpdate agrégat avec verrou de ligne (SELECT FOR UPDATE). C'est la
// section critique par produit du reserve : la ligne est créée à zéro si
// absente, pour que le verrou existe dès le premier mouvement du produit.
func (r *StockRepo) GetForUpdate(productID string) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (product_id, physical, reserved, updated_at)
		VALUES ($1, 0, 0, now())
		ON CONFLICT (product_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, productID); err != nil {
		return nil, fmt.Errorf("init stock level: %w", err)
	}
	query := `
		SELECT product_id, physical, reserved, updated_at
		FROM stock_levels WHERE product_id = $1
		FOR UPDATE`
	var s entity.StockLevel
	err := r.q.QueryRow(context.Background(), query, productID).Scan(
		&s.ProductID, &s.Physical, &s.Reserved, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return &s, nil
}

// Upsert insère ou met à jour l'agrégat du produit.
func (r *StockRepo) Upsert(level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, physical, reserved, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id)
		DO UPDATE SET physical = EXCLUDED.physical, reserved = EXCLUDED.reserved, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, level.ProductID, level.Physical, level.Reserved)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo grand livre de mouvements sur PostgreSQL (pool ou tx).
// Append-only : aucun UPDATE ni DELETE n'existe sur cette table.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create appende un mouvement. N'échoue que sur entrée malformée ou erreur
// technique : les conditions métier sont vérifiées avant, par le coordinateur.
func (r *MovementRepo) Create(movement *entity.Movement) error {
	if err := movement.Validate(); err != nil {
		return err
	}
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (id, product_id, quantity_delta, kind, origin_entity_type, origin_entity_id, origin_reference, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	createdBy := (*string)(nil)
	if movement.CreatedBy != "" {
		createdBy = &movement.CreatedBy
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.QuantityDelta, movement.Kind,
		string(movement.OriginEntityType), movement.OriginEntityID, movement.OriginReference,
		movement.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// GetByID retourne un mouvement par ID, nil si absent.
func (r *MovementRepo) GetByID(id string) (*entity.Movement, error) {
	query := `
		SELECT id, product_id, quantity_delta, kind, origin_entity_type, origin_entity_id, origin_reference, created_at, created_by
		FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct page du grand livre d'un produit, du plus récent au plus ancien.
func (r *MovementRepo) ListByProduct(productID string, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT id, product_id, quantity_delta, kind, origin_entity_type, origin_entity_id, origin_reference, created_at, created_by
		FROM movements WHERE product_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// ListByOrigin mouvements rattachés à une entité d'origine, en ordre d'append.
func (r *MovementRepo) ListByOrigin(entityType status.EntityType, entityID string) ([]*entity.Movement, error) {
	query := `
		SELECT id, product_id, quantity_delta, kind, origin_entity_type, origin_entity_id, origin_reference, created_at, created_by
		FROM movements WHERE origin_entity_type = $1 AND origin_entity_id = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("list by origin: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// Replay recalcule l'agrégat par rejeu complet :
// physique = Σ receipt/shipment/adjustment, réservé = Σ reservation/release.
func (r *MovementRepo) Replay(productID string) (physical, reserved decimal.Decimal, err error) {
	query := `
		SELECT
			COALESCE(SUM(quantity_delta) FILTER (WHERE kind IN ('receipt', 'shipment', 'adjustment')), 0),
			COALESCE(SUM(quantity_delta) FILTER (WHERE kind IN ('reservation', 'release')), 0)
		FROM movements WHERE product_id = $1`
	err = r.q.QueryRow(context.Background(), query, productID).Scan(&physical, &reserved)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("replay movements: %w", err)
	}
	return physical, reserved, nil
}

// OutstandingReservation réservé restant pour (produit, entité d'origine).
func (r *MovementRepo) OutstandingReservation(productID string, originEntityID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity_delta), 0)
		FROM movements
		WHERE product_id = $1 AND origin_entity_id = $2 AND kind IN ('reservation', 'release')`
	var outstanding decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, productID, originEntityID).Scan(&outstanding)
	if err != nil {
		return decimal.Zero, fmt.Errorf("outstanding reservation: %w", err)
	}
	return outstanding, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var originType string
	var createdBy *string
	err := row.Scan(&m.ID, &m.ProductID, &m.QuantityDelta, &m.Kind,
		&originType, &m.OriginEntityID, &m.OriginReference, &m.CreatedAt, &createdBy)
	if err != nil {
		return nil, err
	}
	m.OriginEntityType = status.EntityType(originType)
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

var _ repository.TrackedEntityRepository = (*TrackedEntityRepo)(nil)

// TrackedEntityRepo entités suivies et leurs lignes sur PostgreSQL (pool ou tx).
type TrackedEntityRepo struct {
	q Querier
}

// NewTrackedEntityRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewTrackedEntityRepository(q Querier) *TrackedEntityRepo {
	return &TrackedEntityRepo{q: q}
}

// Create persiste l'entité et ses lignes.
func (r *TrackedEntityRepo) Create(e *entity.TrackedEntity, lines []*entity.Line) error {
	query := `
		INSERT INTO tracked_entities (id, entity_type, current_status, reference, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		e.ID, string(e.Type), string(e.CurrentStatus), e.Reference, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create tracked entity: %w", err)
	}
	for _, line := range lines {
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		lineQuery := `
			INSERT INTO entity_lines (id, entity_type, entity_id, product_id, quantity)
			VALUES ($1, $2, $3, $4, $5)`
		_, err := r.q.Exec(context.Background(), lineQuery,
			line.ID, string(line.EntityType), line.EntityID, line.ProductID, line.Quantity,
		)
		if err != nil {
			return fmt.Errorf("create entity line: %w", err)
		}
	}
	return nil
}

// GetByID retourne l'entité, nil si absente.
func (r *TrackedEntityRepo) GetByID(entityType status.EntityType, id string) (*entity.TrackedEntity, error) {
	query := `
		SELECT id, entity_type, current_status, reference, created_by, created_at, updated_at
		FROM tracked_entities WHERE entity_type = $1 AND id = $2`
	return r.scanOne(query, entityType, id)
}

// GetForUpdate retourne l'entité avec verrou de ligne (SELECT FOR UPDATE) :
// sérialise les transitions concurrentes sur la même entité.
func (r *TrackedEntityRepo) GetForUpdate(entityType status.EntityType, id string) (*entity.TrackedEntity, error) {
	query := `
		SELECT id, entity_type, current_status, reference, created_by, created_at, updated_at
		FROM tracked_entities WHERE entity_type = $1 AND id = $2
		FOR UPDATE`
	return r.scanOne(query, entityType, id)
}

// UpdateStatus écrit le nouveau statut. Seul champ que le moteur modifie.
func (r *TrackedEntityRepo) UpdateStatus(entityType status.EntityType, id string, newStatus status.Status, updatedAt time.Time) error {
	query := `
		UPDATE tracked_entities SET current_status = $1, updated_at = $2
		WHERE entity_type = $3 AND id = $4`
	tag, err := r.q.Exec(context.Background(), query, string(newStatus), updatedAt, string(entityType), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntityNotFound
	}
	return nil
}

// ListLines lignes produit d'une entité.
func (r *TrackedEntityRepo) ListLines(entityType status.EntityType, id string) ([]*entity.Line, error) {
	query := `
		SELECT id, entity_type, entity_id, product_id, quantity
		FROM entity_lines WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, string(entityType), id)
	if err != nil {
		return nil, fmt.Errorf("list entity lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.Line
	for rows.Next() {
		var line entity.Line
		var lineType string
		if err := rows.Scan(&line.ID, &lineType, &line.EntityID, &line.ProductID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan entity line: %w", err)
		}
		line.EntityType = status.EntityType(lineType)
		list = append(list, &line)
	}
	return list, rows.Err()
}

func (r *TrackedEntityRepo) scanOne(query string, entityType status.EntityType, id string) (*entity.TrackedEntity, error) {
	var e entity.TrackedEntity
	var entType, current string
	err := r.q.QueryRow(context.Background(), query, string(entityType), id).Scan(
		&e.ID, &entType, &current, &e.Reference, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tracked entity: %w", err)
	}
	e.Type = status.EntityType(entType)
	e.CurrentStatus = status.Status(current)
	return &e, nil
}

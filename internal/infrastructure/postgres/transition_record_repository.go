package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Bobyyy70/speede-flow-engine/internal/domain/entity"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/repository"
	"github.com/Bobyyy70/speede-flow-engine/internal/domain/status"
)

var _ repository.TransitionRecordRepository = (*TransitionRecordRepo)(nil)

// TransitionRecordRepo magasin d'historique des transitions sur PostgreSQL
// (pool ou tx). Append-only ; seq BIGSERIAL matérialise l'ordre de commit.
type TransitionRecordRepo struct {
	q Querier
}

// NewTransitionRecordRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewTransitionRecordRepository(q Querier) *TransitionRecordRepo {
	return &TransitionRecordRepo{q: q}
}

// Create appende la trace et récupère son seq attribué.
func (r *TransitionRecordRepo) Create(record *entity.TransitionRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	var metadata []byte
	if record.Metadata != nil {
		var err error
		metadata, err = json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}
	reason := (*string)(nil)
	if record.Reason != "" {
		reason = &record.Reason
	}
	query := `
		INSERT INTO transition_records (id, entity_type, entity_id, from_status, to_status, actor_id, reason, metadata, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`
	err := r.q.QueryRow(context.Background(), query,
		record.ID, string(record.EntityType), record.EntityID,
		string(record.FromStatus), string(record.ToStatus),
		record.ActorID, reason, metadata, record.OccurredAt,
	).Scan(&record.Seq)
	if err != nil {
		return fmt.Errorf("create transition record: %w", err)
	}
	return nil
}

// ListByEntity historique complet d'une entité en ordre de commit.
func (r *TransitionRecordRepo) ListByEntity(entityType status.EntityType, entityID string) ([]*entity.TransitionRecord, error) {
	query := `
		SELECT id, seq, entity_type, entity_id, from_status, to_status, actor_id, reason, metadata, occurred_at
		FROM transition_records WHERE entity_type = $1 AND entity_id = $2
		ORDER BY seq ASC`
	rows, err := r.q.Query(context.Background(), query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("list transition records: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransitionRecord
	for rows.Next() {
		var rec entity.TransitionRecord
		var entType, from, to string
		var reason *string
		var metadata []byte
		if err := rows.Scan(&rec.ID, &rec.Seq, &entType, &rec.EntityID, &from, &to,
			&rec.ActorID, &reason, &metadata, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan transition record: %w", err)
		}
		rec.EntityType = status.EntityType(entType)
		rec.FromStatus = status.Status(from)
		rec.ToStatus = status.Status(to)
		if reason != nil {
			rec.Reason = *reason
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}

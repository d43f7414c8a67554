package repository

import (
	"context"
	"fmt"

	"github.com/playtestbot/roster/internal/domain"
)

type pgHistoryRepo struct {
	db DBTX
}

// NewPgHistoryRepository returns a pgx-backed HistoryRepository.
func NewPgHistoryRepository(db DBTX) HistoryRepository {
	return &pgHistoryRepo{db: db}
}

func (r *pgHistoryRepo) ListSince(ctx context.Context, cutoff int64) ([]domain.HistoryRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, generated_at, participants
		FROM roster_history
		WHERE generated_at > $1
		ORDER BY generated_at ASC, id ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list roster history: %w", err)
	}
	defer rows.Close()

	var out []domain.HistoryRecord
	for rows.Next() {
		var rec domain.HistoryRecord
		if err := rows.Scan(&rec.ID, &rec.GeneratedAt, &rec.Participants); err != nil {
			return nil, fmt.Errorf("scan roster history: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster history: %w", err)
	}
	return out, nil
}

func (r *pgHistoryRepo) Append(ctx context.Context, rec domain.HistoryRecord) error {
	participants := rec.Participants
	if participants == nil {
		participants = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO roster_history (id, generated_at, participants)
		VALUES ($1, $2, $3)`,
		rec.ID, rec.GeneratedAt, participants)
	if err != nil {
		return fmt.Errorf("insert roster history: %w", err)
	}
	return nil
}

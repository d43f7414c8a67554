package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/playtestbot/roster/internal/domain"
)

const playtesterColumns = `id, name, perm_state, temp_state, last_request_at, is_admin`

type pgPlaytesterRepo struct {
	db DBTX
}

// NewPgPlaytesterRepository returns a pgx-backed PlaytesterRepository.
func NewPgPlaytesterRepository(db DBTX) PlaytesterRepository {
	return &pgPlaytesterRepo{db: db}
}

func (r *pgPlaytesterRepo) FindByID(ctx context.Context, id string) (*domain.Playtester, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+playtesterColumns+`
		FROM playtesters WHERE id = $1`, id)
	return scanPlaytester(row)
}

func (r *pgPlaytesterRepo) Save(ctx context.Context, p *domain.Playtester) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO playtesters (`+playtesterColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			perm_state = EXCLUDED.perm_state,
			temp_state = EXCLUDED.temp_state,
			last_request_at = EXCLUDED.last_request_at,
			is_admin = EXCLUDED.is_admin`,
		p.ID,
		p.Name,
		string(p.PermState),
		string(p.TempState),
		p.LastRequestAt,
		p.IsAdmin,
	)
	if err != nil {
		return fmt.Errorf("upsert playtester: %w", err)
	}
	return nil
}

func (r *pgPlaytesterRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM playtesters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete playtester: %w", err)
	}
	return nil
}

func (r *pgPlaytesterRepo) ListAll(ctx context.Context) ([]domain.Playtester, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+playtesterColumns+`
		FROM playtesters ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list playtesters: %w", err)
	}
	defer rows.Close()

	var out []domain.Playtester
	for rows.Next() {
		p, err := scanPlaytester(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playtesters: %w", err)
	}
	return out, nil
}

func (r *pgPlaytesterRepo) CountAdmins(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM playtesters WHERE id = $1 AND is_admin`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func scanPlaytester(row pgx.Row) (*domain.Playtester, error) {
	var p domain.Playtester
	var perm, temp string
	err := row.Scan(&p.ID, &p.Name, &perm, &temp, &p.LastRequestAt, &p.IsAdmin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan playtester: %w", err)
	}
	p.PermState = domain.PermState(perm)
	p.TempState = domain.TempState(temp)
	p.LastRequestAt = p.LastRequestAt.UTC()
	return &p, nil
}

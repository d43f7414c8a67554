package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/playtestbot/roster/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PlaytesterRepository provides access to playtester records.
// Each call is atomic for a single record; there are no multi-record transactions.
type PlaytesterRepository interface {
	// FindByID returns a playtester, or nil when none exists.
	FindByID(ctx context.Context, id string) (*domain.Playtester, error)

	// Save inserts or fully replaces a playtester.
	Save(ctx context.Context, p *domain.Playtester) error

	// Delete removes a playtester. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// ListAll returns every playtester ordered by id.
	ListAll(ctx context.Context) ([]domain.Playtester, error)

	// CountAdmins returns 1 if id exists and is an admin, else 0.
	CountAdmins(ctx context.Context, id string) (int, error)
}

// HistoryRepository provides access to roster history. Records are append-only.
type HistoryRepository interface {
	// ListSince returns records generated strictly after cutoff (epoch seconds).
	ListSince(ctx context.Context, cutoff int64) ([]domain.HistoryRecord, error)

	// Append stores a new record.
	Append(ctx context.Context, rec domain.HistoryRecord) error
}

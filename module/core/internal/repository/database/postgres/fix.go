package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/database"
)

var _ database.FixRepository = (*FixRepo)(nil)

type FixRepo struct {
	db *sql.DB
}

func NewFixRepo(db *sql.DB) *FixRepo {
	return &FixRepo{db: db}
}

func (r *FixRepo) Insert(ctx context.Context, fix *domain.Fix) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fixes (latitude, longitude, timestamp, source) VALUES ($1, $2, $3, $4)`,
		fix.Latitude, fix.Longitude, fix.Timestamp, string(fix.Source),
	)
	return err
}

func (r *FixRepo) GetLatest(ctx context.Context) (*domain.Fix, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, timestamp, source FROM fixes ORDER BY timestamp DESC LIMIT 1`,
	)

	var fix domain.Fix
	if err := row.Scan(&fix.Latitude, &fix.Longitude, &fix.Timestamp, &fix.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &fix, nil
}

func (r *FixRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Fix, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT latitude, longitude, timestamp, source FROM fixes WHERE timestamp >= $1 AND timestamp <= $2 ORDER BY timestamp ASC`,
		query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Fix
	for rows.Next() {
		var fix domain.Fix
		if err := rows.Scan(&fix.Latitude, &fix.Longitude, &fix.Timestamp, &fix.Source); err != nil {
			return nil, err
		}
		results = append(results, fix)
	}
	return results, rows.Err()
}

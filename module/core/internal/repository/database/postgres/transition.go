package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/database"
)

var _ database.TransitionRepository = (*TransitionRepo)(nil)

type TransitionRepo struct {
	db *sql.DB
}

func NewTransitionRepo(db *sql.DB) *TransitionRepo {
	return &TransitionRepo{db: db}
}

func (r *TransitionRepo) Insert(ctx context.Context, t *domain.Transition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO region_transitions (region_id, kind, latitude, longitude, fix_timestamp, source) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(t.RegionID), string(t.Kind), t.Fix.Latitude, t.Fix.Longitude, t.Fix.Timestamp, string(t.Fix.Source),
	)
	return err
}

// List returns newest first. An empty RegionID matches every region.
func (r *TransitionRepo) List(ctx context.Context, query *domain.TransitionQuery) ([]domain.Transition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT region_id, kind, latitude, longitude, fix_timestamp, source FROM region_transitions WHERE ($1 = '' OR region_id = $1) ORDER BY fix_timestamp DESC, id DESC LIMIT $2`,
		string(query.RegionID), query.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Transition
	for rows.Next() {
		var t domain.Transition
		if err := rows.Scan(&t.RegionID, &t.Kind, &t.Fix.Latitude, &t.Fix.Longitude, &t.Fix.Timestamp, &t.Fix.Source); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

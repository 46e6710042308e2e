package database

import (
	"context"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

type FixRepository interface {
	Insert(ctx context.Context, fix *domain.Fix) error
	GetLatest(ctx context.Context) (*domain.Fix, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Fix, error)
}

type TransitionRepository interface {
	Insert(ctx context.Context, t *domain.Transition) error
	List(ctx context.Context, query *domain.TransitionQuery) ([]domain.Transition, error)
}

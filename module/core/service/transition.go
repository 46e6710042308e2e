package service

import (
	"context"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/database"
)

const (
	defaultTransitionLimit = 100
	maxTransitionLimit     = 1000
)

type TransitionService struct {
	repo database.TransitionRepository
}

func NewTransitionService(repo database.TransitionRepository) *TransitionService {
	return &TransitionService{repo: repo}
}

// List returns the most recent transitions first.
func (s *TransitionService) List(ctx context.Context, query *domain.TransitionQuery) ([]domain.Transition, error) {
	q := *query
	if q.Limit <= 0 {
		q.Limit = defaultTransitionLimit
	}
	if q.Limit > maxTransitionLimit {
		q.Limit = maxTransitionLimit
	}
	return s.repo.List(ctx, &q)
}

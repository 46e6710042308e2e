package service

import (
	"context"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/cache"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/database"
	"github.com/nandanugg/region-notifier/module/core/metrics"
)

type LocationService struct {
	repo  database.FixRepository
	dedup cache.FixDeduper
}

// NewLocationService builds the fix history service. dedup may be nil, in
// which case every fix is treated as new.
func NewLocationService(repo database.FixRepository, dedup cache.FixDeduper) *LocationService {
	return &LocationService{repo: repo, dedup: dedup}
}

// SaveFix stores the fix unless it was already seen. The boolean result is
// false for duplicates, which callers should not evaluate again.
func (s *LocationService) SaveFix(ctx context.Context, fix *domain.Fix) (bool, error) {
	if s.dedup != nil {
		fresh, err := s.dedup.MarkSeen(ctx, fix)
		if err != nil {
			return false, &domain.ExternalSourceError{Op: "dedup fix", Err: err}
		}
		if !fresh {
			metrics.FixesDuplicateTotal.WithLabelValues(string(fix.Source)).Inc()
			return false, nil
		}
	}

	if err := s.repo.Insert(ctx, fix); err != nil {
		return false, &domain.ExternalSourceError{Op: "save fix", Err: err}
	}
	return true, nil
}

func (s *LocationService) GetLatest(ctx context.Context) (*domain.Fix, error) {
	return s.repo.GetLatest(ctx)
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Fix, error) {
	return s.repo.GetHistory(ctx, query)
}

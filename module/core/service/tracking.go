package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

type fixRecorder interface {
	SaveFix(ctx context.Context, fix *domain.Fix) (bool, error)
}

type fixEvaluator interface {
	ProcessFix(ctx context.Context, fix domain.Fix) (*Outcome, error)
}

// TrackingService is the entry point shared by every fix source.
type TrackingService struct {
	recorder  fixRecorder
	evaluator fixEvaluator
	log       zerolog.Logger
}

func NewTrackingService(recorder fixRecorder, evaluator fixEvaluator, log zerolog.Logger) *TrackingService {
	return &TrackingService{recorder: recorder, evaluator: evaluator, log: log}
}

// HandleFix records the fix and evaluates it. A duplicate fix returns a nil
// outcome and no error. A failure to record is logged but does not block
// evaluation: history is best effort, notifications are not.
func (s *TrackingService) HandleFix(ctx context.Context, fix domain.Fix) (*Outcome, error) {
	fresh, err := s.recorder.SaveFix(ctx, &fix)
	if err != nil {
		s.log.Warn().Err(err).Str("source", string(fix.Source)).Msg("fix not recorded")
		fresh = true
	}
	if !fresh {
		s.log.Debug().Str("source", string(fix.Source)).Time("timestamp", fix.Timestamp).Msg("duplicate fix skipped")
		return nil, nil
	}
	return s.evaluator.ProcessFix(ctx, fix)
}

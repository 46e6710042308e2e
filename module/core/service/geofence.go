package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/database"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/publisher"
	"github.com/nandanugg/region-notifier/module/core/metrics"
)

// Outcome describes what a single fix did across the catalog.
type Outcome struct {
	Transitions   []domain.Transition          `json:"transitions"`
	Notifications []domain.NotificationRequest `json:"notifications"`
	CurrentRegion domain.RegionID              `json:"current_region"`
}

type Status struct {
	CurrentRegion domain.RegionID                        `json:"current_region"`
	LastFix       *domain.Fix                            `json:"last_fix,omitempty"`
	Regions       map[domain.RegionID]domain.RegionState `json:"regions"`
	UpdatedAt     time.Time                              `json:"updated_at"`
}

type Option func(*GeofenceService)

// WithRecorder stores every transition after it is committed.
func WithRecorder(repo database.TransitionRepository) Option {
	return func(s *GeofenceService) { s.recorder = repo }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *GeofenceService) { s.log = log }
}

// WithRand injects the random source used to pick notification content.
func WithRand(rng *rand.Rand) Option {
	return func(s *GeofenceService) { s.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(s *GeofenceService) { s.now = now }
}

// GeofenceService runs every fix through the tracker and turns entries into
// notification requests. Fix evaluation is serialised by mu: the state table
// update and the decision to notify are made together for each fix.
type GeofenceService struct {
	publisher publisher.NotificationPublisher
	recorder  database.TransitionRepository
	log       zerolog.Logger
	now       func() time.Time

	mu        sync.Mutex
	regions   []domain.Region
	tracker   *Tracker
	rng       *rand.Rand
	current   domain.RegionID
	lastFix   *domain.Fix
	updatedAt time.Time
}

func NewGeofenceService(pub publisher.NotificationPublisher, regions []domain.Region, opts ...Option) (*GeofenceService, error) {
	if err := domain.ValidateCatalog(regions); err != nil {
		return nil, err
	}

	s := &GeofenceService{
		publisher: pub,
		log:       zerolog.Nop(),
		now:       time.Now,
		regions:   regions,
		tracker:   NewTracker(regions),
		current:   domain.NoRegion,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s, nil
}

// ProcessFix evaluates the fix against every region and dispatches one
// notification per entry. Failures are isolated per region and returned
// joined; the outcome is always non-nil.
func (s *GeofenceService) ProcessFix(ctx context.Context, fix domain.Fix) (*Outcome, error) {
	start := time.Now()
	out, errs := s.evaluate(fix)
	metrics.FixProcessingDuration.Observe(time.Since(start).Seconds())
	metrics.FixesProcessedTotal.WithLabelValues(string(fix.Source)).Inc()

	for i := range out.Notifications {
		req := &out.Notifications[i]
		if err := s.publisher.PublishNotification(ctx, req); err != nil {
			metrics.NotificationsSkippedTotal.WithLabelValues(string(req.RegionID), "publish_failed").Inc()
			errs = append(errs, &domain.RegionError{
				RegionID: req.RegionID,
				Err:      &domain.ExternalSourceError{Op: "publish notification", Err: err},
			})
			continue
		}
		metrics.NotificationsRequestedTotal.WithLabelValues(string(req.RegionID)).Inc()
		s.log.Info().
			Str("region_id", string(req.RegionID)).
			Str("request_id", req.ID.String()).
			Str("title", req.Title).
			Msg("notification requested")
	}

	if s.recorder != nil {
		for i := range out.Transitions {
			t := &out.Transitions[i]
			if err := s.recorder.Insert(ctx, t); err != nil {
				errs = append(errs, &domain.RegionError{
					RegionID: t.RegionID,
					Err:      &domain.ExternalSourceError{Op: "record transition", Err: err},
				})
			}
		}
	}

	return out, errors.Join(errs...)
}

func (s *GeofenceService) evaluate(fix domain.Fix) (*Outcome, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := &Outcome{CurrentRegion: domain.NoRegion}
	var errs []error

	for _, r := range s.regions {
		tr, changed, err := s.tracker.Step(fix, r)
		if err != nil {
			errs = append(errs, &domain.RegionError{RegionID: r.ID, Err: err})
			continue
		}
		// last match in catalog order wins the label
		if st, _ := s.tracker.State(r.ID); st.Inside {
			out.CurrentRegion = r.ID
		}
		if !changed {
			continue
		}

		out.Transitions = append(out.Transitions, tr)
		metrics.TransitionsTotal.WithLabelValues(string(r.ID), string(tr.Kind)).Inc()
		s.log.Debug().
			Str("region_id", string(r.ID)).
			Str("kind", string(tr.Kind)).
			Float64("latitude", fix.Latitude).
			Float64("longitude", fix.Longitude).
			Msg("region transition")

		if tr.Kind != domain.TransitionEntered {
			continue
		}

		content, err := Select(r.Pool, s.rng)
		if err != nil {
			metrics.NotificationsSkippedTotal.WithLabelValues(string(r.ID), "empty_pool").Inc()
			errs = append(errs, &domain.EmptyPoolError{RegionID: r.ID})
			continue
		}
		out.Notifications = append(out.Notifications, domain.NotificationRequest{
			ID:          uuid.New(),
			RegionID:    r.ID,
			Title:       content.Title,
			Body:        content.Body,
			Fix:         fix,
			RequestedAt: s.now(),
		})
	}

	s.current = out.CurrentRegion
	s.lastFix = &fix
	s.updatedAt = s.now()
	return out, errs
}

// Status is a display view; it never feeds back into notification decisions.
func (s *GeofenceService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *domain.Fix
	if s.lastFix != nil {
		f := *s.lastFix
		last = &f
	}
	return Status{
		CurrentRegion: s.current,
		LastFix:       last,
		Regions:       s.tracker.Snapshot(),
		UpdatedAt:     s.updatedAt,
	}
}

func (s *GeofenceService) Regions() []domain.Region {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Region, len(s.regions))
	copy(out, s.regions)
	return out
}

// Reload swaps the catalog and starts a new session. An invalid catalog
// leaves the running one untouched.
func (s *GeofenceService) Reload(regions []domain.Region) error {
	if err := domain.ValidateCatalog(regions); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.regions = regions
	s.tracker.Reset(regions)
	s.current = domain.NoRegion
	s.lastFix = nil
	s.updatedAt = s.now()
	s.log.Info().Int("regions", len(regions)).Msg("catalog reloaded")
	return nil
}

package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

type mockNotificationPublisher struct {
	mu                    sync.Mutex
	publishNotificationFn func(ctx context.Context, req *domain.NotificationRequest) error
	calls                 []*domain.NotificationRequest
}

func (m *mockNotificationPublisher) PublishNotification(ctx context.Context, req *domain.NotificationRequest) error {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.publishNotificationFn != nil {
		return m.publishNotificationFn(ctx, req)
	}
	return nil
}

func (m *mockNotificationPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockTransitionRepo struct {
	insertFn func(ctx context.Context, t *domain.Transition) error
	inserted []domain.Transition
}

func (m *mockTransitionRepo) Insert(ctx context.Context, t *domain.Transition) error {
	m.inserted = append(m.inserted, *t)
	if m.insertFn != nil {
		return m.insertFn(ctx, t)
	}
	return nil
}

func (m *mockTransitionRepo) List(_ context.Context, _ *domain.TransitionQuery) ([]domain.Transition, error) {
	return m.inserted, nil
}

var melbourneBox = domain.BoundingBox{MinLat: -37.81, MaxLat: -37.80, MinLon: 144.95, MaxLon: 144.952}

func regionR1() domain.Region {
	return domain.Region{
		ID:    "R1",
		Boxes: []domain.BoundingBox{melbourneBox},
		Pool:  []domain.NotificationContent{{Title: "T1", Body: "B1"}},
	}
}

func fixAt(lat, lon float64) domain.Fix {
	return domain.Fix{Latitude: lat, Longitude: lon, Timestamp: time.Unix(1715003456, 0), Source: domain.SourceForeground}
}

func newTestService(t *testing.T, pub *mockNotificationPublisher, regions []domain.Region, opts ...Option) *GeofenceService {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	svc, err := NewGeofenceService(pub, regions, opts...)
	require.NoError(t, err)
	return svc
}

func TestProcessFix_EntryDispatchesNotification(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})

	out, err := svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.NoError(t, err)

	require.Len(t, out.Transitions, 1)
	assert.Equal(t, domain.TransitionEntered, out.Transitions[0].Kind)
	assert.Equal(t, domain.RegionID("R1"), out.Transitions[0].RegionID)
	assert.Equal(t, domain.RegionID("R1"), out.CurrentRegion)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, "T1", pub.calls[0].Title)
	assert.Equal(t, "B1", pub.calls[0].Body)
	assert.Equal(t, domain.RegionID("R1"), pub.calls[0].RegionID)
}

func TestProcessFix_DwellThenExit(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})
	ctx := context.Background()

	first, err := svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)
	second, err := svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)
	third, err := svc.ProcessFix(ctx, fixAt(-37.82, 144.951))
	require.NoError(t, err)

	require.Len(t, first.Transitions, 1)
	assert.Equal(t, domain.TransitionEntered, first.Transitions[0].Kind)
	assert.Empty(t, second.Transitions)
	require.Len(t, third.Transitions, 1)
	assert.Equal(t, domain.TransitionExited, third.Transitions[0].Kind)
	assert.Equal(t, domain.NoRegion, third.CurrentRegion)

	assert.Equal(t, 1, pub.count())
}

func TestProcessFix_IdempotentDwell(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})

	entered := 0
	for i := 0; i < 50; i++ {
		out, err := svc.ProcessFix(context.Background(), fixAt(-37.805+float64(i)*0.0001, 144.951))
		require.NoError(t, err)
		for _, tr := range out.Transitions {
			if tr.Kind == domain.TransitionEntered {
				entered++
				assert.Equal(t, 0, i, "entry must fire on the first inside fix")
			}
		}
	}
	assert.Equal(t, 1, entered)
	assert.Equal(t, 1, pub.count())
}

func TestProcessFix_ReArm(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})
	ctx := context.Background()

	fixes := []domain.Fix{
		fixAt(-37.805, 144.951),
		fixAt(-37.82, 144.951),
		fixAt(-37.83, 144.951),
		fixAt(-37.805, 144.951),
	}
	for _, f := range fixes {
		_, err := svc.ProcessFix(ctx, f)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, pub.count())
}

func TestProcessFix_OverlappingRegionsAreIndependent(t *testing.T) {
	pub := &mockNotificationPublisher{}
	wide := domain.Region{
		ID:    "wide",
		Boxes: []domain.BoundingBox{{MinLat: -38, MaxLat: -37, MinLon: 144, MaxLon: 145}},
		Pool:  []domain.NotificationContent{{Title: "wide", Body: "w"}},
	}
	narrow := domain.Region{
		ID:    "narrow",
		Boxes: []domain.BoundingBox{melbourneBox},
		Pool:  []domain.NotificationContent{{Title: "narrow", Body: "n"}},
	}
	svc := newTestService(t, pub, []domain.Region{wide, narrow})
	ctx := context.Background()

	// inside both
	out, err := svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)
	assert.Len(t, out.Transitions, 2)
	assert.Equal(t, domain.RegionID("narrow"), out.CurrentRegion)
	assert.Equal(t, 2, pub.count())

	// leave narrow, stay in wide
	out, err = svc.ProcessFix(ctx, fixAt(-37.5, 144.5))
	require.NoError(t, err)
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, domain.RegionID("narrow"), out.Transitions[0].RegionID)
	assert.Equal(t, domain.TransitionExited, out.Transitions[0].Kind)
	assert.Equal(t, domain.RegionID("wide"), out.CurrentRegion)

	// back into narrow only re-arms narrow
	out, err = svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, domain.RegionID("narrow"), out.Transitions[0].RegionID)
	assert.Equal(t, 3, pub.count())
}

func TestProcessFix_CurrentRegionIsLastMatchInCatalogOrder(t *testing.T) {
	pub := &mockNotificationPublisher{}
	a := domain.Region{ID: "a", Boxes: []domain.BoundingBox{melbourneBox}, Pool: []domain.NotificationContent{{Title: "a"}}}
	b := domain.Region{ID: "b", Boxes: []domain.BoundingBox{melbourneBox}, Pool: []domain.NotificationContent{{Title: "b"}}}
	c := domain.Region{ID: "c", Boxes: []domain.BoundingBox{{MinLat: 0, MaxLat: 1, MinLon: 0, MaxLon: 1}}, Pool: []domain.NotificationContent{{Title: "c"}}}
	svc := newTestService(t, pub, []domain.Region{a, b, c})

	out, err := svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.NoError(t, err)
	assert.Equal(t, domain.RegionID("b"), out.CurrentRegion)
	assert.Equal(t, domain.RegionID("b"), svc.Status().CurrentRegion)
	require.NotNil(t, svc.Status().LastFix)
	assert.Equal(t, -37.805, svc.Status().LastFix.Latitude)

	// label stays on b while dwelling even though no transition fires
	out, err = svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.NoError(t, err)
	assert.Empty(t, out.Transitions)
	assert.Equal(t, domain.RegionID("b"), out.CurrentRegion)
}

func TestProcessFix_EmptyPoolCommitsTransition(t *testing.T) {
	pub := &mockNotificationPublisher{}
	silent := domain.Region{ID: "silent", Boxes: []domain.BoundingBox{melbourneBox}}
	svc := newTestService(t, pub, []domain.Region{silent})

	out, err := svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyPool)

	var epe *domain.EmptyPoolError
	require.ErrorAs(t, err, &epe)
	assert.Equal(t, domain.RegionID("silent"), epe.RegionID)

	require.Len(t, out.Transitions, 1)
	assert.Empty(t, out.Notifications)
	assert.Equal(t, 0, pub.count())

	st, ok := svc.Status().Regions["silent"]
	require.True(t, ok)
	assert.True(t, st.Inside)

	// still inside: no second attempt and no error
	_, err = svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	assert.NoError(t, err)
}

func TestProcessFix_PublishErrorDoesNotStopOtherRegions(t *testing.T) {
	pub := &mockNotificationPublisher{
		publishNotificationFn: func(_ context.Context, req *domain.NotificationRequest) error {
			if req.RegionID == "a" {
				return errors.New("rabbitmq down")
			}
			return nil
		},
	}
	a := domain.Region{ID: "a", Boxes: []domain.BoundingBox{melbourneBox}, Pool: []domain.NotificationContent{{Title: "a"}}}
	b := domain.Region{ID: "b", Boxes: []domain.BoundingBox{melbourneBox}, Pool: []domain.NotificationContent{{Title: "b"}}}
	svc := newTestService(t, pub, []domain.Region{a, b})

	out, err := svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalSource)

	var re *domain.RegionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, domain.RegionID("a"), re.RegionID)

	assert.Len(t, out.Transitions, 2)
	assert.Equal(t, 2, pub.count())

	// the failed entry is not retried while dwelling
	_, err = svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	assert.NoError(t, err)
	assert.Equal(t, 2, pub.count())
}

func TestProcessFix_RecordsTransitions(t *testing.T) {
	pub := &mockNotificationPublisher{}
	repo := &mockTransitionRepo{}
	svc := newTestService(t, pub, []domain.Region{regionR1()}, WithRecorder(repo))
	ctx := context.Background()

	_, err := svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)
	_, err = svc.ProcessFix(ctx, fixAt(-37.82, 144.951))
	require.NoError(t, err)

	require.Len(t, repo.inserted, 2)
	assert.Equal(t, domain.TransitionEntered, repo.inserted[0].Kind)
	assert.Equal(t, domain.TransitionExited, repo.inserted[1].Kind)
}

func TestProcessFix_RecorderErrorIsReported(t *testing.T) {
	pub := &mockNotificationPublisher{}
	repo := &mockTransitionRepo{
		insertFn: func(_ context.Context, _ *domain.Transition) error {
			return errors.New("db error")
		},
	}
	svc := newTestService(t, pub, []domain.Region{regionR1()}, WithRecorder(repo))

	_, err := svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalSource)
	assert.Equal(t, 1, pub.count())
}

func TestProcessFix_ConcurrentSourcesFireOnce(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})

	var wg sync.WaitGroup
	for _, src := range []domain.FixSource{domain.SourceForeground, domain.SourceBackground} {
		wg.Add(1)
		go func(src domain.FixSource) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				f := fixAt(-37.805, 144.951)
				f.Source = src
				_, _ = svc.ProcessFix(context.Background(), f)
			}
		}(src)
	}
	wg.Wait()

	assert.Equal(t, 1, pub.count())
}

func TestNewGeofenceService_InvalidCatalog(t *testing.T) {
	pub := &mockNotificationPublisher{}
	_, err := NewGeofenceService(pub, []domain.Region{{ID: "empty"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCatalogInvalid)

	var cve *domain.CatalogValidationError
	assert.ErrorAs(t, err, &cve)
}

func TestReload_ResetsSession(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})
	ctx := context.Background()

	_, err := svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)

	require.NoError(t, svc.Reload([]domain.Region{regionR1()}))
	assert.Equal(t, domain.NoRegion, svc.Status().CurrentRegion)
	assert.False(t, svc.Status().Regions["R1"].Inside)
	assert.Nil(t, svc.Status().LastFix)

	_, err = svc.ProcessFix(ctx, fixAt(-37.805, 144.951))
	require.NoError(t, err)
	assert.Equal(t, 2, pub.count())
}

func TestReload_InvalidCatalogKeepsCurrent(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, []domain.Region{regionR1()})

	err := svc.Reload([]domain.Region{{ID: "bad", Boxes: []domain.BoundingBox{{MinLat: 1, MaxLat: 0}}}})
	require.ErrorIs(t, err, domain.ErrCatalogInvalid)

	regions := svc.Regions()
	require.Len(t, regions, 1)
	assert.Equal(t, domain.RegionID("R1"), regions[0].ID)
}

func TestProcessFix_EmptyCatalog(t *testing.T) {
	pub := &mockNotificationPublisher{}
	svc := newTestService(t, pub, nil)

	out, err := svc.ProcessFix(context.Background(), fixAt(-37.805, 144.951))
	require.NoError(t, err)
	assert.Empty(t, out.Transitions)
	assert.Equal(t, domain.NoRegion, out.CurrentRegion)
	assert.Equal(t, 0, pub.count())
}

package service

import "github.com/nandanugg/region-notifier/module/core/domain"

// Tracker holds one inside/outside flag per region and turns containment
// results into edge-triggered transitions. It is not safe for concurrent use;
// GeofenceService is its only writer.
type Tracker struct {
	states map[domain.RegionID]*domain.RegionState
}

func NewTracker(regions []domain.Region) *Tracker {
	t := &Tracker{}
	t.Reset(regions)
	return t
}

// Reset starts a new session with every region outside.
func (t *Tracker) Reset(regions []domain.Region) {
	t.states = make(map[domain.RegionID]*domain.RegionState, len(regions))
	for _, r := range regions {
		t.states[r.ID] = &domain.RegionState{}
	}
}

// Step evaluates one region against the fix. The boolean result is true when
// a transition was emitted. Only the region's own state is read or written.
func (t *Tracker) Step(fix domain.Fix, region domain.Region) (domain.Transition, bool, error) {
	st, ok := t.states[region.ID]
	if !ok {
		return domain.Transition{}, false, domain.ErrUnknownRegion
	}

	nowInside := IsInside(fix, region)
	switch {
	case nowInside && !st.Inside:
		st.Inside = true
		return domain.Transition{RegionID: region.ID, Kind: domain.TransitionEntered, Fix: fix}, true, nil
	case !nowInside && st.Inside:
		st.Inside = false
		return domain.Transition{RegionID: region.ID, Kind: domain.TransitionExited, Fix: fix}, true, nil
	default:
		return domain.Transition{}, false, nil
	}
}

func (t *Tracker) State(id domain.RegionID) (domain.RegionState, bool) {
	st, ok := t.states[id]
	if !ok {
		return domain.RegionState{}, false
	}
	return *st, true
}

func (t *Tracker) Snapshot() map[domain.RegionID]domain.RegionState {
	out := make(map[domain.RegionID]domain.RegionState, len(t.states))
	for id, st := range t.states {
		out[id] = *st
	}
	return out
}

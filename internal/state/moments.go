package state

import (
	"strawberryphone/internal/models"
)

// Moments returns a snapshot of the feed, position 0 being the newest post
func (s *State) Moments() []*models.Moment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Moment, len(s.moments))
	copy(out, s.moments)
	return out
}

// Moment finds a post by ID
func (s *State) Moment(id string) (*models.Moment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.moments {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// AddMoment prepends a post to the feed and persists
func (s *State) AddMoment(m *models.Moment) error {
	s.mu.Lock()
	s.moments = append([]*models.Moment{m}, s.moments...)
	snapshot := s.momentsLocked()
	s.mu.Unlock()
	return s.store.SaveMoments(snapshot)
}

// DeleteMoment removes a post by ID and persists
func (s *State) DeleteMoment(id string) error {
	s.mu.Lock()
	kept := s.moments[:0]
	for _, m := range s.moments {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.moments = kept
	snapshot := s.momentsLocked()
	s.mu.Unlock()
	return s.store.SaveMoments(snapshot)
}

// DeleteLatestMomentBy removes the most recent post authored by charID.
// Returns false when the author has no posts, which callers treat as a no-op.
func (s *State) DeleteLatestMomentBy(charID string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i, m := range s.moments {
		if m.CharID == charID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.moments = append(s.moments[:idx], s.moments[idx+1:]...)
	snapshot := s.momentsLocked()
	s.mu.Unlock()
	return true, s.store.SaveMoments(snapshot)
}

// MutateMoment runs fn on the named post under the state lock and persists.
// Returns false without calling fn when the post has been deleted.
func (s *State) MutateMoment(id string, fn func(m *models.Moment)) (bool, error) {
	s.mu.Lock()
	var target *models.Moment
	for _, m := range s.moments {
		if m.ID == id {
			target = m
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return false, nil
	}
	fn(target)
	snapshot := s.momentsLocked()
	s.mu.Unlock()
	return true, s.store.SaveMoments(snapshot)
}

func (s *State) momentsLocked() []*models.Moment {
	out := make([]*models.Moment, len(s.moments))
	copy(out, s.moments)
	return out
}

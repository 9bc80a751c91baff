package state

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/semaphore"

	"strawberryphone/internal/models"
)

// turnGuards hands out one weighted(1) semaphore per character. The guard is
// held for a whole response pipeline, which may span a network suspension, so
// a plain mutex would be the wrong shape: triggers must be rejectable, and
// queued waiters must be cancellable.
type turnGuards struct {
	mu     chan struct{} // 1-slot token guarding the map itself
	guards map[string]*semaphore.Weighted
}

func newTurnGuards() *turnGuards {
	g := &turnGuards{
		mu:     make(chan struct{}, 1),
		guards: make(map[string]*semaphore.Weighted),
	}
	g.mu <- struct{}{}
	return g
}

func (g *turnGuards) forCharacter(id string) *semaphore.Weighted {
	<-g.mu
	defer func() { g.mu <- struct{}{} }()
	sem, ok := g.guards[id]
	if !ok {
		sem = semaphore.NewWeighted(1)
		g.guards[id] = sem
	}
	return sem
}

// TryBeginTurn attempts to claim the exclusive response pipeline for the
// character. It never blocks; a false return means a turn is already in
// flight and the trigger must be rejected.
func (s *State) TryBeginTurn(charID string) bool {
	return s.guards.forCharacter(charID).TryAcquire(1)
}

// BeginTurn claims the pipeline, waiting until it is free or ctx is done.
// Background tasks use this; interactive triggers use TryBeginTurn.
func (s *State) BeginTurn(ctx context.Context, charID string) error {
	return s.guards.forCharacter(charID).Acquire(ctx, 1)
}

// EndTurn releases the pipeline claimed by TryBeginTurn/BeginTurn
func (s *State) EndTurn(charID string) {
	s.guards.forCharacter(charID).Release(1)
}

// Characters returns a snapshot of the roster slice. The pointed-to records
// are shared; mutate them only through MutateCharacter.
func (s *State) Characters() []*models.Character {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Character, len(s.characters))
	copy(out, s.characters)
	return out
}

// Character finds a roster entry by ID. ok is false when the character has
// been deleted, which in-flight tasks must treat as "drop the mutation".
func (s *State) Character(id string) (*models.Character, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.characters {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// AddCharacter prepends a character to the roster and persists
func (s *State) AddCharacter(c *models.Character) error {
	c.Normalize()
	s.mu.Lock()
	s.characters = append([]*models.Character{c}, s.characters...)
	s.mu.Unlock()
	return s.PersistCharacters()
}

// DeleteCharacter removes a character; its history is simply discarded
func (s *State) DeleteCharacter(id string) error {
	s.mu.Lock()
	kept := s.characters[:0]
	for _, c := range s.characters {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.characters = kept
	s.mu.Unlock()
	return s.PersistCharacters()
}

// MutateCharacter runs fn on the named character under the short character
// lock and persists the roster afterwards. The roster is encoded before the
// lock is released; a mutation on another character can never be observed
// mid-marshal. Returns false without calling fn when the character no longer
// exists.
func (s *State) MutateCharacter(id string, fn func(c *models.Character)) (bool, error) {
	s.charMu.Lock()
	c, ok := s.Character(id)
	if !ok {
		s.charMu.Unlock()
		return false, nil
	}
	fn(c)
	data, err := s.encodeRoster()
	s.charMu.Unlock()
	if err != nil {
		return true, err
	}
	return true, s.store.SaveCharactersRaw(data)
}

// ReadCharacter runs fn on the named character under the short character
// lock. History walks outside a mutation go through here; fn must not retain
// the pointer past its return.
func (s *State) ReadCharacter(id string, fn func(c *models.Character)) bool {
	s.charMu.Lock()
	defer s.charMu.Unlock()
	c, ok := s.Character(id)
	if !ok {
		return false
	}
	fn(c)
	return true
}

// PersistCharacters encodes the current roster under the character lock and
// writes it to the store.
func (s *State) PersistCharacters() error {
	s.charMu.Lock()
	data, err := s.encodeRoster()
	s.charMu.Unlock()
	if err != nil {
		return err
	}
	return s.store.SaveCharactersRaw(data)
}

func (s *State) encodeRoster() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.characters)
}

// WorldBooks returns the world book library
func (s *State) WorldBooks() []*models.WorldBook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WorldBook, len(s.worldBooks))
	copy(out, s.worldBooks)
	return out
}

// WorldBook resolves a world book reference. A dangling ID yields ok=false,
// which callers treat as "no book bound", never as an error.
func (s *State) WorldBook(id string) (*models.WorldBook, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.worldBooks {
		if w.ID == id {
			return w, true
		}
	}
	return nil, false
}

// AddWorldBook appends a world book and persists
func (s *State) AddWorldBook(w *models.WorldBook) error {
	s.mu.Lock()
	s.worldBooks = append(s.worldBooks, w)
	snapshot := make([]*models.WorldBook, len(s.worldBooks))
	copy(snapshot, s.worldBooks)
	s.mu.Unlock()
	return s.store.SaveWorldBooks(snapshot)
}

// DeleteWorldBook removes a world book. Characters referencing it keep the
// dangling ID and simply resolve to no book.
func (s *State) DeleteWorldBook(id string) error {
	s.mu.Lock()
	kept := s.worldBooks[:0]
	for _, w := range s.worldBooks {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.worldBooks = kept
	snapshot := make([]*models.WorldBook, len(s.worldBooks))
	copy(snapshot, s.worldBooks)
	s.mu.Unlock()
	return s.store.SaveWorldBooks(snapshot)
}

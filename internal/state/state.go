// Package state owns the in-memory application state: the character roster,
// world books, moments, user profile, settings and the user's wallet. Every
// mutation goes through a method here, which persists the touched records
// before returning. Nothing in this package is ambient; the orchestrator owns
// one State and hands it to collaborators.
package state

import (
	"sync"

	"strawberryphone/internal/models"
	"strawberryphone/internal/store"
	"strawberryphone/pkg/logger"
)

// State is the single mutable application state object.
//
// Locking discipline: a character's history and wallet are guarded by that
// character's turn guard (long, spans a whole response pipeline including
// network suspension) plus a short per-character mutex for individual
// read-modify-write steps. The user's global wallet has its own lock since
// any character's transfer return can touch it. Roster membership, world
// books, moments, profile and settings are guarded by mu.
type State struct {
	mu    sync.RWMutex
	store *store.Store
	log   *logger.Logger

	characters []*models.Character
	worldBooks []*models.WorldBook
	moments    []*models.Moment
	profile    models.UserProfile
	settings   models.Settings

	walletMu   sync.Mutex
	userWallet float64

	autoMoments  bool
	activeChatID string

	guards *turnGuards
	charMu sync.Mutex // short lock for single character read-modify-writes
}

// Load builds the state from the store, applying documented defaults for
// absent records.
func Load(st *store.Store, defaults models.Settings) *State {
	return &State{
		store:       st,
		log:         logger.GetGlobal().WithComponent("state"),
		characters:  st.LoadCharacters(),
		worldBooks:  st.LoadWorldBooks(),
		moments:     st.LoadMoments(),
		profile:     st.LoadProfile(),
		settings:    st.LoadSettings(defaults),
		userWallet:  st.LoadUserWallet(),
		autoMoments: st.LoadAutoMomentsEnabled(),
		guards:      newTurnGuards(),
	}
}

// Settings returns the current API settings
func (s *State) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces and persists the API settings
func (s *State) UpdateSettings(settings models.Settings) error {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return s.store.SaveSettings(settings)
}

// Profile returns the user profile
func (s *State) Profile() models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// UpdateProfile replaces and persists the user profile
func (s *State) UpdateProfile(p models.UserProfile) error {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return s.store.SaveProfile(p)
}

// SetActiveChat records which chat view is focused; the empty string means
// no chat is open. The orchestrator consults this for unread bookkeeping.
func (s *State) SetActiveChat(charID string) {
	s.mu.Lock()
	s.activeChatID = charID
	s.mu.Unlock()
}

// ActiveChat returns the focused chat's character ID, or ""
func (s *State) ActiveChat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeChatID
}

// AutoMomentsEnabled reports whether background moment generation is on
func (s *State) AutoMomentsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoMoments
}

// SetAutoMomentsEnabled toggles and persists background moment generation
func (s *State) SetAutoMomentsEnabled(enabled bool) error {
	s.mu.Lock()
	s.autoMoments = enabled
	s.mu.Unlock()
	return s.store.SaveAutoMomentsEnabled(enabled)
}

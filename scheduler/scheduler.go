// Package scheduler drives the background behaviors: proactive messages from
// idle characters and periodic character-authored feed posts. Every task
// re-checks its target before mutating, so a character or post deleted while
// a task slept is simply skipped.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"strawberryphone/chat"
	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
	"strawberryphone/moments"
	"strawberryphone/pkg/config"
	"strawberryphone/pkg/logger"
)

// Scheduler owns the proactive-chat and auto-moment tickers
type Scheduler struct {
	state *state.State
	chats *chat.Service
	feed  *moments.Service
	cfg   *config.Config
	log   *logger.Logger

	mu             sync.Mutex
	lastAutoMoment time.Time

	// injectable clock and randomness for tests
	now  func() time.Time
	odds func() float64
}

func New(st *state.State, chats *chat.Service, feed *moments.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		state: st,
		chats: chats,
		feed:  feed,
		cfg:   cfg,
		log:   logger.GetGlobal().WithComponent("scheduler"),
		now:   time.Now,
		odds:  rand.Float64,
	}
}

// Run starts the configured background loops and blocks until ctx is done
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	if s.cfg.Features.EnableProactiveChat {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runProactiveLoop(ctx)
		}()
	}
	if s.cfg.Features.EnableAutoMoments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runAutoMomentLoop(ctx)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) runProactiveLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Scheduler.ProactiveTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.proactiveTick(ctx)
		}
	}
}

// proactiveTick rolls the dice once per tick; on a hit, a random idle
// character with proactive chat enabled sends an unprompted message.
func (s *Scheduler) proactiveTick(ctx context.Context) {
	if s.odds() >= s.cfg.Scheduler.ProactiveOdds {
		return
	}
	c := s.pickProactiveCharacter()
	if c == nil {
		return
	}
	if err := s.chats.RespondProactively(ctx, c.ID); err != nil {
		s.log.WithCharacter(c.ID).LogError(err, "proactive message")
	}
}

func (s *Scheduler) pickProactiveCharacter() *models.Character {
	cutoff := s.now().Add(-s.cfg.Scheduler.ProactiveQuietWindow).UnixMilli()
	var eligible []*models.Character
	for _, c := range s.state.Characters() {
		if c.IsGroup || !c.ProactiveChat {
			continue
		}
		recent := false
		s.state.ReadCharacter(c.ID, func(c *models.Character) {
			last := c.LastMessage()
			recent = last != nil && last.Timestamp > cutoff
		})
		if recent {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[rand.Intn(len(eligible))]
}

func (s *Scheduler) runAutoMomentLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Scheduler.AutoMomentTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.autoMomentTick(ctx)
		}
	}
}

// autoMomentTick may publish one character-authored post, honoring the
// minimum spacing between posts, then lets the comment cascade run on it.
func (s *Scheduler) autoMomentTick(ctx context.Context) {
	if !s.state.AutoMomentsEnabled() {
		return
	}
	s.mu.Lock()
	due := s.now().Sub(s.lastAutoMoment) >= s.cfg.Scheduler.AutoMomentSpacing
	s.mu.Unlock()
	if !due || s.odds() >= s.cfg.Scheduler.AutoMomentOdds {
		return
	}

	c := s.pickAutoMomentCharacter()
	if c == nil {
		return
	}
	m, err := s.feed.PostCharacterMoment(ctx, c.ID)
	if err != nil {
		s.log.WithCharacter(c.ID).LogError(err, "auto moment")
		return
	}
	if m == nil {
		return
	}
	s.mu.Lock()
	s.lastAutoMoment = s.now()
	s.mu.Unlock()

	if err := s.feed.RunCommentCascade(ctx, m.ID); err != nil && ctx.Err() == nil {
		s.log.LogError(err, "comment cascade", "moment_id", m.ID)
	}
}

func (s *Scheduler) pickAutoMomentCharacter() *models.Character {
	var eligible []*models.Character
	for _, c := range s.state.Characters() {
		if c.IsGroup || !c.AutoMoment {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[rand.Intn(len(eligible))]
}

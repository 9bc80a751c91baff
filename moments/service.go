// Package moments manages the social feed: posting, likes, comments, and the
// asynchronous AI comment cascades that follow a new post.
package moments

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"strawberryphone/ai"
	"strawberryphone/chat"
	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
	"strawberryphone/pkg/logger"
)

// Generator produces one-shot completions for moment text and comments.
// Satisfied by the chat service.
type Generator interface {
	Generate(ctx context.Context, system string, turns []ai.Turn) (string, error)
}

// Service owns feed mutations. Comment cascades run as cooperative tasks and
// re-check that the moment still exists before every mutation.
type Service struct {
	state       *state.State
	gen         Generator
	events      chat.Events
	log         *logger.Logger
	maxComments int

	// injectable pacing and randomness for tests
	delay func() time.Duration
	sleep func(ctx context.Context, d time.Duration) error
	odds  func() float64
}

// Option adjusts service behavior at construction time
type Option func(*Service)

// WithPacing overrides the delay between cascade comments. Tests use an
// instant sleep; production keeps the humanlike pause.
func WithPacing(delay func() time.Duration, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.delay = delay
		s.sleep = sleep
	}
}

func NewService(st *state.State, gen Generator, events chat.Events, maxComments int, opts ...Option) *Service {
	if events == nil {
		events = chat.NopEvents{}
	}
	if maxComments <= 0 {
		maxComments = 8
	}
	s := &Service{
		state:       st,
		gen:         gen,
		events:      events,
		log:         logger.GetGlobal().WithComponent("moments"),
		maxComments: maxComments,
		delay: func() time.Duration {
			return 3*time.Second + time.Duration(rand.Int63n(int64(5*time.Second)))
		},
		sleep: func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		},
		odds: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PostUserMoment publishes a post authored by the user
func (s *Service) PostUserMoment(text, image, visibility string) (*models.Moment, error) {
	if visibility == "" {
		visibility = models.VisibilityAll
	}
	m := &models.Moment{
		ID:         uuid.New().String(),
		CharID:     models.SenderUser,
		Text:       text,
		Image:      image,
		Timestamp:  time.Now().UnixMilli(),
		Visibility: visibility,
	}
	if err := s.state.AddMoment(m); err != nil {
		return nil, err
	}
	return m, nil
}

// PostCharacterMoment asks a character to write a feed post in its own voice
// and publishes it.
func (s *Service) PostCharacterMoment(ctx context.Context, charID string) (*models.Moment, error) {
	c, ok := s.state.Character(charID)
	if !ok || c.IsGroup {
		return nil, nil
	}
	system := fmt.Sprintf("%s\n\nYou are posting to your social feed. Write one short post in your own voice. Reply with the post text only, no quotes and no commentary.", c.Prompt)
	text, err := s.gen.Generate(ctx, system, []ai.Turn{{Role: ai.RoleUser, Text: "Write your post now."}})
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	m := &models.Moment{
		ID:         uuid.New().String(),
		CharID:     c.ID,
		Text:       text,
		Timestamp:  time.Now().UnixMilli(),
		Visibility: models.VisibilityAll,
	}
	if err := s.state.AddMoment(m); err != nil {
		return nil, err
	}
	return m, nil
}

// ToggleLike adds or removes a like by the given identifier
func (s *Service) ToggleLike(momentID, likerID string) error {
	_, err := s.state.MutateMoment(momentID, func(m *models.Moment) {
		for i, l := range m.Likes {
			if l == likerID {
				m.Likes = append(m.Likes[:i], m.Likes[i+1:]...)
				return
			}
		}
		m.Likes = append(m.Likes, likerID)
	})
	return err
}

// AddUserComment appends a comment authored by the user
func (s *Service) AddUserComment(momentID, text, replyTo string) error {
	profile := s.state.Profile()
	_, err := s.state.MutateMoment(momentID, func(m *models.Moment) {
		m.Comments = append(m.Comments, models.Comment{
			ID:         uuid.New().String(),
			SenderID:   models.SenderUser,
			SenderName: profile.Name,
			Text:       text,
			Timestamp:  time.Now().UnixMilli(),
			ReplyTo:    replyTo,
		})
	})
	return err
}

// Delete removes a post from the feed
func (s *Service) Delete(momentID string) error {
	return s.state.DeleteMoment(momentID)
}

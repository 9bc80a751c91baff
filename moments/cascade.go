package moments

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"strawberryphone/ai"
	"strawberryphone/internal/models"
)

// continueOdds is the chance a cascade keeps going when a character, rather
// than the user, wrote the last comment.
const continueOdds = 0.6

// RunCommentCascade lets characters comment on a post one after another,
// with a pause between comments. The cascade stops when the comment cap is
// reached, no eligible responder remains, or the dice say so. A comment in
// reply to the user is mandatory; replies to other characters are
// probabilistic. The moment is re-fetched before every step so a deleted
// post ends the cascade cleanly.
func (s *Service) RunCommentCascade(ctx context.Context, momentID string) error {
	for {
		m, ok := s.state.Moment(momentID)
		if !ok {
			return nil
		}
		if len(m.Comments) >= s.maxComments {
			return nil
		}

		lastCommenter := models.SenderUser
		if n := len(m.Comments); n > 0 {
			lastCommenter = m.Comments[n-1].SenderID
			if lastCommenter != models.SenderUser && s.odds() > continueOdds {
				return nil
			}
		}

		responder := s.pickResponder(m, lastCommenter)
		if responder == nil {
			return nil
		}

		if err := s.sleep(ctx, s.delay()); err != nil {
			return err
		}

		text, err := s.generateComment(ctx, responder, momentID)
		if err != nil {
			s.log.LogError(err, "generating comment", "moment_id", momentID)
			return err
		}
		if text == "" {
			return nil
		}

		comment := models.Comment{
			ID:         uuid.New().String(),
			SenderID:   responder.ID,
			SenderName: responder.Name,
			Text:       text,
			Timestamp:  time.Now().UnixMilli(),
		}
		ok, err = s.state.MutateMoment(momentID, func(m *models.Moment) {
			m.Comments = append(m.Comments, comment)
		})
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		// Only the user's own posts raise notifications; characters
		// chattering among themselves stay quiet.
		if m.CharID == models.SenderUser {
			s.events.Notification(responder.Name, text, responder.Avatar)
		}
	}
}

// pickResponder selects a random character allowed to see the post,
// excluding groups and whoever commented last.
func (s *Service) pickResponder(m *models.Moment, lastCommenter string) *models.Character {
	var eligible []*models.Character
	for _, c := range s.state.Characters() {
		if c.IsGroup || c.ID == lastCommenter {
			continue
		}
		if m.Visibility != models.VisibilityAll && c.AddressGroup != m.Visibility {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[rand.Intn(len(eligible))]
}

func (s *Service) generateComment(ctx context.Context, responder *models.Character, momentID string) (string, error) {
	m, ok := s.state.Moment(momentID)
	if !ok {
		return "", nil
	}

	authorName := s.state.Profile().Name
	if m.CharID != models.SenderUser {
		if author, ok := s.state.Character(m.CharID); ok {
			authorName = author.Name
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\nYou are browsing your social feed. %s posted:\n%s\n", responder.Prompt, authorName, m.Text)
	if len(m.Comments) > 0 {
		sb.WriteString("\nComments so far:\n")
		for _, c := range m.Comments {
			fmt.Fprintf(&sb, "- %s: %s\n", c.SenderName, c.Text)
		}
	}
	sb.WriteString("\nWrite one short comment in your own voice. Reply with the comment text only.")

	text, err := s.gen.Generate(ctx, sb.String(), []ai.Turn{{Role: ai.RoleUser, Text: "Write your comment now."}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

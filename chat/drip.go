package chat

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
)

const (
	dripDelayBase   = 500 * time.Millisecond
	dripDelayJitter = 700 * time.Millisecond
)

// Dripper delivers a reply's prose as sequential message bubbles with a
// randomized pause between them, emulating typing cadence. When the speaking
// character has offline mode enabled the whole text lands as one message.
type Dripper struct {
	state  *state.State
	events Events

	// delay and sleep are injectable so tests run without wall-clock waits
	delay func() time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDripper(st *state.State, events Events) *Dripper {
	return &Dripper{
		state:  st,
		events: events,
		delay: func() time.Duration {
			return dripDelayBase + time.Duration(rand.Int63n(int64(dripDelayJitter)))
		},
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Drip splits text on line breaks and appends each non-empty line in order.
// Pauses run between consecutive lines, never after the last. Returns the
// number of messages appended. If the conversation is deleted mid-drip the
// remaining lines are dropped without error.
func (d *Dripper) Drip(ctx context.Context, convID string, speaker *models.Character, text string, singleMessage bool) (int, error) {
	var lines []string
	if singleMessage {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			lines = []string{trimmed}
		}
	} else {
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	}

	appended := 0
	for i, line := range lines {
		if i > 0 {
			if err := d.sleep(ctx, d.delay()); err != nil {
				return appended, err
			}
		}
		msg := models.Message{
			ID:         uuid.New().String(),
			Sender:     speaker.ID,
			SenderName: speaker.Name,
			Type:       models.MessageText,
			Content:    line,
			Timestamp:  time.Now().UnixMilli(),
		}
		ok, err := d.state.MutateCharacter(convID, func(c *models.Character) {
			c.Append(msg)
		})
		if err != nil {
			return appended, err
		}
		if !ok {
			return appended, nil
		}
		appended++
		d.events.HistoryChanged(convID)
	}
	return appended, nil
}

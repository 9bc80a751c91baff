package main

import (
	"fmt"
	"sync"

	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
)

// consoleEvents renders pipeline events as terminal lines. Messages for the
// active chat print inline; everything else arrives as a notification line.
type consoleEvents struct {
	state *state.State

	mu       sync.Mutex
	lastSeen map[string]uint64
}

func (e *consoleEvents) HistoryChanged(charID string) {
	if e.state.ActiveChat() != charID {
		return
	}

	// Collect the lines under the character lock, print after.
	var lines []string
	e.mu.Lock()
	if e.lastSeen == nil {
		e.lastSeen = make(map[string]uint64)
	}
	e.state.ReadCharacter(charID, func(c *models.Character) {
		for i := range c.History {
			msg := &c.History[i]
			if msg.Seq < e.lastSeen[charID] || msg.FromUser() {
				continue
			}
			e.lastSeen[charID] = msg.Seq + 1
			lines = append(lines, renderMessage(c, msg))
		}
	})
	e.mu.Unlock()

	for _, line := range lines {
		fmt.Printf("\n%s\n> ", line)
	}
}

func renderMessage(c *models.Character, msg *models.Message) string {
	name := c.Name
	if msg.SenderName != "" {
		name = msg.SenderName
	}
	switch msg.Type {
	case models.MessageText:
		return fmt.Sprintf("%s: %s", name, msg.Content)
	case models.MessageImage:
		return fmt.Sprintf("%s sent an image", name)
	case models.MessageTransfer:
		return fmt.Sprintf("%s: [transfer of %.2f, %s]", name, msg.Amount, msg.Status)
	case models.MessageRedPacket:
		return fmt.Sprintf("%s: [red packet of %.2f]", name, msg.Amount)
	case models.MessageDice:
		return fmt.Sprintf("%s rolled a %d", name, msg.Value)
	case models.MessageSystem:
		return msg.Content
	default:
		return fmt.Sprintf("%s sent a message", name)
	}
}

func (e *consoleEvents) UnreadChanged(charID string, count int) {}

func (e *consoleEvents) Notification(name, text, avatar string) {
	fmt.Printf("\n[%s] %s\n> ", name, text)
}

func (e *consoleEvents) Notice(text string) {
	fmt.Printf("\n(%s)\n> ", text)
}

func (e *consoleEvents) Typing(charID string, active bool) {}

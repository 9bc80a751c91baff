package chat

import (
	"fmt"
	"strings"

	"strawberryphone/ai"
	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
)

// capabilityList enumerates every directive the model may emit, with its
// exact trigger token. Appended verbatim to every system instruction.
const capabilityList = `Available Actions:
You may start your reply with exactly one of these action tokens:
- [DICE] roll a six-sided dice. Example: "[DICE] let's see who wins"
- [TRANSFER:amount] send the user money from your wallet. Example: "[TRANSFER:5.20] buy yourself a coffee"
- [ACCEPT] accept the user's pending transfer. Example: "[ACCEPT] thank you!"
- [RETURN] return the user's pending transfer. Example: "[RETURN] I can't take this"
- [SET_AVATAR_SEED:text] change your avatar using the seed text. Example: "[SET_AVATAR_SEED:sunny cat]"
- [DELETE_MOMENT] delete your latest moments post. Example: "[DELETE_MOMENT] that was embarrassing"`

// PromptBuilder assembles the system instruction and turn history for one
// character or group.
type PromptBuilder struct {
	state *state.State
}

func NewPromptBuilder(st *state.State) *PromptBuilder {
	return &PromptBuilder{state: st}
}

// Build produces the system instruction and the ordered turn records for a
// response to c. An empty turn slice means there is nothing to respond to and
// the caller must skip the network call entirely.
//
// The character is read under its short lock; a concurrent user append cannot
// be observed mid-walk. The returned values hold copies only.
func (b *PromptBuilder) Build(c *models.Character, continuation bool) (string, []ai.Turn) {
	var system string
	var turns []ai.Turn
	b.state.ReadCharacter(c.ID, func(c *models.Character) {
		system = b.systemInstruction(c)
		turns = b.turns(c)
	})
	if continuation && len(turns) > 0 {
		turns = append(turns, ai.Turn{Role: ai.RoleUser, Text: "Continue."})
	}
	return system, turns
}

func (b *PromptBuilder) systemInstruction(c *models.Character) string {
	var sb strings.Builder

	profile := b.state.Profile()
	if profile.Persona != "" {
		fmt.Fprintf(&sb, "The user you are chatting with is %s. Their persona: %s\n\n", profile.Name, profile.Persona)
	}

	if c.IsGroup {
		sb.WriteString("You are simulating a group chat. The members are:\n")
		for _, id := range c.Members {
			member, ok := b.state.Character(id)
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", member.Name, member.Prompt)
		}
		sb.WriteString("\nDecide which single member speaks next. Your reply MUST start with that member's name followed by a colon, e.g. \"Alice: hello\".\n")
	} else {
		sb.WriteString(c.Prompt)
		sb.WriteString("\n")
		if wb, ok := b.state.WorldBook(c.WorldBookID); ok {
			fmt.Fprintf(&sb, "\n[World Book: %s]\n%s\n", wb.Title, wb.Content)
		}
		if c.OfflineMode.Enabled {
			sb.WriteString(b.offlineInstruction(c))
		} else {
			sb.WriteString("\nKeep your replies short and conversational, like instant messages. Split separate thoughts onto separate lines. Do not use asterisks or bracketed stage directions.\n")
		}
	}

	if c.Memory.Summary != "" {
		fmt.Fprintf(&sb, "\nWhat you remember from earlier conversations: %s\n", c.Memory.Summary)
	}

	sb.WriteString("\n")
	sb.WriteString(capabilityList)
	return sb.String()
}

// offlineInstruction describes the long-form roleplay style: a single
// narrative message instead of drip-fed chat bubbles.
func (b *PromptBuilder) offlineInstruction(c *models.Character) string {
	var sb strings.Builder
	sb.WriteString("\nYou are now in offline story mode. Write one continuous narrative reply of about ")
	fmt.Fprintf(&sb, "%d words. ", c.OfflineMode.WordCount)
	fmt.Fprintf(&sb, "Refer to the user in the %s person and narrate your character in the %s person. ",
		povWord(c.OfflineMode.UserPOV), povWord(c.OfflineMode.CharPOV))
	if c.OfflineMode.ShowThoughts {
		sb.WriteString("Include your character's inner thoughts. ")
	}
	if wb, ok := b.state.WorldBook(c.OfflineMode.StyleWorldBookID); ok {
		fmt.Fprintf(&sb, "Match this writing style:\n%s\n", wb.Content)
	}
	sb.WriteString("\n")
	return sb.String()
}

func povWord(pov string) string {
	switch pov {
	case "first":
		return "first"
	case "third":
		return "third"
	default:
		return "second"
	}
}

// turns converts the most recent memory.limit history entries into turn
// records. Non-text payloads become short descriptive placeholders, system
// messages are dropped, and group assistant turns are prefixed with the
// speaking member's name.
func (b *PromptBuilder) turns(c *models.Character) []ai.Turn {
	history := c.History
	if limit := c.Memory.Limit; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]ai.Turn, 0, len(history))
	for i := range history {
		msg := &history[i]
		text, ok := turnText(msg)
		if !ok {
			continue
		}
		role := ai.RoleModel
		if msg.FromUser() {
			role = ai.RoleUser
		} else if c.IsGroup && msg.SenderName != "" {
			text = msg.SenderName + ": " + text
		}
		out = append(out, ai.Turn{Role: role, Text: text})
	}
	return out
}

func turnText(msg *models.Message) (string, bool) {
	switch msg.Type {
	case models.MessageText:
		return msg.Content, true
	case models.MessageImage:
		if msg.Content != "" {
			return fmt.Sprintf("[sent an image: %s]", msg.Content), true
		}
		return "[sent an image]", true
	case models.MessageTransfer:
		switch msg.Status {
		case models.TransferAccepted:
			return fmt.Sprintf("[accepted a transfer of %.2f]", msg.Amount), true
		case models.TransferReturned:
			return fmt.Sprintf("[returned a transfer of %.2f]", msg.Amount), true
		default:
			return fmt.Sprintf("[sent a transfer of %.2f]", msg.Amount), true
		}
	case models.MessageRedPacket:
		return fmt.Sprintf("[sent a red packet of %.2f]", msg.Amount), true
	case models.MessageDice:
		return fmt.Sprintf("[rolled a dice and got %d]", msg.Value), true
	case models.MessageSystem:
		return "", false
	default:
		return "", false
	}
}

package models

// Defaults applied when a stored record is absent or predates a field.
const (
	DefaultMemoryLimit      = 20
	DefaultOfflineWordCount = 150
	DefaultUserWallet       = 1314.52
)

// MemoryPolicy controls how much history feeds the prompt builder
type MemoryPolicy struct {
	Auto    bool   `json:"auto"`
	Limit   int    `json:"limit"`
	Summary string `json:"summary"`
}

// OfflineMode configures long-form single-message replies for a character
type OfflineMode struct {
	Enabled          bool   `json:"enabled"`
	ShowThoughts     bool   `json:"show_thoughts"`
	UserPOV          string `json:"user_pov"`
	CharPOV          string `json:"char_pov"`
	WordCount        int    `json:"word_count"`
	StyleWorldBookID string `json:"style_world_book_id"`
}

// Character is a conversational partner: an individual persona or a group.
// For groups, persona/world-book/wallet/offline semantics apply to the
// resolved member characters, never to the group record itself.
type Character struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Avatar        string       `json:"avatar"`
	Prompt        string       `json:"prompt,omitempty"`
	WorldBookID   string       `json:"world_book_id,omitempty"`
	IsGroup       bool         `json:"is_group"`
	Members       []string     `json:"members,omitempty"`
	AddressGroup  string       `json:"address_group,omitempty"`
	History       []Message    `json:"history"`
	Memory        MemoryPolicy `json:"memory"`
	UnreadCount   int          `json:"unread_count"`
	WalletBalance float64      `json:"wallet_balance"`
	OfflineMode   OfflineMode  `json:"offline_mode"`
	ProactiveChat bool         `json:"proactive_chat"`
	AutoMoment    bool         `json:"auto_moment"`
	Pinned        bool         `json:"pinned"`

	nextSeq uint64
}

// Normalize fills documented defaults on records loaded from older data
func (c *Character) Normalize() {
	if c.Memory.Limit <= 0 {
		c.Memory.Limit = DefaultMemoryLimit
	}
	if c.OfflineMode.WordCount <= 0 {
		c.OfflineMode = OfflineMode{
			Enabled:      c.OfflineMode.Enabled,
			ShowThoughts: true,
			UserPOV:      "second",
			CharPOV:      "first",
			WordCount:    DefaultOfflineWordCount,
		}
	}
	// Seed the append counter past anything already recorded.
	for i := range c.History {
		if c.History[i].Seq >= c.nextSeq {
			c.nextSeq = c.History[i].Seq + 1
		}
	}
}

// Append adds a message to the history, stamping the authoritative sequence
// position. Timestamps may collide; Seq never does.
func (c *Character) Append(msg Message) *Message {
	msg.Seq = c.nextSeq
	c.nextSeq++
	c.History = append(c.History, msg)
	return &c.History[len(c.History)-1]
}

// LastMessage returns the most recent history entry, or nil
func (c *Character) LastMessage() *Message {
	if len(c.History) == 0 {
		return nil
	}
	return &c.History[len(c.History)-1]
}

// LastPendingUserTransfer returns the most recent pending transfer authored
// by the user, or nil.
func (c *Character) LastPendingUserTransfer() *Message {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].IsPendingUserTransfer() {
			return &c.History[i]
		}
	}
	return nil
}

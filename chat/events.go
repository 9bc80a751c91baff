package chat

// Events is the boundary to the presentation layer. The pipeline never calls
// into rendering directly; it raises these notifications and the subscriber
// decides what to redraw.
type Events interface {
	// HistoryChanged fires after any history append, edit or removal for
	// the named character.
	HistoryChanged(charID string)
	// UnreadChanged fires when a character's unread counter moves
	UnreadChanged(charID string, count int)
	// Notification announces an incoming reply for an unfocused chat
	Notification(name, text, avatar string)
	// Notice shows a transient inline message (errors, avatar changes)
	Notice(text string)
	// Typing toggles the typing indicator for a character
	Typing(charID string, active bool)
}

// NopEvents discards every event. Background tasks and tests that do not
// care about rendering use it.
type NopEvents struct{}

func (NopEvents) HistoryChanged(string)               {}
func (NopEvents) UnreadChanged(string, int)           {}
func (NopEvents) Notification(string, string, string) {}
func (NopEvents) Notice(string)                       {}
func (NopEvents) Typing(string, bool)                 {}

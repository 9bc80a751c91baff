package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"strawberryphone/ai"
	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
	"strawberryphone/internal/store"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return state.Load(st, models.Settings{
		APIKey:      "test-key",
		Model:       "gemini-3-flash-preview",
		Temperature: 0.7,
	})
}

func addCharacter(t *testing.T, appState *state.State, c *models.Character) *models.Character {
	t.Helper()
	require.NoError(t, appState.AddCharacter(c))
	return c
}

// recordingEvents captures everything the pipeline reports
type recordingEvents struct {
	mu             sync.Mutex
	notices        []string
	notifications  []string
	notifAvatars   []string
	unread         map[string]int
	historyChanges int
}

func (e *recordingEvents) HistoryChanged(charID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.historyChanges++
}

func (e *recordingEvents) UnreadChanged(charID string, count int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unread == nil {
		e.unread = make(map[string]int)
	}
	e.unread[charID] = count
}

func (e *recordingEvents) Notification(name, text, avatar string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = append(e.notifications, name+": "+text)
	e.notifAvatars = append(e.notifAvatars, avatar)
}

func (e *recordingEvents) Notice(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notices = append(e.notices, text)
}

func (e *recordingEvents) Typing(string, bool) {}

func (e *recordingEvents) noticeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.notices)
}

// fakeCompleter returns scripted replies and counts calls
type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	block   chan struct{} // when set, Complete waits here before returning
}

func (f *fakeCompleter) Complete(ctx context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	if n > len(f.replies) {
		n = len(f.replies)
	}
	return f.replies[n-1], nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// newTestService wires a service with instant dripping
func newTestService(t *testing.T, appState *state.State, completer ai.Completer, events Events) *Service {
	t.Helper()
	svc := NewService(appState, completer, events)
	svc.dripper.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	svc.dripper.delay = func() time.Duration { return 0 }
	return svc
}

func pendingUserTransfer(amount float64) models.Message {
	return models.Message{
		ID:        "t1",
		Sender:    models.SenderUser,
		Type:      models.MessageTransfer,
		Amount:    amount,
		Status:    models.TransferPending,
		Timestamp: time.Now().UnixMilli(),
	}
}

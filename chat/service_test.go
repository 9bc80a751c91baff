package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strawberryphone/internal/models"
	"strawberryphone/pkg/errors"
)

func seedOneToOne(t *testing.T, svc *Service) *models.Character {
	t.Helper()
	c := addCharacter(t, svc.state, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian", WalletBalance: 100})
	require.NoError(t, svc.SendText("c1", "hi", nil))
	return c
}

func TestRespondAppendsReply(t *testing.T) {
	appState := newTestState(t)
	events := &recordingEvents{}
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"hello\nthere"}}, events)
	seedOneToOne(t, svc)
	appState.SetActiveChat("c1")

	require.NoError(t, svc.RespondTo(context.Background(), "c1"))

	c, _ := appState.Character("c1")
	require.Len(t, c.History, 3)
	assert.Equal(t, "hello", c.History[1].Content)
	assert.Equal(t, "there", c.History[2].Content)
	assert.Equal(t, "c1", c.History[1].Sender)
	assert.Zero(t, c.UnreadCount, "focused chat stays read")
}

func TestRespondEmptyHistoryIsNoOp(t *testing.T) {
	appState := newTestState(t)
	completer := &fakeCompleter{}
	svc := newTestService(t, appState, completer, &recordingEvents{})
	addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})

	require.NoError(t, svc.RespondTo(context.Background(), "c1"))
	assert.Zero(t, completer.callCount(), "no network call for an empty prompt")
}

func TestRespondFailureLeavesHistoryUntouched(t *testing.T) {
	appState := newTestState(t)
	events := &recordingEvents{}
	svc := newTestService(t, appState, &fakeCompleter{err: errors.NewRemoteError("backend down")}, events)
	seedOneToOne(t, svc)

	err := svc.RespondTo(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindRemote))

	c, _ := appState.Character("c1")
	assert.Len(t, c.History, 1, "only the user's own message remains")
	assert.Equal(t, 1, events.noticeCount())
}

func TestRespondUnfocusedRaisesNotification(t *testing.T) {
	appState := newTestState(t)
	events := &recordingEvents{}
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"[SET_AVATAR_SEED:cat] surprise\nsecond line"}}, events)
	seedOneToOne(t, svc)
	appState.SetActiveChat("")

	require.NoError(t, svc.RespondTo(context.Background(), "c1"))

	c, _ := appState.Character("c1")
	assert.Equal(t, 1, c.UnreadCount)
	assert.Equal(t, 1, events.unread["c1"])
	require.Len(t, events.notifications, 1)
	assert.Equal(t, "Mio: surprise", events.notifications[0], "preview strips the leading directive")
}

func TestGroupNotificationAttributedToSpeaker(t *testing.T) {
	appState := newTestState(t)
	events := &recordingEvents{}
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"Alice: hello there"}}, events)
	addCharacter(t, appState, &models.Character{ID: "a1", Name: "Alice", Prompt: "cheerful", Avatar: "https://example.com/alice.svg"})
	g := addCharacter(t, appState, &models.Character{ID: "g1", Name: "Friends", IsGroup: true, Members: []string{"a1"}, Avatar: "https://example.com/group.svg"})
	g.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "hi all"})
	appState.SetActiveChat("")

	require.NoError(t, svc.RespondTo(context.Background(), "g1"))

	require.Len(t, events.notifications, 1)
	assert.Equal(t, "Alice: hello there", events.notifications[0], "the member speaks, not the group")
	assert.Equal(t, []string{"https://example.com/alice.svg"}, events.notifAvatars)
}

func TestDirectiveOnlyReplySkipsNotification(t *testing.T) {
	appState := newTestState(t)
	events := &recordingEvents{}
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"[ACCEPT]"}}, events)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "calm"})
	c.Append(pendingUserTransfer(10))
	appState.SetActiveChat("")

	require.NoError(t, svc.RespondTo(context.Background(), "c1"))

	got, _ := appState.Character("c1")
	assert.Equal(t, 1, got.UnreadCount, "the turn still counts as unread")
	assert.Empty(t, events.notifications)
}

func TestGroupSpeakerResolved(t *testing.T) {
	appState := newTestState(t)
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"Alice: hello everyone"}}, &recordingEvents{})
	addCharacter(t, appState, &models.Character{ID: "a1", Name: "Alice", Prompt: "cheerful"})
	g := addCharacter(t, appState, &models.Character{ID: "g1", Name: "Friends", IsGroup: true, Members: []string{"a1"}})
	g.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "hi all"})

	require.NoError(t, svc.RespondTo(context.Background(), "g1"))

	got, _ := appState.Character("g1")
	require.Len(t, got.History, 2)
	assert.Equal(t, "a1", got.History[1].Sender)
	assert.Equal(t, "Alice", got.History[1].SenderName)
	assert.Equal(t, "hello everyone", got.History[1].Content)
}

func TestGroupUnknownSpeakerDiscardsTurn(t *testing.T) {
	appState := newTestState(t)
	events := &recordingEvents{}
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"Zed: who am I"}}, events)
	alice := addCharacter(t, appState, &models.Character{ID: "a1", Name: "Alice", Prompt: "cheerful", WalletBalance: 50})
	g := addCharacter(t, appState, &models.Character{ID: "g1", Name: "Friends", IsGroup: true, Members: []string{"a1"}})
	g.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "hi all"})

	err := svc.RespondTo(context.Background(), "g1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindMalformedReply))

	got, _ := appState.Character("g1")
	assert.Len(t, got.History, 1, "zero history mutation on a malformed reply")
	assert.InDelta(t, 50, alice.WalletBalance, 1e-9, "zero wallet mutation on a malformed reply")
	assert.Equal(t, 1, events.noticeCount())
}

func TestGroupMissingPrefixDiscardsTurn(t *testing.T) {
	appState := newTestState(t)
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"hello with no speaker"}}, &recordingEvents{})
	addCharacter(t, appState, &models.Character{ID: "a1", Name: "Alice", Prompt: "cheerful"})
	g := addCharacter(t, appState, &models.Character{ID: "g1", Name: "Friends", IsGroup: true, Members: []string{"a1"}})
	g.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "hi all"})

	err := svc.RespondTo(context.Background(), "g1")
	assert.True(t, errors.IsKind(err, errors.KindMalformedReply))
}

func TestConcurrencyGuardRejectsSecondTrigger(t *testing.T) {
	appState := newTestState(t)
	completer := &fakeCompleter{replies: []string{"hello"}, block: make(chan struct{})}
	svc := newTestService(t, appState, completer, &recordingEvents{})
	seedOneToOne(t, svc)

	var wg sync.WaitGroup
	wg.Add(1)
	firstDone := make(chan error, 1)
	go func() {
		defer wg.Done()
		firstDone <- svc.RespondTo(context.Background(), "c1")
	}()

	// Wait until the first trigger holds the guard inside the network call.
	require.Eventually(t, func() bool { return completer.callCount() == 1 },
		waitFor, tick)

	err := svc.RespondTo(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindBusy))
	assert.Equal(t, 1, completer.callCount(), "second trigger never reaches the network")

	close(completer.block)
	wg.Wait()
	require.NoError(t, <-firstDone)
}

func TestConcurrencyGuardIsPerCharacter(t *testing.T) {
	appState := newTestState(t)
	completer := &fakeCompleter{replies: []string{"hello"}, block: make(chan struct{})}
	svc := newTestService(t, appState, completer, &recordingEvents{})
	seedOneToOne(t, svc)
	addCharacter(t, appState, &models.Character{ID: "c2", Name: "Rin", Prompt: "a chef"})
	require.NoError(t, svc.SendText("c2", "what's cooking", nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.RespondTo(context.Background(), "c1")
	}()
	require.Eventually(t, func() bool { return completer.callCount() == 1 },
		waitFor, tick)

	// A different character is unaffected; unblock lets both finish.
	go func() { close(completer.block) }()
	require.NoError(t, svc.RespondTo(context.Background(), "c2"))
	<-done
}

func TestRespondToDeletedCharacterIsNoOp(t *testing.T) {
	appState := newTestState(t)
	completer := &fakeCompleter{}
	svc := newTestService(t, appState, completer, &recordingEvents{})

	require.NoError(t, svc.RespondTo(context.Background(), "ghost"))
	assert.Zero(t, completer.callCount())
}

func TestOfflineModeSingleBubble(t *testing.T) {
	appState := newTestState(t)
	svc := newTestService(t, appState, &fakeCompleter{replies: []string{"line one\nline two\nline three"}}, &recordingEvents{})
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})
	c.OfflineMode.Enabled = true
	require.NoError(t, svc.SendText("c1", "tell me a story", nil))

	require.NoError(t, svc.RespondTo(context.Background(), "c1"))

	got, _ := appState.Character("c1")
	require.Len(t, got.History, 2)
	assert.Equal(t, "line one\nline two\nline three", got.History[1].Content)
}

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strawberryphone/ai"
	"strawberryphone/internal/models"
)

func TestBuildEmptyHistoryMeansNoTurns(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a calm librarian"})

	_, turns := NewPromptBuilder(appState).Build(c, false)
	assert.Empty(t, turns)
}

func TestBuildSystemIncludesPersonaAndCapabilities(t *testing.T) {
	appState := newTestState(t)
	require.NoError(t, appState.UpdateProfile(models.UserProfile{Name: "Sam", Persona: "a tired student"}))
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a calm librarian"})

	system, _ := NewPromptBuilder(appState).Build(c, false)
	assert.Contains(t, system, "a tired student")
	assert.Contains(t, system, "a calm librarian")
	assert.Contains(t, system, "[TRANSFER:amount]")
	assert.Contains(t, system, "[SET_AVATAR_SEED:text]")
	assert.Contains(t, system, "Keep your replies short")
}

func TestBuildInjectsWorldBook(t *testing.T) {
	appState := newTestState(t)
	require.NoError(t, appState.AddWorldBook(&models.WorldBook{ID: "wb1", Title: "The Library", Content: "endless shelves"}))
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian", WorldBookID: "wb1"})

	system, _ := NewPromptBuilder(appState).Build(c, false)
	assert.Contains(t, system, "[World Book: The Library]")
	assert.Contains(t, system, "endless shelves")
}

func TestBuildDanglingWorldBookIgnored(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian", WorldBookID: "gone"})

	system, _ := NewPromptBuilder(appState).Build(c, false)
	assert.NotContains(t, system, "[World Book:")
}

func TestBuildOfflineModeInstruction(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{
		ID: "c1", Name: "Mio", Prompt: "a librarian",
		OfflineMode: models.OfflineMode{Enabled: true, WordCount: 200, UserPOV: "second", CharPOV: "first", ShowThoughts: true},
	})

	system, _ := NewPromptBuilder(appState).Build(c, false)
	assert.Contains(t, system, "offline story mode")
	assert.Contains(t, system, "200 words")
	assert.NotContains(t, system, "Keep your replies short")
}

func TestBuildGroupEnumeratesMembers(t *testing.T) {
	appState := newTestState(t)
	addCharacter(t, appState, &models.Character{ID: "a1", Name: "Alice", Prompt: "cheerful"})
	addCharacter(t, appState, &models.Character{ID: "b1", Name: "Bob", Prompt: "grumpy"})
	g := addCharacter(t, appState, &models.Character{ID: "g1", Name: "Friends", IsGroup: true, Members: []string{"a1", "b1"}})

	system, _ := NewPromptBuilder(appState).Build(g, false)
	assert.Contains(t, system, "Alice: cheerful")
	assert.Contains(t, system, "Bob: grumpy")
	assert.Contains(t, system, "member's name followed by a colon")
}

func TestBuildTurnRolesAndPlaceholders(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "hi"})
	c.Append(models.Message{Sender: "c1", Type: models.MessageText, Content: "hello"})
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageTransfer, Amount: 5.2, Status: models.TransferPending})
	c.Append(models.Message{Sender: "c1", Type: models.MessageDice, Value: 3})
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageSystem, Content: "renamed the chat"})

	_, turns := NewPromptBuilder(appState).Build(c, false)
	require.Len(t, turns, 4, "system messages are dropped")
	assert.Equal(t, ai.RoleUser, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Text)
	assert.Equal(t, ai.RoleModel, turns[1].Role)
	assert.Equal(t, "[sent a transfer of 5.20]", turns[2].Text)
	assert.Equal(t, "[rolled a dice and got 3]", turns[3].Text)
}

func TestBuildGroupPrefixesAssistantTurns(t *testing.T) {
	appState := newTestState(t)
	g := addCharacter(t, appState, &models.Character{ID: "g1", Name: "Friends", IsGroup: true, Members: []string{"a1"}})
	g.Append(models.Message{Sender: "a1", SenderName: "Alice", Type: models.MessageText, Content: "hello all"})

	_, turns := NewPromptBuilder(appState).Build(g, false)
	require.Len(t, turns, 1)
	assert.Equal(t, "Alice: hello all", turns[0].Text)
}

func TestBuildHonorsMemoryLimit(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})
	c.Memory.Limit = 2
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "one"})
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "two"})
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "three"})

	_, turns := NewPromptBuilder(appState).Build(c, false)
	require.Len(t, turns, 2)
	assert.Equal(t, "two", turns[0].Text)
	assert.Equal(t, "three", turns[1].Text)
}

func TestBuildContinuationAppendsSyntheticTurn(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})
	c.Append(models.Message{Sender: models.SenderUser, Type: models.MessageText, Content: "hi"})

	_, turns := NewPromptBuilder(appState).Build(c, true)
	require.Len(t, turns, 2)
	assert.Equal(t, ai.RoleUser, turns[1].Role)
	assert.Equal(t, "Continue.", turns[1].Text)
}

func TestBuildContinuationOnEmptyHistoryStaysEmpty(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})

	_, turns := NewPromptBuilder(appState).Build(c, true)
	assert.Empty(t, turns)
}

func TestBuildMemorySummaryInjected(t *testing.T) {
	appState := newTestState(t)
	c := addCharacter(t, appState, &models.Character{ID: "c1", Name: "Mio", Prompt: "a librarian"})
	c.Memory.Summary = "you met at the library"

	system, _ := NewPromptBuilder(appState).Build(c, false)
	assert.Contains(t, system, "you met at the library")
}

package state

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strawberryphone/internal/models"
	"strawberryphone/internal/store"
)

func newTestState(t *testing.T) (*State, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return Load(st, models.Settings{}), st
}

// Mutations on different characters may run concurrently; each one persists
// the whole roster, so the encode must see a stable snapshot of every record.
func TestMutateCharacterConcurrentAcrossCharacters(t *testing.T) {
	s, st := newTestState(t)
	require.NoError(t, s.AddCharacter(&models.Character{ID: "a", Name: "Alice"}))
	require.NoError(t, s.AddCharacter(&models.Character{ID: "b", Name: "Bob"}))

	const appends = 200
	var wg sync.WaitGroup
	for _, id := range []string{"a", "b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < appends; i++ {
				ok, err := s.MutateCharacter(id, func(c *models.Character) {
					c.Append(models.Message{
						ID:        uuid.New().String(),
						Sender:    models.SenderUser,
						Type:      models.MessageText,
						Content:   "hi",
						Timestamp: time.Now().UnixMilli(),
					})
				})
				assert.True(t, ok)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"a", "b"} {
		c, ok := s.Character(id)
		require.True(t, ok)
		assert.Len(t, c.History, appends)
	}

	// The persisted roster decodes back to the same shape.
	for _, c := range st.LoadCharacters() {
		assert.Len(t, c.History, appends)
	}
}

func TestReadCharacterSeesAppends(t *testing.T) {
	s, _ := newTestState(t)
	require.NoError(t, s.AddCharacter(&models.Character{ID: "a", Name: "Alice"}))
	_, err := s.MutateCharacter("a", func(c *models.Character) {
		c.Append(models.Message{ID: "m1", Sender: models.SenderUser, Type: models.MessageText, Content: "hi"})
	})
	require.NoError(t, err)

	var got int
	ok := s.ReadCharacter("a", func(c *models.Character) { got = len(c.History) })
	assert.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestReadCharacterMissing(t *testing.T) {
	s, _ := newTestState(t)
	called := false
	ok := s.ReadCharacter("ghost", func(*models.Character) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
}

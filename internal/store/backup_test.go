package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strawberryphone/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBackupRoundTrip(t *testing.T) {
	s := newTestStore(t)

	chars := []*models.Character{{ID: "c1", Name: "Mio", WalletBalance: 42.5}}
	require.NoError(t, s.SaveCharacters(chars))
	require.NoError(t, s.SaveUserWallet(200.75))
	require.NoError(t, s.SaveProfile(models.UserProfile{Name: "Sam", Persona: "a tired student"}))
	require.NoError(t, s.SaveSettings(models.Settings{APIKey: "k", Model: "gemini-3-flash-preview", Temperature: 0.9, BaseURL: "https://example.com"}))
	require.NoError(t, s.SaveAutoMomentsEnabled(true))

	var backup bytes.Buffer
	require.NoError(t, s.Export(&backup))

	// Mangle everything, then restore.
	require.NoError(t, s.SaveCharacters(nil))
	require.NoError(t, s.SaveUserWallet(0))
	require.NoError(t, s.SaveProfile(models.UserProfile{Name: "someone else"}))
	require.NoError(t, s.SaveAutoMomentsEnabled(false))

	require.NoError(t, s.Import(bytes.NewReader(backup.Bytes())))

	restored := s.LoadCharacters()
	require.Len(t, restored, 1)
	assert.Equal(t, "Mio", restored[0].Name)
	assert.InDelta(t, 42.5, restored[0].WalletBalance, 1e-9)
	assert.InDelta(t, 200.75, s.LoadUserWallet(), 1e-9)
	assert.Equal(t, "Sam", s.LoadProfile().Name)
	assert.Equal(t, "k", s.LoadSettings(models.Settings{}).APIKey)
	assert.True(t, s.LoadAutoMomentsEnabled())
}

func TestBackupScalarValuesSurviveAsRawStrings(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set(KeyUserName, "Sam"))
	require.NoError(t, s.Set(KeyWallet, "123.45"))

	var backup bytes.Buffer
	require.NoError(t, s.Export(&backup))
	require.NoError(t, s.Set(KeyUserName, "gone"))
	require.NoError(t, s.Import(bytes.NewReader(backup.Bytes())))

	name, ok, err := s.Get(KeyUserName)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sam", name)
}

func TestImportIgnoresUnknownKeys(t *testing.T) {
	s := newTestStore(t)
	doc := []byte(`{"userName":"Sam","somethingElse":{"a":1}}`)
	require.NoError(t, s.Import(bytes.NewReader(doc)))

	_, ok, err := s.Get("somethingElse")
	require.NoError(t, err)
	assert.False(t, ok)

	name, ok, err := s.Get(KeyUserName)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Sam", name)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	s := newTestStore(t)
	err := s.Import(bytes.NewReader([]byte("not json")))
	assert.Error(t, err)
}

func TestLoadDefaultsOnAbsentRecords(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.LoadCharacters())
	assert.InDelta(t, models.DefaultUserWallet, s.LoadUserWallet(), 1e-9)
	assert.False(t, s.LoadAutoMomentsEnabled())

	settings := s.LoadSettings(models.Settings{Model: "fallback"})
	assert.Equal(t, "fallback", settings.Model)
}

func TestLoadWalletMalformedFallsBack(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set(KeyWallet, "not a number"))
	assert.InDelta(t, models.DefaultUserWallet, s.LoadUserWallet(), 1e-9)
}

func TestCharacterNormalizeOnLoad(t *testing.T) {
	s := newTestStore(t)
	// A record written before memory policies existed.
	require.NoError(t, s.Set(KeyContacts, `[{"id":"c1","name":"Mio","history":[]}]`))

	chars := s.LoadCharacters()
	require.Len(t, chars, 1)
	assert.Equal(t, models.DefaultMemoryLimit, chars[0].Memory.Limit)
	assert.Equal(t, models.DefaultOfflineWordCount, chars[0].OfflineMode.WordCount)
}

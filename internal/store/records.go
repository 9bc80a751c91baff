package store

import (
	"strconv"

	"strawberryphone/internal/models"
)

// Store keys for the domain records. The backup document is keyed by these
// same names, so renaming one is a data migration.
const (
	KeyContacts      = "contacts"
	KeyWorldBooks    = "worldBooks"
	KeyWorldBookTags = "wbGroups"
	KeyMoments       = "moments"
	KeyWallet        = "walletBalance"
	KeyWalletPass    = "walletPassword"
	KeyUserName      = "userName"
	KeyUserAvatar    = "userAvatar"
	KeyUserBio       = "userBio"
	KeyUserPersona   = "userPersona"
	KeyUserCover     = "userCover"
	KeyAPIKey        = "apiKey"
	KeyAPIModel      = "apiModel"
	KeyAPITemp       = "apiTemp"
	KeyAPIURL        = "apiUrl"
	KeyAutoMoments   = "autoMomentEnabled"
)

// BackupKeys is the full set of keys covered by export/import
var BackupKeys = []string{
	KeyUserAvatar, KeyUserName, KeyUserBio, KeyUserPersona, KeyUserCover,
	KeyWallet, KeyWalletPass, KeyAPIKey, KeyAPIModel, KeyAPITemp, KeyAPIURL,
	KeyContacts, KeyWorldBookTags, KeyWorldBooks, KeyMoments, KeyAutoMoments,
}

// LoadCharacters reads the contact list, normalizing records from older data
func (s *Store) LoadCharacters() []*models.Character {
	var chars []*models.Character
	s.GetJSON(KeyContacts, &chars)
	for _, c := range chars {
		c.Normalize()
	}
	return chars
}

// SaveCharacters persists the contact list
func (s *Store) SaveCharacters(chars []*models.Character) error {
	return s.SetJSON(KeyContacts, chars)
}

// SaveCharactersRaw writes a pre-encoded contact list document. State encodes
// the roster itself, under its character lock, and hands the bytes here.
func (s *Store) SaveCharactersRaw(data []byte) error {
	return s.Set(KeyContacts, string(data))
}

// LoadWorldBooks reads the world book library
func (s *Store) LoadWorldBooks() []*models.WorldBook {
	var books []*models.WorldBook
	s.GetJSON(KeyWorldBooks, &books)
	return books
}

// SaveWorldBooks persists the world book library
func (s *Store) SaveWorldBooks(books []*models.WorldBook) error {
	return s.SetJSON(KeyWorldBooks, books)
}

// LoadMoments reads the social feed, newest first
func (s *Store) LoadMoments() []*models.Moment {
	var moments []*models.Moment
	s.GetJSON(KeyMoments, &moments)
	return moments
}

// SaveMoments persists the social feed
func (s *Store) SaveMoments(moments []*models.Moment) error {
	return s.SetJSON(KeyMoments, moments)
}

// LoadUserWallet reads the user's balance, defaulting when absent or malformed
func (s *Store) LoadUserWallet() float64 {
	raw, ok, err := s.Get(KeyWallet)
	if err != nil || !ok {
		return models.DefaultUserWallet
	}
	balance, perr := strconv.ParseFloat(raw, 64)
	if perr != nil {
		return models.DefaultUserWallet
	}
	return balance
}

// SaveUserWallet persists the user's balance
func (s *Store) SaveUserWallet(balance float64) error {
	return s.Set(KeyWallet, strconv.FormatFloat(balance, 'f', -1, 64))
}

// LoadProfile reads the user profile scalars with documented defaults
func (s *Store) LoadProfile() models.UserProfile {
	return models.UserProfile{
		Name:    s.getString(KeyUserName, "User"),
		Avatar:  s.getString(KeyUserAvatar, "https://api.dicebear.com/7.x/miniavs/svg?seed=Girl"),
		Bio:     s.getString(KeyUserBio, ""),
		Persona: s.getString(KeyUserPersona, ""),
		Cover:   s.getString(KeyUserCover, ""),
	}
}

// SaveProfile persists the user profile scalars
func (s *Store) SaveProfile(p models.UserProfile) error {
	for _, kv := range []struct{ key, val string }{
		{KeyUserName, p.Name},
		{KeyUserAvatar, p.Avatar},
		{KeyUserBio, p.Bio},
		{KeyUserPersona, p.Persona},
		{KeyUserCover, p.Cover},
	} {
		if err := s.Set(kv.key, kv.val); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings reads the API settings, seeded from defaults when absent
func (s *Store) LoadSettings(defaults models.Settings) models.Settings {
	out := models.Settings{
		APIKey:      s.getString(KeyAPIKey, defaults.APIKey),
		Model:       s.getString(KeyAPIModel, defaults.Model),
		Temperature: defaults.Temperature,
		BaseURL:     s.getString(KeyAPIURL, defaults.BaseURL),
	}
	if raw, ok, err := s.Get(KeyAPITemp); err == nil && ok {
		if t, perr := strconv.ParseFloat(raw, 64); perr == nil {
			out.Temperature = t
		}
	}
	return out
}

// SaveSettings persists the API settings
func (s *Store) SaveSettings(settings models.Settings) error {
	for _, kv := range []struct{ key, val string }{
		{KeyAPIKey, settings.APIKey},
		{KeyAPIModel, settings.Model},
		{KeyAPITemp, strconv.FormatFloat(settings.Temperature, 'f', -1, 64)},
		{KeyAPIURL, settings.BaseURL},
	} {
		if err := s.Set(kv.key, kv.val); err != nil {
			return err
		}
	}
	return nil
}

// LoadAutoMomentsEnabled reads the auto-moment feature toggle
func (s *Store) LoadAutoMomentsEnabled() bool {
	return s.getString(KeyAutoMoments, "false") == "true"
}

// SaveAutoMomentsEnabled persists the auto-moment feature toggle
func (s *Store) SaveAutoMomentsEnabled(enabled bool) error {
	return s.Set(KeyAutoMoments, strconv.FormatBool(enabled))
}

func (s *Store) getString(key, fallback string) string {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return fallback
	}
	return raw
}

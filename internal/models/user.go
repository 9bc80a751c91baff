package models

// UserProfile holds the identity the user presents in chats and moments
type UserProfile struct {
	Name    string `json:"name"`
	Avatar  string `json:"avatar"`
	Bio     string `json:"bio,omitempty"`
	Persona string `json:"persona"`
	Cover   string `json:"cover,omitempty"`
}

// Settings is the user-editable completion backend configuration, persisted
// in the store and edited through the settings surface.
type Settings struct {
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	BaseURL     string  `json:"base_url"`
}

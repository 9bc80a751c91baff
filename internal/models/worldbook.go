package models

// WorldBook is a reusable lore/style text blob injectable into a persona
// prompt. Characters reference it by ID; a dangling reference resolves to
// "no book found" rather than an error.
type WorldBook struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Group   string `json:"group,omitempty"`
	Content string `json:"content"`
}

package models

// VisibilityAll makes a moment visible to every friend; any other value is an
// address-group name restricting who sees (and comments on) the post.
const VisibilityAll = "all"

// Comment is one entry in a moment's ordered comment list
type Comment struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
	ReplyTo    string `json:"reply_to,omitempty"`
	ReplyToID  string `json:"reply_to_id,omitempty"`
}

// Moment is a social-feed post by a character or the user, independent of
// chat history.
type Moment struct {
	ID         string    `json:"id"`
	CharID     string    `json:"char_id"`
	Text       string    `json:"text"`
	Image      string    `json:"image,omitempty"`
	Timestamp  int64     `json:"timestamp"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
	Visibility string    `json:"visibility"`
}

// LikedBy reports whether the given identifier is in the liker set
func (m *Moment) LikedBy(id string) bool {
	for _, l := range m.Likes {
		if l == id {
			return true
		}
	}
	return false
}

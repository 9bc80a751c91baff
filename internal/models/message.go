package models

// MessageType tags the payload variant carried by a Message. Every consumer
// (prompt builder, dripper, renderer) must handle the full set explicitly.
type MessageType string

const (
	MessageText      MessageType = "text"
	MessageImage     MessageType = "image"
	MessageTransfer  MessageType = "transfer"
	MessageRedPacket MessageType = "red-packet"
	MessageDice      MessageType = "dice"
	MessageSystem    MessageType = "system"
)

// TransferStatus is the lifecycle of a transfer message. A pending transfer
// has exactly one valid terminal transition, to accepted or returned.
type TransferStatus string

const (
	TransferPending  TransferStatus = "pending"
	TransferAccepted TransferStatus = "accepted"
	TransferReturned TransferStatus = "returned"
)

// SenderUser is the sender value for messages authored by the user.
const SenderUser = "user"

// Quote references a prior message quoted in a reply
type Quote struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Message is one unit in a character's history.
//
// Timestamp is advisory for display grouping; Seq is the authoritative append
// order and breaks equal-millisecond collisions.
type Message struct {
	ID         string      `json:"id"`
	Sender     string      `json:"sender"`
	SenderName string      `json:"sender_name,omitempty"`
	Type       MessageType `json:"type"`
	Content    string      `json:"content,omitempty"`
	Image      string      `json:"image,omitempty"`
	// Transfer / red-packet payload
	Amount float64        `json:"amount,omitempty"`
	Status TransferStatus `json:"status,omitempty"`
	// Dice payload, 1..6
	Value     int    `json:"value,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Seq       uint64 `json:"seq"`
	Quote     *Quote `json:"quote,omitempty"`
}

// FromUser reports whether the message was authored by the user
func (m *Message) FromUser() bool {
	return m.Sender == SenderUser
}

// IsPendingUserTransfer reports whether this is a user-sent transfer still
// awaiting accept/return.
func (m *Message) IsPendingUserTransfer() bool {
	return m.Type == MessageTransfer && m.Sender == SenderUser && m.Status == TransferPending
}

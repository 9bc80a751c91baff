package chat

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"strawberryphone/internal/models"
	"strawberryphone/pkg/errors"
)

// SendText appends a user text message, optionally quoting a prior message
func (s *Service) SendText(charID, text string, quote *models.Quote) error {
	return s.appendUserMessage(charID, models.Message{
		ID:        uuid.New().String(),
		Sender:    models.SenderUser,
		Type:      models.MessageText,
		Content:   text,
		Timestamp: time.Now().UnixMilli(),
		Quote:     quote,
	})
}

// SendImage appends a user image message with an optional caption
func (s *Service) SendImage(charID, image, caption string) error {
	return s.appendUserMessage(charID, models.Message{
		ID:        uuid.New().String(),
		Sender:    models.SenderUser,
		Type:      models.MessageImage,
		Image:     image,
		Content:   caption,
		Timestamp: time.Now().UnixMilli(),
	})
}

// SendTransfer debits the user's wallet and appends a pending transfer the
// character may later accept or return.
func (s *Service) SendTransfer(charID string, amount float64) error {
	if amount <= 0 {
		return errors.New(errors.KindConfiguration, "transfer amount must be positive")
	}
	if err := s.state.DebitUserWallet(amount); err != nil {
		s.events.Notice(err.Error())
		return err
	}
	err := s.appendUserMessage(charID, models.Message{
		ID:        uuid.New().String(),
		Sender:    models.SenderUser,
		Type:      models.MessageTransfer,
		Amount:    amount,
		Status:    models.TransferPending,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		// The append failed after the debit; put the money back.
		if refundErr := s.state.CreditUserWallet(amount); refundErr != nil {
			s.log.LogError(refundErr, "refunding failed transfer")
		}
	}
	return err
}

// SendRedPacket debits the user's wallet and appends a red packet message
func (s *Service) SendRedPacket(charID string, amount float64, note string) error {
	if amount <= 0 {
		return errors.New(errors.KindConfiguration, "red packet amount must be positive")
	}
	if err := s.state.DebitUserWallet(amount); err != nil {
		s.events.Notice(err.Error())
		return err
	}
	return s.appendUserMessage(charID, models.Message{
		ID:        uuid.New().String(),
		Sender:    models.SenderUser,
		Type:      models.MessageRedPacket,
		Amount:    amount,
		Content:   note,
		Timestamp: time.Now().UnixMilli(),
	})
}

// SendDice appends a user dice roll
func (s *Service) SendDice(charID string) error {
	return s.appendUserMessage(charID, models.Message{
		ID:        uuid.New().String(),
		Sender:    models.SenderUser,
		Type:      models.MessageDice,
		Value:     rand.Intn(6) + 1,
		Timestamp: time.Now().UnixMilli(),
	})
}

// SettleIncomingTransfer resolves a character-sent pending transfer by
// message ID. Accepting credits the user's wallet; declining returns the
// money to the sending character. A non-pending message is a no-op.
func (s *Service) SettleIncomingTransfer(charID, messageID string, accept bool) error {
	var amount float64
	var sender string
	settled := false
	ok, err := s.state.MutateCharacter(charID, func(c *models.Character) {
		for i := range c.History {
			msg := &c.History[i]
			if msg.ID != messageID {
				continue
			}
			if msg.Type != models.MessageTransfer || msg.FromUser() || msg.Status != models.TransferPending {
				return
			}
			amount = msg.Amount
			sender = msg.Sender
			if accept {
				msg.Status = models.TransferAccepted
			} else {
				msg.Status = models.TransferReturned
			}
			settled = true
			return
		}
	})
	if err != nil || !ok || !settled {
		return err
	}

	if accept {
		err = s.state.CreditUserWallet(amount)
	} else {
		_, err = s.state.MutateCharacter(sender, func(c *models.Character) {
			c.WalletBalance += amount
		})
	}
	if err != nil {
		return err
	}
	s.events.HistoryChanged(charID)
	return nil
}

// TopUpWallet adds funds to the user's global wallet
func (s *Service) TopUpWallet(amount float64) error {
	if amount <= 0 {
		return errors.New(errors.KindConfiguration, "top-up amount must be positive")
	}
	return s.state.CreditUserWallet(amount)
}

// MarkRead clears a character's unread counter, typically when the chat view
// gains focus.
func (s *Service) MarkRead(charID string) error {
	cleared := false
	ok, err := s.state.MutateCharacter(charID, func(c *models.Character) {
		cleared = c.UnreadCount != 0
		c.UnreadCount = 0
	})
	if err != nil || !ok {
		return err
	}
	if cleared {
		s.events.UnreadChanged(charID, 0)
	}
	return nil
}

// recallWindow bounds how old a user message may be and still be recalled
const recallWindow = 2 * time.Minute

// EditMessage replaces the text of a message in place. Only text messages
// can be edited; any other message is left untouched.
func (s *Service) EditMessage(charID, messageID, newText string) error {
	edited := false
	ok, err := s.state.MutateCharacter(charID, func(c *models.Character) {
		for i := range c.History {
			msg := &c.History[i]
			if msg.ID != messageID {
				continue
			}
			if msg.Type != models.MessageText {
				return
			}
			msg.Content = newText
			edited = true
			return
		}
	})
	if err != nil || !ok {
		return err
	}
	if edited {
		s.events.HistoryChanged(charID)
	}
	return nil
}

// RecallMessage converts a recently sent user message into a "recalled"
// system entry, keeping its place in history. Only the user's own messages
// qualify, and only within recallWindow of being sent.
func (s *Service) RecallMessage(charID, messageID string) error {
	cutoff := time.Now().Add(-recallWindow).UnixMilli()
	recalled := false
	tooOld := false
	ok, err := s.state.MutateCharacter(charID, func(c *models.Character) {
		for i := range c.History {
			msg := &c.History[i]
			if msg.ID != messageID {
				continue
			}
			if !msg.FromUser() {
				return
			}
			if msg.Timestamp < cutoff {
				tooOld = true
				return
			}
			*msg = models.Message{
				ID:        msg.ID,
				Sender:    models.SenderUser,
				Type:      models.MessageSystem,
				Content:   "You recalled a message",
				Timestamp: msg.Timestamp,
				Seq:       msg.Seq,
			}
			recalled = true
			return
		}
	})
	if err != nil || !ok {
		return err
	}
	if tooOld {
		return errors.New(errors.KindConfiguration, "messages can only be recalled within 2 minutes")
	}
	if recalled {
		s.events.HistoryChanged(charID)
	}
	return nil
}

// DeleteMessage removes one message from history by ID
func (s *Service) DeleteMessage(charID, messageID string) error {
	removed := false
	ok, err := s.state.MutateCharacter(charID, func(c *models.Character) {
		for i := range c.History {
			if c.History[i].ID == messageID {
				c.History = append(c.History[:i], c.History[i+1:]...)
				removed = true
				return
			}
		}
	})
	if err != nil || !ok {
		return err
	}
	if removed {
		s.events.HistoryChanged(charID)
	}
	return nil
}

func (s *Service) appendUserMessage(charID string, msg models.Message) error {
	ok, err := s.state.MutateCharacter(charID, func(c *models.Character) {
		c.Append(msg)
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(errors.KindConfiguration, "this chat no longer exists")
	}
	s.events.HistoryChanged(charID)
	return nil
}

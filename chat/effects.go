package chat

import (
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/google/uuid"

	"strawberryphone/internal/models"
	"strawberryphone/internal/state"
	"strawberryphone/pkg/logger"
)

const avatarServiceURL = "https://api.dicebear.com/7.x/miniavs/svg?seed="

// Applier executes the side effects a parsed directive implies against the
// shared character, wallet and moment state. Invalid directives (insufficient
// funds, nothing to accept) are dropped silently: they represent the model
// choosing an unavailable action, not a system fault.
type Applier struct {
	state  *state.State
	events Events
	log    *logger.Logger

	// diceRoll returns a uniform value in 1..6; injectable for tests
	diceRoll func() int
}

func NewApplier(st *state.State, events Events) *Applier {
	return &Applier{
		state:    st,
		events:   events,
		log:      logger.GetGlobal().WithComponent("effects"),
		diceRoll: func() int { return rand.Intn(6) + 1 },
	}
}

// Apply runs the directive for a speaker within the conversation convID. The
// speaker is the conversation's own character for 1:1 chats, or a resolved
// member for groups. The caller holds the conversation's turn guard.
func (a *Applier) Apply(convID string, speaker *models.Character, d Directive) error {
	var err error
	switch d.Kind {
	case DirectiveAccept:
		err = a.settleTransfer(convID, speaker, models.TransferAccepted)
	case DirectiveReturn:
		err = a.settleTransfer(convID, speaker, models.TransferReturned)
	case DirectiveTransfer:
		err = a.applyTransfer(convID, speaker, d.Amount)
	case DirectiveAvatarSeed:
		err = a.applyAvatarSeed(speaker, d.Seed)
	case DirectiveDeleteMoment:
		_, err = a.state.DeleteLatestMomentBy(speaker.ID)
	}
	if err != nil {
		return err
	}
	if d.Dice {
		err = a.applyDice(convID, speaker)
	}
	return err
}

// settleTransfer resolves the most recent pending user transfer. Accepting
// credits the speaker's wallet; returning credits the user's global wallet.
// With no pending transfer the directive falls through to plain text.
func (a *Applier) settleTransfer(convID string, speaker *models.Character, status models.TransferStatus) error {
	var amount float64
	found := false
	ok, err := a.state.MutateCharacter(convID, func(c *models.Character) {
		pending := c.LastPendingUserTransfer()
		if pending == nil {
			return
		}
		found = true
		pending.Status = status
		amount = pending.Amount
		if status == models.TransferAccepted && speaker.ID == convID {
			c.WalletBalance += amount
		}
		c.Append(models.Message{
			ID:         uuid.New().String(),
			Sender:     speaker.ID,
			SenderName: speaker.Name,
			Type:       models.MessageTransfer,
			Amount:     amount,
			Status:     status,
			Timestamp:  time.Now().UnixMilli(),
		})
	})
	if err != nil || !ok {
		return err
	}
	if !found {
		a.log.Debug("settle directive without a pending transfer", "character_id", convID)
		return nil
	}

	switch status {
	case models.TransferAccepted:
		if speaker.ID != convID {
			if _, err := a.state.MutateCharacter(speaker.ID, func(c *models.Character) {
				c.WalletBalance += amount
			}); err != nil {
				return err
			}
		}
	case models.TransferReturned:
		if err := a.state.CreditUserWallet(amount); err != nil {
			return err
		}
	}
	a.events.HistoryChanged(convID)
	return nil
}

// applyTransfer debits the speaker and appends a pending transfer. A
// non-positive amount or insufficient balance drops the directive with no
// mutation and no message.
func (a *Applier) applyTransfer(convID string, speaker *models.Character, amount float64) error {
	if amount <= 0 {
		return nil
	}
	debited := false
	msg := models.Message{
		ID:         uuid.New().String(),
		Sender:     speaker.ID,
		SenderName: speaker.Name,
		Type:       models.MessageTransfer,
		Amount:     amount,
		Status:     models.TransferPending,
		Timestamp:  time.Now().UnixMilli(),
	}

	if speaker.ID == convID {
		ok, err := a.state.MutateCharacter(convID, func(c *models.Character) {
			if c.WalletBalance < amount {
				return
			}
			c.WalletBalance -= amount
			c.Append(msg)
			debited = true
		})
		if err != nil || !ok {
			return err
		}
		if !debited {
			a.log.Debug("transfer dropped, insufficient balance", "character_id", speaker.ID, "amount", amount)
			return nil
		}
	} else {
		ok, err := a.state.MutateCharacter(speaker.ID, func(c *models.Character) {
			if c.WalletBalance < amount {
				return
			}
			c.WalletBalance -= amount
			debited = true
		})
		if err != nil || !ok {
			return err
		}
		if !debited {
			a.log.Debug("transfer dropped, insufficient balance", "character_id", speaker.ID, "amount", amount)
			return nil
		}
		if _, err := a.state.MutateCharacter(convID, func(c *models.Character) {
			c.Append(msg)
		}); err != nil {
			return err
		}
	}
	a.events.HistoryChanged(convID)
	return nil
}

// applyAvatarSeed derives a deterministic avatar from the seed text and
// swaps the speaker's avatar. No history message; a transient notice instead.
func (a *Applier) applyAvatarSeed(speaker *models.Character, seed string) error {
	avatar := avatarServiceURL + url.QueryEscape(seed)
	ok, err := a.state.MutateCharacter(speaker.ID, func(c *models.Character) {
		c.Avatar = avatar
	})
	if err != nil || !ok {
		return err
	}
	a.events.Notice(fmt.Sprintf("%s changed their avatar", speaker.Name))
	return nil
}

func (a *Applier) applyDice(convID string, speaker *models.Character) error {
	ok, err := a.state.MutateCharacter(convID, func(c *models.Character) {
		c.Append(models.Message{
			ID:         uuid.New().String(),
			Sender:     speaker.ID,
			SenderName: speaker.Name,
			Type:       models.MessageDice,
			Value:      a.diceRoll(),
			Timestamp:  time.Now().UnixMilli(),
		})
	})
	if err != nil || !ok {
		return err
	}
	a.events.HistoryChanged(convID)
	return nil
}

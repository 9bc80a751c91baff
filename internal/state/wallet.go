package state

import (
	"strawberryphone/pkg/errors"
)

// UserWallet returns the user's current balance
func (s *State) UserWallet() float64 {
	s.walletMu.Lock()
	defer s.walletMu.Unlock()
	return s.userWallet
}

// CreditUserWallet adds amount to the user's balance and persists
func (s *State) CreditUserWallet(amount float64) error {
	s.walletMu.Lock()
	s.userWallet += amount
	balance := s.userWallet
	s.walletMu.Unlock()
	return s.store.SaveUserWallet(balance)
}

// DebitUserWallet removes amount from the user's balance, failing without
// mutation when funds are insufficient or the amount is not positive.
func (s *State) DebitUserWallet(amount float64) error {
	s.walletMu.Lock()
	if amount <= 0 {
		s.walletMu.Unlock()
		return errors.NewConfigurationError("transfer amount must be positive")
	}
	if s.userWallet < amount {
		s.walletMu.Unlock()
		return errors.NewConfigurationError("insufficient wallet balance")
	}
	s.userWallet -= amount
	balance := s.userWallet
	s.walletMu.Unlock()
	return s.store.SaveUserWallet(balance)
}

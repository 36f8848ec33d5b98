package reward

import "errors"

// Precondition failures. Every one of these is detected before any write,
// so a failed operation leaves the user's balances untouched.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrAlreadyClaimed       = errors.New("already claimed")
	ErrNothingToClaim       = errors.New("nothing to claim")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInsufficientCoins    = errors.New("insufficient coin balance")
	ErrInsufficientAdCredit = errors.New("insufficient ad balance")
	ErrNoSpinsLeft          = errors.New("no spins left")
	ErrDailyLimitReached    = errors.New("daily limit reached")
	ErrInvalidPackage       = errors.New("invalid package selected")
	ErrInvalidPromoCode     = errors.New("invalid promo code")
	ErrPromoLimitReached    = errors.New("promo code usage limit reached")
	ErrPromoExpired         = errors.New("promo code expired")
	ErrPromoAlreadyUsed     = errors.New("promo code already used")

	// ErrNoPrizesConfigured is an operational error (empty prize table),
	// not a user error: handlers surface it as a 500.
	ErrNoPrizesConfigured = errors.New("no prizes configured")
)

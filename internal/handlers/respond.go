// Package handlers implements the HTTP API: the user-facing reward
// endpoints and the admin surface. Handlers decode the request, call
// the reward engine or storage, and shape the JSON response; all
// business rules live in the engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"cashbux/internal/logger"
	"cashbux/internal/reward"
)

func init() {
	// Money fields serialize as bare JSON numbers, matching the
	// payloads the web app expects.
	decimal.MarshalJSONWithoutQuotes = true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(0, "write_response", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// writeEngineError maps reward engine sentinels to status codes.
// Missing entities are 404, precondition failures 400, operational
// problems 500.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reward.ErrUserNotFound),
		errors.Is(err, reward.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reward.ErrNoPrizesConfigured):
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, reward.ErrAlreadyClaimed),
		errors.Is(err, reward.ErrNothingToClaim),
		errors.Is(err, reward.ErrInvalidAmount),
		errors.Is(err, reward.ErrInsufficientCoins),
		errors.Is(err, reward.ErrInsufficientAdCredit),
		errors.Is(err, reward.ErrNoSpinsLeft),
		errors.Is(err, reward.ErrDailyLimitReached),
		errors.Is(err, reward.ErrInvalidPackage),
		errors.Is(err, reward.ErrInvalidPromoCode),
		errors.Is(err, reward.ErrPromoLimitReached),
		errors.Is(err, reward.ErrPromoExpired),
		errors.Is(err, reward.ErrPromoAlreadyUsed):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(0, "internal_error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func encodeStrings(values []string) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

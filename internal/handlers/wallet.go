package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type withdrawRequest struct {
	AmountInTon decimal.Decimal `json:"amountInTon"`
}

// Withdraw converts coins to TON balance at the configured rate.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req withdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.engine.Withdraw(r.Context(), u.ID, req.AmountInTon)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": map[string]interface{}{
			"id":    updated.ID,
			"coins": updated.Coins,
			"ton":   updated.Ton,
		},
	})
}

// ClaimReferralEarnings moves the claimable referral balance into coins.
func (h *Handler) ClaimReferralEarnings(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	updated, err := h.engine.ClaimReferralEarnings(r.Context(), u.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": map[string]interface{}{
			"id":    updated.ID,
			"coins": updated.Coins,
		},
	})
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// DepositAdCredit credits the ad-credit balance. Payment settlement is
// handled upstream of this endpoint.
func (h *Handler) DepositAdCredit(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req depositRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := h.engine.DepositAdCredit(r.Context(), u.ID, req.Amount)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": map[string]interface{}{
			"id":       updated.ID,
			"adCredit": updated.AdCredit,
		},
	})
}

package handlers

import (
	"errors"
	"net/http"

	"cashbux/internal/reward"
	"cashbux/internal/storage"
)

// SpinWheel consumes one spin and awards a weighted-random prize.
func (h *Handler) SpinWheel(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	out, err := h.engine.SpinWheel(r.Context(), u.ID)
	if errors.Is(err, reward.ErrNoSpinsLeft) {
		// The wheel UI renders the failure as a slot, so the error
		// carries a prize-shaped payload.
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "No spins left",
			"prize": map[string]interface{}{
				"type":  "ERROR",
				"value": 0,
				"label": "No spins left",
			},
			"user": map[string]interface{}{
				"id":    u.ID,
				"spins": u.Spins,
			},
		})
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"prize": map[string]interface{}{
			"type":  out.Prize.Kind,
			"value": out.Prize.Value,
			"label": out.Prize.Label,
		},
		"user": map[string]interface{}{
			"id":    out.User.ID,
			"coins": out.User.Coins,
			"spins": out.User.Spins,
			"ton":   out.User.Ton,
		},
	})
}

func (h *Handler) writeSpinGrant(w http.ResponseWriter, u *storage.User, err error, message string) {
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"user": map[string]interface{}{
			"id":    u.ID,
			"spins": u.Spins,
		},
	})
}

// WatchAdForSpin grants a spin for a watched ad, up to the daily cap.
func (h *Handler) WatchAdForSpin(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	updated, err := h.engine.WatchAdForSpin(r.Context(), u.ID)
	h.writeSpinGrant(w, updated, err, "+1 Spin for watching an ad")
}

// CompleteTaskForSpin grants a spin for a completed task, up to the daily cap.
func (h *Handler) CompleteTaskForSpin(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	updated, err := h.engine.CompleteTaskForSpin(r.Context(), u.ID)
	h.writeSpinGrant(w, updated, err, "+1 Spin for completing a task")
}

// InviteFriendForSpin grants a spin for an invited friend, up to the daily cap.
func (h *Handler) InviteFriendForSpin(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	updated, err := h.engine.InviteFriendForSpin(r.Context(), u.ID)
	h.writeSpinGrant(w, updated, err, "+1 Spin for inviting a friend")
}

type buySpinsRequest struct {
	PackageID string `json:"packageId"`
	Currency  string `json:"currency"`
}

// BuySpins purchases a spin package with coins or TON.
func (h *Handler) BuySpins(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req buySpinsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	currency := storage.Currency(req.Currency)
	if currency != storage.CurrencyCoins && currency != storage.CurrencyTon {
		writeError(w, http.StatusBadRequest, "invalid currency")
		return
	}

	out, err := h.engine.BuySpins(r.Context(), u.ID, req.PackageID, currency)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Spins added to your balance",
		"user": map[string]interface{}{
			"id":    out.User.ID,
			"spins": out.User.Spins,
			"coins": out.User.Coins,
		},
	})
}

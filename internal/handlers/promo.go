package handlers

import (
	"net/http"
)

type redeemRequest struct {
	Code string `json:"code"`
}

// RedeemPromoCode applies a promo code's reward to the user.
func (h *Handler) RedeemPromoCode(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req redeemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := h.engine.RedeemPromoCode(r.Context(), u.ID, req.Code)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "You received " + out.RewardMessage + "!",
		"user": map[string]interface{}{
			"id":       out.User.ID,
			"coins":    out.User.Coins,
			"spins":    out.User.Spins,
			"adCredit": out.User.AdCredit,
		},
	})
}

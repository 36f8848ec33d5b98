package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"cashbux/internal/storage"
)

type createCampaignRequest struct {
	Link string          `json:"link"`
	Goal int64           `json:"goal"`
	Cost decimal.Decimal `json:"cost"`
}

// CreateUserCampaign funds a promotion campaign from the user's ad credit.
func (h *Handler) CreateUserCampaign(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req createCampaignRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := h.engine.CreateCampaign(r.Context(), u.ID, req.Link, req.Goal, req.Cost)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"campaign": out.Campaign,
		"user": map[string]interface{}{
			"id":       out.User.ID,
			"adCredit": out.User.AdCredit,
		},
	})
}

// ListUserCampaigns returns the campaigns the user has funded.
func (h *Handler) ListUserCampaigns(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	campaigns, err := storage.ListCampaignsByUser(u.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []*storage.UserCampaign{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"campaigns": campaigns,
	})
}

type createPartnerTaskRequest struct {
	Link          string          `json:"link"`
	Goal          int64           `json:"goal"`
	Cost          decimal.Decimal `json:"cost"`
	RequiredLevel int64           `json:"requiredLevel"`
}

// CreatePartnerTask funds a partner task from the user's ad credit.
func (h *Handler) CreatePartnerTask(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req createPartnerTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	out, err := h.engine.CreatePartnerTask(r.Context(), u.ID, req.Link, req.Goal, req.Cost, req.RequiredLevel)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"campaign": out.Campaign,
		"user": map[string]interface{}{
			"id":       out.User.ID,
			"adCredit": out.User.AdCredit,
		},
	})
}

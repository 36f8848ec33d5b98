package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"cashbux/internal/auth"
	"cashbux/internal/logger"
	"cashbux/internal/storage"
)

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin checks back-office credentials and issues a signed token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	admin, err := storage.GetAdminByUsername(req.Username)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if admin == nil || !admin.CheckPassword(req.Password) {
		logger.Info(0, "admin_login_failed", "username="+req.Username)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := auth.SignAdminToken(admin.ID, h.cfg.AdminTokenSecret, time.Now())
	logger.Info(admin.ID, "admin_login", "username="+admin.Username)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"admin": map[string]interface{}{
			"id":          admin.ID,
			"username":    admin.Username,
			"permissions": admin.Permissions,
		},
	})
}

// AdminDashboardStats returns the aggregate dashboard numbers.
func (h *Handler) AdminDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := storage.GetDashboardStats()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// AdminListUsers returns all users, newest first.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := storage.ListUsers()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if users == nil {
		users = []*storage.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   users,
	})
}

type adminUserPatchRequest struct {
	Username  *string          `json:"username"`
	FirstName *string          `json:"firstName"`
	LastName  *string          `json:"lastName"`
	Language  *string          `json:"language"`
	Coins     *int64           `json:"coins"`
	Ton       *decimal.Decimal `json:"ton"`
	Spins     *int64           `json:"spins"`
	AdCredit  *decimal.Decimal `json:"adCredit"`
	Banned    *bool            `json:"banned"`
}

// AdminUpdateUser applies a partial update to a user row. Absent fields
// are left unchanged.
func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	existing, err := storage.GetUserByID(userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	var req adminUserPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := storage.UpdateUserAdmin(userID, storage.AdminUserPatch{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Language:  req.Language,
		Coins:     req.Coins,
		Ton:       req.Ton,
		Spins:     req.Spins,
		AdCredit:  req.AdCredit,
		Banned:    req.Banned,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	adminID, _ := auth.GetAdminIDFromContext(r.Context())
	logger.Info(userID, "admin_user_updated", "admin_id="+strconv.FormatInt(adminID, 10))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    updated,
	})
}

// AdminListAdmins returns the active back-office accounts.
func (h *Handler) AdminListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := storage.ListActiveAdmins()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if admins == nil {
		admins = []*storage.AdminUser{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"admins":  admins,
	})
}

// AdminListCampaigns returns user campaigns, optionally filtered by the
// "type" query parameter (Game, Social, Partner).
func (h *Handler) AdminListCampaigns(w http.ResponseWriter, r *http.Request) {
	var campaigns []*storage.UserCampaign
	var err error
	if campaignType := r.URL.Query().Get("type"); campaignType != "" {
		campaigns, err = storage.ListCampaignsByType(campaignType)
	} else {
		campaigns, err = storage.ListCampaigns()
	}
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

// AdminListPromoCodes returns all promo codes with their use counts.
func (h *Handler) AdminListPromoCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := storage.ListPromoCodes()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if codes == nil {
		codes = []*storage.PromoCodeWithUses{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"promoCodes": codes,
	})
}

type createPromoCodeRequest struct {
	Code      string          `json:"code"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	MaxUses   int64           `json:"maxUses"`
	ExpiresAt *time.Time      `json:"expiresAt"`
}

// AdminCreatePromoCode creates a promo code.
func (h *Handler) AdminCreatePromoCode(w http.ResponseWriter, r *http.Request) {
	var req createPromoCodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	kind := storage.PromoKind(req.Type)
	switch kind {
	case storage.PromoCoins, storage.PromoSpins, storage.PromoTonAdCredit:
	default:
		writeError(w, http.StatusBadRequest, "invalid promo type")
		return
	}

	existing, err := storage.FindPromoCode(req.Code)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "code already exists")
		return
	}

	created, err := storage.CreatePromoCode(&storage.PromoCode{
		Code:      req.Code,
		Kind:      kind,
		Value:     req.Value,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"promoCode": created,
	})
}

// AdminGetSettings returns the tunable global settings.
func (h *Handler) AdminGetSettings(w http.ResponseWriter, r *http.Request) {
	rate, err := storage.GetConversionRate(h.cfg.ConversionRate)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	autoWithdrawals, err := storage.GetSettingBool(storage.SettingAutoWithdrawals, false)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	adNetworks, err := storage.GetSettingStrings(storage.SettingAdNetworks, []string{})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"settings": map[string]interface{}{
			"conversionRate":  rate,
			"autoWithdrawals": autoWithdrawals,
			"adNetworks":      adNetworks,
		},
	})
}

type updateSettingsRequest struct {
	ConversionRate  *decimal.Decimal `json:"conversionRate"`
	AutoWithdrawals *bool            `json:"autoWithdrawals"`
	AdNetworks      []string         `json:"adNetworks"`
}

// AdminUpdateSettings applies a partial settings update. Later requests
// observe the new values immediately.
func (h *Handler) AdminUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.ConversionRate != nil {
		if req.ConversionRate.Sign() <= 0 {
			writeError(w, http.StatusBadRequest, "conversionRate must be positive")
			return
		}
		if err := storage.SetSetting(storage.SettingConversionRate, req.ConversionRate.String()); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	if req.AutoWithdrawals != nil {
		value := "false"
		if *req.AutoWithdrawals {
			value = "true"
		}
		if err := storage.SetSetting(storage.SettingAutoWithdrawals, value); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	if req.AdNetworks != nil {
		encoded, err := encodeStrings(req.AdNetworks)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if err := storage.SetSetting(storage.SettingAdNetworks, encoded); err != nil {
			writeEngineError(w, err)
			return
		}
	}

	h.AdminGetSettings(w, r)
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      int64  `json:"reward"`
	IconName    string `json:"iconName"`
	Link        string `json:"link"`
	Action      string `json:"action"`
	Mandatory   bool   `json:"mandatory"`
}

// AdminCreateTask creates a daily task.
func (h *Handler) AdminCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" || req.Reward < 0 {
		writeError(w, http.StatusBadRequest, "title is required and reward must be non-negative")
		return
	}
	if req.Action == "" {
		req.Action = "visit"
	}

	created, err := storage.CreateDailyTask(&storage.DailyTask{
		Title:       req.Title,
		Description: req.Description,
		Reward:      req.Reward,
		IconName:    req.IconName,
		Link:        req.Link,
		Action:      req.Action,
		Mandatory:   req.Mandatory,
		Active:      true,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"task":    created,
	})
}

package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"cashbux/internal/auth"
	"cashbux/internal/logger"
	"cashbux/internal/storage"
)

type authTelegramRequest struct {
	InitData string `json:"initData"`
}

// AuthTelegram validates Telegram init data and finds or creates the
// user. New users start with the welcome spin grant; a start_param
// carrying the inviter's Telegram ID records the referral.
func (h *Handler) AuthTelegram(w http.ResponseWriter, r *http.Request) {
	var req authTelegramRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.InitData == "" {
		req.InitData = r.Header.Get(auth.InitDataHeader)
	}

	tgUser, err := auth.ValidateInitData(req.InitData, h.cfg.TelegramBotToken)
	if err != nil {
		logger.Error(0, "auth_telegram_failed", err)
		writeError(w, http.StatusUnauthorized, "invalid initData")
		return
	}

	u, created, err := storage.UpsertTelegramUser(tgUser.ID, tgUser.Username,
		tgUser.FirstName, tgUser.LastName, tgUser.LanguageCode, h.cfg.WelcomeSpins)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if created {
		if referrerTgID := startParam(req.InitData); referrerTgID != 0 {
			h.recordReferral(referrerTgID, u.ID)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    u,
	})
}

// startParam extracts the referrer Telegram ID from the mini-app start
// parameter, 0 when absent or not numeric.
func startParam(initData string) int64 {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(values.Get("start_param"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (h *Handler) recordReferral(referrerTgID, referredID int64) {
	referrer, err := storage.GetUserByTelegramID(referrerTgID)
	if err != nil || referrer == nil {
		return
	}
	ok, err := storage.CreateReferral(referrer.ID, referredID, h.cfg.ReferralBonusCoins)
	if err != nil {
		logger.Error(referrer.ID, "record_referral", err)
		return
	}
	if ok {
		logger.Info(referrer.ID, "referral_recorded", "referred_id="+strconv.FormatInt(referredID, 10))
	}
}

// GetMe returns the authenticated user's full state.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    u,
	})
}

// ListTransactions returns the user's transaction history, newest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	txs, err := storage.ListTransactions(u.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if txs == nil {
		txs = []*storage.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": txs,
	})
}

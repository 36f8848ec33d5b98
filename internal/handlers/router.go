package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"cashbux/internal/auth"
	"cashbux/internal/config"
	"cashbux/internal/reward"
	"cashbux/internal/storage"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg    *config.Config
	engine *reward.Engine
}

// NewHandler creates the API handler.
func NewHandler(cfg *config.Config, engine *reward.Engine) *Handler {
	return &Handler{cfg: cfg, engine: engine}
}

// NewRouter mounts every route: the open auth/health endpoints, the
// initData-protected user API and the token-protected admin API.
func NewRouter(cfg *config.Config, engine *reward.Engine) http.Handler {
	h := NewHandler(cfg, engine)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ping", h.Ping)
	r.Post("/auth/telegram", h.AuthTelegram)
	r.Post("/admin/login", h.AdminLogin)

	// User API, one Telegram identity per request.
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.TelegramBotToken))

		r.Get("/user/me", h.GetMe)
		r.Get("/transactions", h.ListTransactions)

		r.Get("/daily-tasks", h.ListDailyTasks)
		r.Post("/daily-tasks/{id}/claim", h.ClaimDailyTask)

		r.Post("/referrals/claim", h.ClaimReferralEarnings)
		r.Post("/withdrawals", h.Withdraw)
		r.Post("/ad-credit/deposit", h.DepositAdCredit)

		r.Post("/spin-wheel", h.SpinWheel)
		r.Post("/spins/watch-ad", h.WatchAdForSpin)
		r.Post("/spins/complete-task", h.CompleteTaskForSpin)
		r.Post("/spins/invite-friend", h.InviteFriendForSpin)
		r.Post("/spins/buy", h.BuySpins)

		r.Post("/promo-codes/redeem", h.RedeemPromoCode)

		r.Get("/user-campaigns", h.ListUserCampaigns)
		r.Post("/user-campaigns", h.CreateUserCampaign)
		r.Post("/partner-tasks", h.CreatePartnerTask)
	})

	// Admin API, bearer token.
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AdminMiddleware(cfg.AdminTokenSecret))
		r.Use(requireActiveAdmin)

		r.Get("/dashboard-stats", h.AdminDashboardStats)
		r.Get("/users", h.AdminListUsers)
		r.Patch("/users/{id}", h.AdminUpdateUser)
		r.Get("/admins", h.AdminListAdmins)
		r.Get("/campaigns", h.AdminListCampaigns)
		r.Get("/promo-codes", h.AdminListPromoCodes)
		r.Post("/promo-codes", h.AdminCreatePromoCode)
		r.Get("/settings", h.AdminGetSettings)
		r.Patch("/settings", h.AdminUpdateSettings)
		r.Post("/tasks", h.AdminCreateTask)
	})

	return r
}

// requireActiveAdmin checks that the token's admin account still exists
// and is active, so deactivating an account revokes its live tokens.
func requireActiveAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := auth.GetAdminIDFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		admin, err := storage.GetAdminByID(adminID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if admin == nil {
			writeError(w, http.StatusUnauthorized, "admin account deactivated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser resolves the authenticated Telegram identity to the
// stored user. Users are created by POST /auth/telegram; an identity
// without a row has skipped that step.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *storage.User {
	telegramID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return nil
	}
	u, err := storage.GetUserByTelegramID(telegramID)
	if err != nil {
		writeEngineError(w, err)
		return nil
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unknown user, authenticate first")
		return nil
	}
	if u.Banned {
		writeError(w, http.StatusForbidden, "account suspended")
		return nil
	}
	return u
}

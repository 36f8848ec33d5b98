package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a player of the mini-app. Coins are the soft currency,
// TON and ad credit are decimal hard-currency balances, spins are wheel
// tokens. The three *Today counters are reset once per UTC day.
type User struct {
	ID                int64           `json:"id" db:"id"`
	TelegramID        int64           `json:"telegramId" db:"telegram_id"`
	Username          string          `json:"username" db:"username"`
	FirstName         string          `json:"firstName" db:"first_name"`
	LastName          string          `json:"lastName" db:"last_name"`
	Language          string          `json:"language" db:"language"`
	Coins             int64           `json:"coins" db:"coins"`
	Ton               decimal.Decimal `json:"ton" db:"ton"`
	ReferralEarnings  int64           `json:"referralEarnings" db:"referral_earnings"`
	Spins             int64           `json:"spins" db:"spins"`
	AdCredit          decimal.Decimal `json:"adCredit" db:"ad_credit"`
	AdsWatchedToday   int64           `json:"adsWatchedToday" db:"ads_watched_today"`
	TasksDoneToday    int64           `json:"tasksCompletedTodayForSpin" db:"tasks_completed_today_for_spin"`
	FriendsToday      int64           `json:"friendsInvitedTodayForSpin" db:"friends_invited_today_for_spin"`
	CountersResetDate string          `json:"-" db:"counters_reset_date"` // YYYY-MM-DD (UTC)
	Banned            bool            `json:"banned" db:"banned"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	LastLogin         time.Time       `json:"lastLogin" db:"last_login"`
}

// TransactionType tags a ledger entry.
type TransactionType string

const (
	TxDeposit    TransactionType = "Deposit"
	TxWithdrawal TransactionType = "Withdrawal"
	TxReward     TransactionType = "Reward"
	TxPurchase   TransactionType = "Purchase"
)

// Currency tags the unit of a transaction amount.
type Currency string

const (
	CurrencyCoins Currency = "COINS"
	CurrencyTon   Currency = "TON"
)

// Transaction is an append-only audit record of a balance change.
// Rows are never updated or deleted once written.
type Transaction struct {
	ID          int64           `json:"id" db:"id"`
	UserID      int64           `json:"userId" db:"user_id"`
	Type        TransactionType `json:"type" db:"type"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Currency    Currency        `json:"currency" db:"currency"`
	Status      string          `json:"status" db:"status"` // Pending, Completed, Failed
	Description string          `json:"description" db:"description"`
	ReferenceID string          `json:"referenceId" db:"reference_id"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// DailyTask is an admin-configured task with a coin reward.
type DailyTask struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Reward      int64  `json:"reward" db:"reward"`
	IconName    string `json:"iconName" db:"icon_name"`
	Link        string `json:"link" db:"link"`
	Action      string `json:"action" db:"action"` // 'check_in', 'visit', ...
	Mandatory   bool   `json:"mandatory" db:"mandatory"`
	Active      bool   `json:"active" db:"active"`
}

// UserDailyTask tracks one user's progress on a daily task.
// Unique per (user, task); claiming is a one-way transition.
type UserDailyTask struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"userId" db:"user_id"`
	DailyTaskID int64      `json:"dailyTaskId" db:"daily_task_id"`
	Completed   bool       `json:"completed" db:"completed"`
	Claimed     bool       `json:"claimed" db:"claimed"`
	CompletedAt *time.Time `json:"completedAt" db:"completed_at"`
}

// PartnerTask is a user-funded task requiring a level in a partner app.
type PartnerTask struct {
	ID              int64  `json:"id" db:"id"`
	Title           string `json:"title" db:"title"`
	Description     string `json:"description" db:"description"`
	Reward          int64  `json:"reward" db:"reward"`
	IconName        string `json:"iconName" db:"icon_name"`
	Link            string `json:"link" db:"link"`
	Active          bool   `json:"active" db:"active"`
	RequiredLevel   int64  `json:"requiredLevel" db:"required_level"`
	CreatedByUserID int64  `json:"createdByUserId" db:"created_by_user_id"`
}

// PromoKind is the closed set of promo code reward kinds.
type PromoKind string

const (
	PromoCoins       PromoKind = "COINS"
	PromoSpins       PromoKind = "SPINS"
	PromoTonAdCredit PromoKind = "TON_AD_CREDIT"
)

// PromoCode is a redeemable code with a global use cap and optional expiry.
type PromoCode struct {
	ID        int64           `json:"id" db:"id"`
	Code      string          `json:"code" db:"code"`
	Kind      PromoKind       `json:"type" db:"type"`
	Value     decimal.Decimal `json:"value" db:"value"`
	MaxUses   int64           `json:"maxUses" db:"max_uses"`
	ExpiresAt *time.Time      `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// PrizeKind is the closed set of spin wheel prize kinds.
type PrizeKind string

const (
	PrizeCoins PrizeKind = "COINS"
	PrizeSpins PrizeKind = "SPINS"
	PrizeTon   PrizeKind = "TON"
)

// SpinWheelPrize is one slot of the wheel. Weight is relative selection
// probability mass; zero-weight prizes are never selected.
type SpinWheelPrize struct {
	ID     int64     `json:"id" db:"id"`
	Kind   PrizeKind `json:"type" db:"type"`
	Value  int64     `json:"value" db:"value"`
	Weight int64     `json:"weight" db:"weight"`
	Label  string    `json:"label" db:"label"`
	Active bool      `json:"active" db:"active"`
}

// SpinStorePackage is a purchasable bundle of spins.
type SpinStorePackage struct {
	ID        int64           `json:"id" db:"id"`
	PackageID string          `json:"packageId" db:"package_id"` // e.g. 'sp10'
	Spins     int64           `json:"spins" db:"spins"`
	CostTon   decimal.Decimal `json:"costTon" db:"cost_ton"`
	Active    bool            `json:"active" db:"active"`
}

// CampaignStatus is the lifecycle state of a user campaign.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "Active"
	CampaignCompleted CampaignStatus = "Completed"
	CampaignExpired   CampaignStatus = "Expired"
)

// UserCampaign is a promotion funded from a user's ad credit.
type UserCampaign struct {
	ID           int64           `json:"id" db:"id"`
	UserID       int64           `json:"userId" db:"user_id"`
	CampaignType string          `json:"campaignType" db:"campaign_type"` // Game, Social, Partner
	Link         string          `json:"link" db:"link"`
	Goal         int64           `json:"goal" db:"goal"`
	Cost         decimal.Decimal `json:"cost" db:"cost"`
	Status       CampaignStatus  `json:"status" db:"status"`
	Progress     int64           `json:"progress" db:"progress"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// Referral links an inviter to an invited user. referred_id is unique:
// a user can be referred at most once.
type Referral struct {
	ID            int64     `json:"id" db:"id"`
	ReferrerID    int64     `json:"referrerId" db:"referrer_id"`
	ReferredID    int64     `json:"referredId" db:"referred_id"`
	RewardClaimed bool      `json:"rewardClaimed" db:"reward_claimed"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// AdminUser is a back-office account. Password hashes are bcrypt.
type AdminUser struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password_hash"`
	Permissions  string `json:"permissions" db:"permissions"`
	Active       bool   `json:"active" db:"active"`
}

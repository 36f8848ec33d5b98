// Package reward implements the ledger operations behind every
// reward-granting and debiting endpoint: task claims, withdrawals,
// the spin wheel, promo codes and ad-credit funded campaigns.
//
// Every operation validates its preconditions and applies its balance
// mutation inside one database transaction, so a failed operation
// leaves the stored balances untouched and concurrent operations on
// the same user cannot race past a balance check.
package reward

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashbux/internal/logger"
	"cashbux/internal/storage"
)

// Engine applies reward operations against the ledger store.
// It holds no per-user state; every call re-reads the current balances.
type Engine struct {
	dailyCap    int64
	defaultRate int64
}

// NewEngine creates a reward engine. dailyCap bounds each of the three
// per-day spin counters; defaultRate is the coins-per-TON fallback used
// when the CONVERSION_RATE setting is absent.
func NewEngine(dailyCap, defaultRate int64) *Engine {
	return &Engine{dailyCap: dailyCap, defaultRate: defaultRate}
}

func (e *Engine) begin(ctx context.Context) (*sql.Tx, error) {
	db := storage.DB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
}

// loadUser fetches the user row inside the transaction and applies the
// lazy daily-counter reset before any precondition is evaluated.
func (e *Engine) loadUser(tx *sql.Tx, userID int64) (*storage.User, error) {
	u, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if err := resetCountersTx(tx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func insertTransactionTx(tx *sql.Tx, userID int64, txType storage.TransactionType, amount decimal.Decimal, currency storage.Currency, description, referenceID string) error {
	_, err := tx.Exec(`
		INSERT INTO transactions (user_id, type, amount, currency, status, description, reference_id)
		VALUES (?, ?, ?, ?, 'Completed', ?, ?)
	`, userID, txType, amount, currency, description, referenceID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ClaimDailyTask credits the task's coin reward, marks the (user, task)
// pair claimed and grants a bonus spin while the daily task-spin counter
// is under the cap. Claiming is one-way: a second claim fails.
func (e *Engine) ClaimDailyTask(ctx context.Context, userID, taskID int64) (*storage.User, error) {
	// The task catalog is read-only from the engine's perspective, so it
	// is loaded outside the ledger transaction.
	task, err := storage.GetDailyTask(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}

	var claimed bool
	err = tx.QueryRow(`
		SELECT claimed FROM user_daily_tasks
		WHERE user_id = ? AND daily_task_id = ?
	`, userID, taskID).Scan(&claimed)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get task progress: %w", err)
	}
	if claimed {
		return nil, ErrAlreadyClaimed
	}

	bonusSpin := int64(0)
	counterInc := int64(0)
	if u.TasksDoneToday < e.dailyCap {
		bonusSpin = 1
		counterInc = 1
	}

	_, err = tx.Exec(`
		UPDATE users
		SET coins = coins + ?, spins = spins + ?,
		    tasks_completed_today_for_spin = tasks_completed_today_for_spin + ?
		WHERE id = ?
	`, task.Reward, bonusSpin, counterInc, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit task reward: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO user_daily_tasks (user_id, daily_task_id, completed, claimed, completed_at)
		VALUES (?, ?, 1, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, daily_task_id) DO UPDATE
		SET completed = 1, claimed = 1, completed_at = CURRENT_TIMESTAMP
	`, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark task claimed: %w", err)
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "daily_task_claimed", fmt.Sprintf("task_id=%d reward=%d bonus_spin=%d", taskID, task.Reward, bonusSpin))
	return updated, nil
}

// ClaimReferralEarnings moves the whole claimable referral balance into
// coins. Fails when there is nothing to claim.
func (e *Engine) ClaimReferralEarnings(ctx context.Context, userID int64) (*storage.User, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	if u.ReferralEarnings <= 0 {
		return nil, ErrNothingToClaim
	}

	_, err = tx.Exec(`
		UPDATE users
		SET coins = coins + referral_earnings, referral_earnings = 0
		WHERE id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim referral earnings: %w", err)
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "referral_earnings_claimed", fmt.Sprintf("amount=%d", u.ReferralEarnings))
	return updated, nil
}

// Withdraw converts amountTon to coins at the configured rate, debits
// the coins and credits the TON balance, recording a Withdrawal
// transaction. The coin cost is rounded up to a whole coin.
func (e *Engine) Withdraw(ctx context.Context, userID int64, amountTon decimal.Decimal) (*storage.User, error) {
	if amountTon.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	rate, err := storage.GetConversionRate(e.defaultRate)
	if err != nil {
		return nil, err
	}
	costCoins := amountTon.Mul(rate).Ceil().IntPart()

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	if u.Coins < costCoins {
		return nil, ErrInsufficientCoins
	}

	newTon := u.Ton.Add(amountTon)
	_, err = tx.Exec(`UPDATE users SET coins = coins - ?, ton = ? WHERE id = ?`, costCoins, newTon, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply withdrawal: %w", err)
	}

	ref := uuid.NewString()
	if err := insertTransactionTx(tx, userID, storage.TxWithdrawal, amountTon, storage.CurrencyTon, "User withdrawal", ref); err != nil {
		return nil, err
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "withdrawal", fmt.Sprintf("amount_ton=%s cost_coins=%d ref=%s", amountTon, costCoins, ref))
	return updated, nil
}

// DepositAdCredit credits the spendable ad-credit balance and records a
// Deposit transaction. Settlement happens upstream; the amount is
// trusted but must not be negative.
func (e *Engine) DepositAdCredit(ctx context.Context, userID int64, amount decimal.Decimal) (*storage.User, error) {
	if amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}

	newCredit := u.AdCredit.Add(amount)
	_, err = tx.Exec(`UPDATE users SET ad_credit = ? WHERE id = ?`, newCredit, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit ad balance: %w", err)
	}

	ref := uuid.NewString()
	if err := insertTransactionTx(tx, userID, storage.TxDeposit, amount, storage.CurrencyTon, "Ad credit deposit", ref); err != nil {
		return nil, err
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "ad_credit_deposit", fmt.Sprintf("amount=%s", amount))
	return updated, nil
}

// SpinOutcome is the result of a successful wheel spin.
type SpinOutcome struct {
	Prize *storage.SpinWheelPrize
	User  *storage.User
}

// SpinWheel debits one spin, selects a prize proportionally to the
// active prize weights and applies it to the matching balance. The spin
// is only consumed when a prize is actually awarded.
func (e *Engine) SpinWheel(ctx context.Context, userID int64) (*SpinOutcome, error) {
	// The prize table is read-only from the engine's perspective, so it
	// is loaded outside the ledger transaction.
	prizes, err := storage.ListActivePrizes()
	if err != nil {
		return nil, err
	}
	total := TotalWeight(prizes)

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	if u.Spins <= 0 {
		return nil, ErrNoSpinsLeft
	}
	if total <= 0 {
		return nil, ErrNoPrizesConfigured
	}

	r := rand.Float64() * float64(total)
	prize := SelectPrize(prizes, r)

	coinsDelta := int64(0)
	spinsDelta := int64(-1)
	newTon := u.Ton
	switch prize.Kind {
	case storage.PrizeCoins:
		coinsDelta = prize.Value
	case storage.PrizeSpins:
		spinsDelta += prize.Value
	case storage.PrizeTon:
		newTon = newTon.Add(decimal.NewFromInt(prize.Value))
	default:
		return nil, fmt.Errorf("unknown prize kind: %s", prize.Kind)
	}

	_, err = tx.Exec(`
		UPDATE users SET coins = coins + ?, spins = spins + ?, ton = ? WHERE id = ?
	`, coinsDelta, spinsDelta, newTon, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply prize: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO spin_results (user_id, prize_id) VALUES (?, ?)`, userID, prize.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record spin result: %w", err)
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "spin_wheel", fmt.Sprintf("prize_id=%d kind=%s value=%d", prize.ID, prize.Kind, prize.Value))
	return &SpinOutcome{Prize: prize, User: updated}, nil
}

// spinCounter names one of the three daily spin-earning counters.
type spinCounter string

const (
	counterAdsWatched     spinCounter = "ads_watched_today"
	counterTasksCompleted spinCounter = "tasks_completed_today_for_spin"
	counterFriendsInvited spinCounter = "friends_invited_today_for_spin"
)

// WatchAdForSpin grants one spin for a watched ad, bounded by the daily cap.
func (e *Engine) WatchAdForSpin(ctx context.Context, userID int64) (*storage.User, error) {
	return e.grantSpinFor(ctx, userID, counterAdsWatched)
}

// CompleteTaskForSpin grants one spin for a completed task, bounded by the daily cap.
func (e *Engine) CompleteTaskForSpin(ctx context.Context, userID int64) (*storage.User, error) {
	return e.grantSpinFor(ctx, userID, counterTasksCompleted)
}

// InviteFriendForSpin grants one spin for an invited friend, bounded by the daily cap.
func (e *Engine) InviteFriendForSpin(ctx context.Context, userID int64) (*storage.User, error) {
	return e.grantSpinFor(ctx, userID, counterFriendsInvited)
}

func (e *Engine) grantSpinFor(ctx context.Context, userID int64, counter spinCounter) (*storage.User, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}

	var current int64
	switch counter {
	case counterAdsWatched:
		current = u.AdsWatchedToday
	case counterTasksCompleted:
		current = u.TasksDoneToday
	case counterFriendsInvited:
		current = u.FriendsToday
	default:
		return nil, fmt.Errorf("unknown spin counter: %s", counter)
	}
	if current >= e.dailyCap {
		return nil, ErrDailyLimitReached
	}

	// counter comes from the closed spinCounter set above, never from input.
	_, err = tx.Exec(
		`UPDATE users SET spins = spins + 1, `+string(counter)+` = `+string(counter)+` + 1 WHERE id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to grant spin: %w", err)
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "spin_granted", fmt.Sprintf("counter=%s now=%d", counter, current+1))
	return updated, nil
}

// BuyOutcome is the result of a successful spin package purchase.
type BuyOutcome struct {
	Package *storage.SpinStorePackage
	User    *storage.User
}

// BuySpins credits a package's spins. The COINS path debits the coin
// balance at the configured conversion rate; the TON path is the
// stubbed on-chain settlement and credits the spins without a debit.
func (e *Engine) BuySpins(ctx context.Context, userID int64, packageID string, currency storage.Currency) (*BuyOutcome, error) {
	pkg, err := storage.GetSpinPackage(packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrInvalidPackage
	}

	costCoins := int64(0)
	if currency == storage.CurrencyCoins {
		rate, err := storage.GetConversionRate(e.defaultRate)
		if err != nil {
			return nil, err
		}
		costCoins = pkg.CostTon.Mul(rate).Ceil().IntPart()
	}

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	if u.Coins < costCoins {
		return nil, ErrInsufficientCoins
	}

	_, err = tx.Exec(`UPDATE users SET coins = coins - ?, spins = spins + ? WHERE id = ?`,
		costCoins, pkg.Spins, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply purchase: %w", err)
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "spins_purchased", fmt.Sprintf("package=%s spins=%d cost_coins=%d currency=%s", packageID, pkg.Spins, costCoins, currency))
	return &BuyOutcome{Package: pkg, User: updated}, nil
}

// RedeemOutcome is the result of a successful promo code redemption.
type RedeemOutcome struct {
	RewardMessage string
	User          *storage.User
}

// RedeemPromoCode applies a promo code's reward. A code matches
// case-insensitively, honors its global use cap and expiry, and can be
// redeemed at most once per user.
func (e *Engine) RedeemPromoCode(ctx context.Context, userID int64, code string) (*RedeemOutcome, error) {
	code = strings.TrimSpace(code)

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var p storage.PromoCode
	var expires sql.NullTime
	err = tx.QueryRow(`
		SELECT id, code, type, value, max_uses, expires_at
		FROM promo_codes
		WHERE LOWER(code) = LOWER(?)
	`, code).Scan(&p.ID, &p.Code, &p.Kind, &p.Value, &p.MaxUses, &expires)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidPromoCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find promo code: %w", err)
	}

	var uses int64
	if err := tx.QueryRow(`SELECT COUNT(*) FROM promo_code_uses WHERE promo_code_id = ?`, p.ID).Scan(&uses); err != nil {
		return nil, fmt.Errorf("failed to count promo uses: %w", err)
	}
	if uses >= p.MaxUses {
		return nil, ErrPromoLimitReached
	}

	if expires.Valid && expires.Time.Before(nowUTC()) {
		return nil, ErrPromoExpired
	}

	var already int64
	if err := tx.QueryRow(`
		SELECT COUNT(*) FROM promo_code_uses WHERE user_id = ? AND promo_code_id = ?
	`, userID, p.ID).Scan(&already); err != nil {
		return nil, fmt.Errorf("failed to check promo use: %w", err)
	}
	if already > 0 {
		return nil, ErrPromoAlreadyUsed
	}

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}

	var rewardMessage string
	switch p.Kind {
	case storage.PromoCoins:
		amount := p.Value.IntPart()
		if _, err := tx.Exec(`UPDATE users SET coins = coins + ? WHERE id = ?`, amount, userID); err != nil {
			return nil, fmt.Errorf("failed to credit coins: %w", err)
		}
		rewardMessage = fmt.Sprintf("%d Coins", amount)
	case storage.PromoSpins:
		amount := p.Value.IntPart()
		if _, err := tx.Exec(`UPDATE users SET spins = spins + ? WHERE id = ?`, amount, userID); err != nil {
			return nil, fmt.Errorf("failed to credit spins: %w", err)
		}
		rewardMessage = fmt.Sprintf("%d free spin(s)", amount)
	case storage.PromoTonAdCredit:
		newCredit := u.AdCredit.Add(p.Value)
		if _, err := tx.Exec(`UPDATE users SET ad_credit = ? WHERE id = ?`, newCredit, userID); err != nil {
			return nil, fmt.Errorf("failed to credit ad balance: %w", err)
		}
		rewardMessage = fmt.Sprintf("%s TON in ad credits", p.Value)
	default:
		return nil, fmt.Errorf("unknown promo kind: %s", p.Kind)
	}

	if _, err := tx.Exec(`
		INSERT INTO promo_code_uses (user_id, promo_code_id) VALUES (?, ?)
	`, userID, p.ID); err != nil {
		return nil, fmt.Errorf("failed to record promo use: %w", err)
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Debug(userID, "promo_redeemed", fmt.Sprintf("code=%s kind=%s", p.Code, p.Kind))
	return &RedeemOutcome{RewardMessage: rewardMessage, User: updated}, nil
}

// CampaignOutcome is the result of an ad-credit funded creation flow.
type CampaignOutcome struct {
	Campaign *storage.UserCampaign
	User     *storage.User
}

// CreateCampaign debits the cost from the user's ad credit and creates
// an active campaign. Telegram bot links are classified as Game
// campaigns, everything else as Social.
func (e *Engine) CreateCampaign(ctx context.Context, userID int64, link string, goal int64, cost decimal.Decimal) (*CampaignOutcome, error) {
	if cost.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if goal <= 0 {
		goal = 1
	}
	campaignType := classifyCampaignLink(link)
	return e.createFundedCampaign(ctx, userID, campaignType, link, goal, cost, nil)
}

// CreatePartnerTask debits the cost from the user's ad credit, creates
// a partner task catalog entry for the required level and a Partner
// campaign row tracking the spend.
func (e *Engine) CreatePartnerTask(ctx context.Context, userID int64, link string, goal int64, cost decimal.Decimal, level int64) (*CampaignOutcome, error) {
	if cost.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if goal <= 0 {
		goal = 1
	}
	if level <= 0 {
		level = 1
	}
	insertTask := func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO partner_tasks (title, description, reward, icon_name, link, active, required_level, created_by_user_id)
			VALUES (?, '', 0, '', ?, 1, ?, ?)
		`, fmt.Sprintf("Partner task to reach level %d", level), link, level, userID)
		if err != nil {
			return fmt.Errorf("failed to insert partner task: %w", err)
		}
		return nil
	}
	return e.createFundedCampaign(ctx, userID, "Partner", link, goal, cost, insertTask)
}

// createFundedCampaign is the shared debit-and-create path. extra, when
// non-nil, runs inside the same transaction after the debit.
func (e *Engine) createFundedCampaign(ctx context.Context, userID int64, campaignType, link string, goal int64, cost decimal.Decimal, extra func(*sql.Tx) error) (*CampaignOutcome, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := e.loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	if u.AdCredit.LessThan(cost) {
		return nil, ErrInsufficientAdCredit
	}

	newCredit := u.AdCredit.Sub(cost)
	if _, err := tx.Exec(`UPDATE users SET ad_credit = ? WHERE id = ?`, newCredit, userID); err != nil {
		return nil, fmt.Errorf("failed to debit ad balance: %w", err)
	}

	if extra != nil {
		if err := extra(tx); err != nil {
			return nil, err
		}
	}

	res, err := tx.Exec(`
		INSERT INTO user_campaigns (user_id, campaign_type, link, goal, cost, status, progress)
		VALUES (?, ?, ?, ?, ?, 'Active', 0)
	`, userID, campaignType, link, goal, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}
	campaignID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	updated, err := storage.GetUserTx(tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	c, err := storage.GetCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	logger.Debug(userID, "campaign_created", fmt.Sprintf("type=%s cost=%s goal=%d", campaignType, cost, goal))
	return &CampaignOutcome{Campaign: c, User: updated}, nil
}

// classifyCampaignLink maps a t.me bot link to a Game campaign and
// everything else to Social.
func classifyCampaignLink(link string) string {
	if !strings.Contains(link, "t.me") {
		return "Social"
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return "Social"
	}
	path := strings.Trim(parsed.Path, "/")
	if strings.HasSuffix(strings.ToLower(path), "bot") {
		return "Game"
	}
	return "Social"
}

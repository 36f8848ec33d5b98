package storage

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

const userColumns = `id, telegram_id, username, first_name, last_name, language,
	coins, ton, referral_earnings, spins, ad_credit,
	ads_watched_today, tasks_completed_today_for_spin, friends_invited_today_for_spin,
	counters_reset_date, banned, created_at, last_login`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Language,
		&u.Coins, &u.Ton, &u.ReferralEarnings, &u.Spins, &u.AdCredit,
		&u.AdsWatchedToday, &u.TasksDoneToday, &u.FriendsToday,
		&u.CountersResetDate, &u.Banned, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserTx retrieves a user by internal ID inside an open transaction.
// Returns nil, nil when missing.
func GetUserTx(tx *sql.Tx, id int64) (*User, error) {
	row := tx.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by internal ID. Returns nil, nil when missing.
func GetUserByID(id int64) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

// GetUserByTelegramID retrieves a user by Telegram ID. Returns nil, nil when missing.
func GetUserByTelegramID(telegramID int64) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram_id: %w", err)
	}
	return u, nil
}

// UpsertTelegramUser finds or creates the user for a Telegram identity.
// New users start with welcomeSpins spins and today's counter reset date.
// Returning users get their profile fields and last_login refreshed.
// The second return value reports whether the user was just created.
func UpsertTelegramUser(telegramID int64, username, firstName, lastName, language string, welcomeSpins int64) (*User, bool, error) {
	existing, err := GetUserByTelegramID(telegramID)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		_, err = db.Exec(`
			UPDATE users
			SET username = ?, first_name = ?, last_name = ?, last_login = CURRENT_TIMESTAMP
			WHERE telegram_id = ?
		`, username, firstName, lastName, telegramID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to refresh user: %w", err)
		}
		u, err := GetUserByTelegramID(telegramID)
		return u, false, err
	}

	if language == "" {
		language = "en"
	}
	_, err = db.Exec(`
		INSERT INTO users (telegram_id, username, first_name, last_name, language, spins, counters_reset_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, telegramID, username, firstName, lastName, language, welcomeSpins, Today())
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert user: %w", err)
	}

	u, err := GetUserByTelegramID(telegramID)
	return u, true, err
}

// ListUsers returns all users, newest first. Admin surface only.
func ListUsers() ([]*User, error) {
	rows, err := db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// AdminUserPatch carries the admin-editable user fields. Nil means unchanged.
type AdminUserPatch struct {
	Username  *string
	FirstName *string
	LastName  *string
	Language  *string
	Coins     *int64
	Ton       *decimal.Decimal
	Spins     *int64
	AdCredit  *decimal.Decimal
	Banned    *bool
}

// UpdateUserAdmin applies an admin patch to a user row.
func UpdateUserAdmin(id int64, patch AdminUserPatch) (*User, error) {
	set := ""
	var args []interface{}
	add := func(col string, v interface{}) {
		if set != "" {
			set += ", "
		}
		set += col + " = ?"
		args = append(args, v)
	}

	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.FirstName != nil {
		add("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		add("last_name", *patch.LastName)
	}
	if patch.Language != nil {
		add("language", *patch.Language)
	}
	if patch.Coins != nil {
		add("coins", *patch.Coins)
	}
	if patch.Ton != nil {
		add("ton", *patch.Ton)
	}
	if patch.Spins != nil {
		add("spins", *patch.Spins)
	}
	if patch.AdCredit != nil {
		add("ad_credit", *patch.AdCredit)
	}
	if patch.Banned != nil {
		add("banned", *patch.Banned)
	}

	if set != "" {
		args = append(args, id)
		if _, err := db.Exec(`UPDATE users SET `+set+` WHERE id = ?`, args...); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}
	return GetUserByID(id)
}

// DashboardStats holds the aggregate numbers for the admin dashboard.
type DashboardStats struct {
	TotalUsers       int64           `json:"totalUsers"`
	TotalCoins       int64           `json:"totalCoins"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	TasksCompleted   int64           `json:"tasksCompleted"`
}

// GetDashboardStats aggregates user, coin, withdrawal and task-claim totals.
func GetDashboardStats() (*DashboardStats, error) {
	var s DashboardStats
	if err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(coins), 0) FROM users`).
		Scan(&s.TotalUsers, &s.TotalCoins); err != nil {
		return nil, fmt.Errorf("failed to aggregate users: %w", err)
	}
	var withdrawals sql.NullFloat64
	if err := db.QueryRow(`SELECT COALESCE(SUM(CAST(amount AS REAL)), 0) FROM transactions WHERE type = 'Withdrawal'`).
		Scan(&withdrawals); err != nil {
		return nil, fmt.Errorf("failed to aggregate withdrawals: %w", err)
	}
	s.TotalWithdrawals = decimal.NewFromFloat(withdrawals.Float64)
	if err := db.QueryRow(`SELECT COUNT(*) FROM user_daily_tasks WHERE claimed = 1`).
		Scan(&s.TasksCompleted); err != nil {
		return nil, fmt.Errorf("failed to aggregate task claims: %w", err)
	}
	return &s, nil
}

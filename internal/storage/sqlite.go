package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var db *sql.DB

// InitDB initializes the SQLite database connection with WAL mode
// and runs migrations. Use ":memory:" in tests.
func InitDB(dbPath string) error {
	var err error

	absPath := dbPath
	if dbPath != ":memory:" {
		absPath, err = filepath.Abs(dbPath)
		if err != nil {
			return err
		}
	}

	db, err = sql.Open("sqlite", absPath)
	if err != nil {
		return err
	}

	// A single connection serializes all writes through sqlite's one
	// writer and keeps ":memory:" databases coherent in tests. Reward
	// operations rely on this: a transaction owns the connection for
	// its whole read-check-write sequence, so no two operations can
	// interleave on the same user row.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err = db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return err
	}

	if err := runMigrations(); err != nil {
		return err
	}
	return seedDefaults()
}

// DB returns the database connection
func DB() *sql.DB {
	return db
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}

// Today returns the current UTC date as YYYY-MM-DD, the format stored in
// users.counters_reset_date.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// runMigrations creates the necessary tables
func runMigrations() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			telegram_id INTEGER UNIQUE NOT NULL,
			username TEXT DEFAULT '',
			first_name TEXT DEFAULT '',
			last_name TEXT DEFAULT '',
			language TEXT DEFAULT 'en',
			coins INTEGER NOT NULL DEFAULT 0,
			ton TEXT NOT NULL DEFAULT '0',
			referral_earnings INTEGER NOT NULL DEFAULT 0,
			spins INTEGER NOT NULL DEFAULT 0,
			ad_credit TEXT NOT NULL DEFAULT '0',
			ads_watched_today INTEGER NOT NULL DEFAULT 0,
			tasks_completed_today_for_spin INTEGER NOT NULL DEFAULT 0,
			friends_invited_today_for_spin INTEGER NOT NULL DEFAULT 0,
			counters_reset_date TEXT NOT NULL DEFAULT '',
			banned INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_login DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			amount TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'COINS',
			status TEXT NOT NULL DEFAULT 'Completed',
			description TEXT DEFAULT '',
			reference_id TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			reward INTEGER NOT NULL,
			icon_name TEXT DEFAULT '',
			link TEXT DEFAULT '',
			action TEXT DEFAULT 'visit',
			mandatory INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS user_daily_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			daily_task_id INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			claimed INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME,
			UNIQUE (user_id, daily_task_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (daily_task_id) REFERENCES daily_tasks(id)
		)`,
		`CREATE TABLE IF NOT EXISTS partner_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT DEFAULT '',
			reward INTEGER NOT NULL DEFAULT 0,
			icon_name TEXT DEFAULT '',
			link TEXT DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1,
			required_level INTEGER NOT NULL DEFAULT 1,
			created_by_user_id INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS user_partner_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			partner_task_id INTEGER NOT NULL,
			current_level INTEGER NOT NULL DEFAULT 0,
			completed INTEGER NOT NULL DEFAULT 0,
			claimed INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME,
			UNIQUE (user_id, partner_task_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (partner_task_id) REFERENCES partner_tasks(id)
		)`,
		`CREATE TABLE IF NOT EXISTS promo_codes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT UNIQUE NOT NULL,
			type TEXT NOT NULL,
			value TEXT NOT NULL,
			max_uses INTEGER NOT NULL DEFAULT 0,
			expires_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS promo_code_uses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			promo_code_id INTEGER NOT NULL,
			used_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, promo_code_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (promo_code_id) REFERENCES promo_codes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS spin_wheel_prizes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			value INTEGER NOT NULL,
			weight INTEGER NOT NULL,
			label TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS spin_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			prize_id INTEGER NOT NULL,
			spun_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (prize_id) REFERENCES spin_wheel_prizes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS spin_store_packages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			package_id TEXT UNIQUE NOT NULL,
			spins INTEGER NOT NULL,
			cost_ton TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS user_campaigns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			campaign_type TEXT NOT NULL,
			link TEXT DEFAULT '',
			goal INTEGER NOT NULL DEFAULT 1,
			cost TEXT NOT NULL DEFAULT '0',
			status TEXT NOT NULL DEFAULT 'Active',
			progress INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS referrals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			referrer_id INTEGER NOT NULL,
			referred_id INTEGER UNIQUE NOT NULL,
			reward_claimed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (referrer_id) REFERENCES users(id),
			FOREIGN KEY (referred_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS admin_users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			permissions TEXT DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS system_settings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key TEXT UNIQUE NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_spin_results_user_id ON spin_results(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_promo_code_uses_code ON promo_code_uses(promo_code_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_campaigns_user_id ON user_campaigns(user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// seedDefaults inserts the stock spin store packages on first run.
// Prizes and tasks are managed from the admin panel and start empty.
func seedDefaults() error {
	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM spin_store_packages`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	packages := []struct {
		id      string
		spins   int64
		costTon string
	}{
		{"sp10", 10, "0.02"},
		{"sp50", 50, "0.1"},
		{"sp100", 100, "0.2"},
		{"sp500", 500, "1"},
		{"sp1000", 1000, "2"},
		{"sp5000", 5000, "10"},
		{"sp10000", 10000, "20"},
		{"sp50000", 50000, "100"},
	}
	for _, p := range packages {
		if _, err := db.Exec(`
			INSERT INTO spin_store_packages (package_id, spins, cost_ton, active)
			VALUES (?, ?, ?, 1)
		`, p.id, p.spins, p.costTon); err != nil {
			return fmt.Errorf("failed to seed spin package %s: %w", p.id, err)
		}
	}
	return nil
}

package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	if err := InitDB(":memory:"); err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
}

func cleanupTestDB(t *testing.T) {
	t.Helper()
	if err := CloseDB(); err != nil {
		t.Errorf("failed to close test db: %v", err)
	}
}

func TestUpsertTelegramUser(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	u, created, err := UpsertTelegramUser(111, "alice", "Alice", "A", "en", 10)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if !created {
		t.Error("expected created=true for new user")
	}
	if u.Spins != 10 {
		t.Errorf("expected 10 welcome spins, got %d", u.Spins)
	}
	if u.CountersResetDate != Today() {
		t.Errorf("expected reset date today, got %q", u.CountersResetDate)
	}

	// Second upsert refreshes the profile without re-granting spins.
	u2, created, err := UpsertTelegramUser(111, "alice2", "Alice", "A", "en", 10)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if created {
		t.Error("expected created=false for existing user")
	}
	if u2.ID != u.ID {
		t.Errorf("expected same user row, got %d and %d", u.ID, u2.ID)
	}
	if u2.Username != "alice2" {
		t.Errorf("expected refreshed username, got %q", u2.Username)
	}
	if u2.Spins != 10 {
		t.Errorf("welcome spins granted twice: %d", u2.Spins)
	}
}

func TestGetUserByTelegramIDMissing(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	u, err := GetUserByTelegramID(999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil for missing user, got %+v", u)
	}
}

func TestMoneyColumnsRoundTrip(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	u, _, err := UpsertTelegramUser(112, "bob", "Bob", "", "en", 0)
	if err != nil {
		t.Fatal(err)
	}

	ton := decimal.RequireFromString("1.2345")
	credit := decimal.RequireFromString("0.5")
	if _, err := db.Exec(`UPDATE users SET ton = ?, ad_credit = ? WHERE id = ?`, ton, credit, u.ID); err != nil {
		t.Fatal(err)
	}

	after, err := GetUserByID(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !after.Ton.Equal(ton) {
		t.Errorf("ton did not round-trip: %s", after.Ton)
	}
	if !after.AdCredit.Equal(credit) {
		t.Errorf("ad_credit did not round-trip: %s", after.AdCredit)
	}
}

func TestSettings(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	// Unset key falls back to the default.
	rate, err := GetConversionRate(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !rate.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected default rate 1000, got %s", rate)
	}

	if err := SetSetting(SettingConversionRate, "250"); err != nil {
		t.Fatal(err)
	}
	rate, err = GetConversionRate(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !rate.Equal(decimal.NewFromInt(250)) {
		t.Errorf("expected rate 250, got %s", rate)
	}

	// Upsert replaces.
	if err := SetSetting(SettingConversionRate, "300"); err != nil {
		t.Fatal(err)
	}
	raw, err := GetSetting(SettingConversionRate, "")
	if err != nil {
		t.Fatal(err)
	}
	if raw != "300" {
		t.Errorf("expected 300, got %q", raw)
	}

	// Garbage values fall back to the default.
	if err := SetSetting(SettingConversionRate, "not-a-number"); err != nil {
		t.Fatal(err)
	}
	rate, err = GetConversionRate(1000)
	if err != nil {
		t.Fatal(err)
	}
	if !rate.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected fallback rate, got %s", rate)
	}

	if err := SetSetting(SettingAdNetworks, `["adsgram","monetag"]`); err != nil {
		t.Fatal(err)
	}
	networks, err := GetSettingStrings(SettingAdNetworks, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(networks) != 2 || networks[0] != "adsgram" {
		t.Errorf("unexpected networks: %v", networks)
	}
}

func TestFindPromoCodeCaseInsensitive(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	expires := time.Now().UTC().Add(24 * time.Hour)
	_, err := CreatePromoCode(&PromoCode{
		Code: "SpRiNg", Kind: PromoCoins, Value: decimal.NewFromInt(100), MaxUses: 3, ExpiresAt: &expires,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	p, err := FindPromoCode("spring")
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Code != "SpRiNg" {
		t.Errorf("case-insensitive lookup failed: %+v", p)
	}
	if p.ExpiresAt == nil {
		t.Error("expected expiry to round-trip")
	}

	missing, err := FindPromoCode("nothing")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing code, got %+v", missing)
	}
}

func TestCreateReferral(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	a, _, _ := UpsertTelegramUser(201, "a", "A", "", "en", 0)
	b, _, _ := UpsertTelegramUser(202, "b", "B", "", "en", 0)

	ok, err := CreateReferral(a.ID, b.ID, 100)
	if err != nil || !ok {
		t.Fatalf("expected referral recorded: ok=%v err=%v", ok, err)
	}

	after, err := GetUserByID(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.ReferralEarnings != 100 {
		t.Errorf("expected 100 earnings, got %d", after.ReferralEarnings)
	}

	// Same referred user again: no-op, no double credit.
	ok, err = CreateReferral(a.ID, b.ID, 100)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected duplicate referral to be refused")
	}
	after, _ = GetUserByID(a.ID)
	if after.ReferralEarnings != 100 {
		t.Errorf("duplicate referral credited: %d", after.ReferralEarnings)
	}

	// Self-referral is refused.
	ok, err = CreateReferral(a.ID, a.ID, 100)
	if err != nil || ok {
		t.Errorf("expected self-referral refused: ok=%v err=%v", ok, err)
	}
}

func TestListDailyTasksForUser(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	u, _, _ := UpsertTelegramUser(301, "c", "C", "", "en", 0)
	task, err := CreateDailyTask(&DailyTask{Title: "Visit", Reward: 5, Action: "visit", Active: true})
	if err != nil {
		t.Fatal(err)
	}

	tasks, err := ListDailyTasksForUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Claimed {
		t.Fatalf("unexpected task list: %+v", tasks)
	}

	_, err = db.Exec(`
		INSERT INTO user_daily_tasks (user_id, daily_task_id, completed, claimed)
		VALUES (?, ?, 1, 1)
	`, u.ID, task.ID)
	if err != nil {
		t.Fatal(err)
	}

	tasks, err = ListDailyTasksForUser(u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !tasks[0].Claimed || !tasks[0].Completed {
		t.Errorf("expected claimed+completed flags, got %+v", tasks[0])
	}
}

func TestSpinStorePackagesSeeded(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	pkg, err := GetSpinPackage("sp10")
	if err != nil {
		t.Fatal(err)
	}
	if pkg == nil {
		t.Fatal("expected sp10 to be seeded")
	}
	if pkg.Spins != 10 || !pkg.CostTon.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("unexpected package: %+v", pkg)
	}

	missing, err := GetSpinPackage("sp7")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown package, got %+v", missing)
	}
}

func TestAdminAccounts(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	admin, err := CreateAdmin("root", "hunter2", "all")
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if !admin.CheckPassword("hunter2") {
		t.Error("expected password to verify")
	}
	if admin.CheckPassword("wrong") {
		t.Error("expected wrong password to fail")
	}

	found, err := GetAdminByUsername("root")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil || found.ID != admin.ID {
		t.Errorf("lookup failed: %+v", found)
	}

	missing, err := GetAdminByUsername("ghost")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing admin, got %+v", missing)
	}
}

func TestEnsureAdmin(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	if err := EnsureAdmin("admin", "admin"); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	admin, err := GetAdminByUsername("admin")
	if err != nil {
		t.Fatal(err)
	}
	if admin == nil {
		t.Fatal("expected bootstrap admin to exist")
	}
	if admin.Permissions != "*" {
		t.Errorf("expected full permissions, got %q", admin.Permissions)
	}
	if !admin.CheckPassword("admin") {
		t.Error("expected bootstrap password to verify")
	}

	// Second call leaves the existing account, password included.
	if err := EnsureAdmin("admin", "different"); err != nil {
		t.Fatalf("repeat bootstrap failed: %v", err)
	}
	again, err := GetAdminByUsername("admin")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != admin.ID {
		t.Errorf("bootstrap created a second account: %d and %d", admin.ID, again.ID)
	}
	if !again.CheckPassword("admin") {
		t.Error("bootstrap overwrote the existing password")
	}

	if err := EnsureAdmin("", "pw"); err == nil {
		t.Error("expected error for empty username")
	}
	if err := EnsureAdmin("admin", ""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestUpdateUserAdmin(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	u, _, _ := UpsertTelegramUser(401, "d", "D", "", "en", 0)

	coins := int64(500)
	banned := true
	ton := decimal.RequireFromString("2.5")
	updated, err := UpdateUserAdmin(u.ID, AdminUserPatch{Coins: &coins, Banned: &banned, Ton: &ton})
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if updated.Coins != 500 || !updated.Banned || !updated.Ton.Equal(ton) {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Username != "d" {
		t.Errorf("untouched field changed: %q", updated.Username)
	}

	// Empty patch is a no-op read.
	same, err := UpdateUserAdmin(u.ID, AdminUserPatch{})
	if err != nil {
		t.Fatal(err)
	}
	if same.Coins != 500 {
		t.Errorf("empty patch changed coins: %d", same.Coins)
	}
}

func TestGetDashboardStats(t *testing.T) {
	setupTestDB(t)
	defer cleanupTestDB(t)

	u, _, _ := UpsertTelegramUser(501, "e", "E", "", "en", 0)
	if _, err := db.Exec(`UPDATE users SET coins = 40 WHERE id = ?`, u.ID); err != nil {
		t.Fatal(err)
	}
	_, err := db.Exec(`
		INSERT INTO transactions (user_id, type, amount, currency, status)
		VALUES (?, 'Withdrawal', '0.5', 'TON', 'Completed')
	`, u.ID)
	if err != nil {
		t.Fatal(err)
	}

	stats, err := GetDashboardStats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalUsers != 1 || stats.TotalCoins != 40 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if !stats.TotalWithdrawals.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("unexpected withdrawals total: %s", stats.TotalWithdrawals)
	}
}

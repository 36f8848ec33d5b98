package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Setting keys known to the application.
const (
	SettingConversionRate  = "CONVERSION_RATE"
	SettingAutoWithdrawals = "autoWithdrawals"
	SettingAdNetworks      = "adNetworks"
)

// GetSetting returns the raw stored value for a key, or def when unset.
// Settings are re-read on every call so admin updates are visible to the
// next request (read-your-writes).
func GetSetting(key, def string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM system_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting value, inserting or replacing the row.
func SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO system_settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// GetConversionRate returns the coin-per-TON rate, falling back to def
// when the setting is absent or unparseable.
func GetConversionRate(def int64) (decimal.Decimal, error) {
	raw, err := GetSetting(SettingConversionRate, "")
	if err != nil {
		return decimal.Decimal{}, err
	}
	if raw == "" {
		return decimal.NewFromInt(def), nil
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.Sign() <= 0 {
		return decimal.NewFromInt(def), nil
	}
	return rate, nil
}

// GetSettingBool returns a boolean setting, def when unset.
func GetSettingBool(key string, def bool) (bool, error) {
	raw, err := GetSetting(key, "")
	if err != nil {
		return def, err
	}
	switch raw {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return def, nil
}

// GetSettingStrings returns a JSON string-array setting, def when unset
// or malformed.
func GetSettingStrings(key string, def []string) ([]string, error) {
	raw, err := GetSetting(key, "")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return def, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return def, nil
	}
	return out, nil
}

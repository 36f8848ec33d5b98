package storage

import (
	"fmt"
	"strings"
)

// CreateReferral records that referrer invited referred and credits the
// referrer's claimable earnings, atomically. The referrals table has a
// unique constraint on referred_id, so a user can only ever be referred
// once; a second attempt returns ok=false with no credit applied.
func CreateReferral(referrerID, referredID, bonusCoins int64) (bool, error) {
	if referrerID == referredID {
		return false, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO referrals (referrer_id, referred_id)
		VALUES (?, ?)
	`, referrerID, referredID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert referral: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE users
		SET referral_earnings = referral_earnings + ?
		WHERE id = ?
	`, bonusCoins, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to credit referrer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit referral: %w", err)
	}
	return true, nil
}

// CountReferrals returns how many users the given user has invited.
func CountReferrals(referrerID int64) (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM referrals WHERE referrer_id = ?`, referrerID).Scan(&n)
	return n, err
}

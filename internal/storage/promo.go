package storage

import (
	"database/sql"
	"fmt"
)

// FindPromoCode looks up a promo code by case-insensitive match.
// Returns nil, nil when no code matches.
func FindPromoCode(code string) (*PromoCode, error) {
	var p PromoCode
	var expires sql.NullTime
	err := db.QueryRow(`
		SELECT id, code, type, value, max_uses, expires_at, created_at
		FROM promo_codes
		WHERE LOWER(code) = LOWER(?)
	`, code).Scan(&p.ID, &p.Code, &p.Kind, &p.Value, &p.MaxUses, &expires, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find promo code: %w", err)
	}
	if expires.Valid {
		p.ExpiresAt = &expires.Time
	}
	return &p, nil
}

// CreatePromoCode inserts a promo code. The code must be globally unique
// (case-insensitive); callers should check FindPromoCode first.
func CreatePromoCode(p *PromoCode) (*PromoCode, error) {
	res, err := db.Exec(`
		INSERT INTO promo_codes (code, type, value, max_uses, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Code, p.Kind, p.Value, p.MaxUses, p.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert promo code: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PromoCodeWithUses is a promo code joined with its redemption count.
type PromoCodeWithUses struct {
	PromoCode
	UsedCount int64 `json:"usedCount"`
}

// ListPromoCodes returns all promo codes with use counts, newest first.
func ListPromoCodes() ([]*PromoCodeWithUses, error) {
	rows, err := db.Query(`
		SELECT p.id, p.code, p.type, p.value, p.max_uses, p.expires_at, p.created_at,
			(SELECT COUNT(*) FROM promo_code_uses u WHERE u.promo_code_id = p.id)
		FROM promo_codes p
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	var codes []*PromoCodeWithUses
	for rows.Next() {
		var p PromoCodeWithUses
		var expires sql.NullTime
		err := rows.Scan(&p.ID, &p.Code, &p.Kind, &p.Value, &p.MaxUses, &expires, &p.CreatedAt, &p.UsedCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		if expires.Valid {
			p.ExpiresAt = &expires.Time
		}
		codes = append(codes, &p)
	}
	return codes, rows.Err()
}

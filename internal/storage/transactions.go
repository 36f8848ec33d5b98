package storage

import (
	"fmt"
)

// ListTransactions returns a user's transactions, newest first.
func ListTransactions(userID int64) ([]*Transaction, error) {
	rows, err := db.Query(`
		SELECT id, user_id, type, amount, currency, status, description, reference_id, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency, &t.Status,
			&t.Description, &t.ReferenceID, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}

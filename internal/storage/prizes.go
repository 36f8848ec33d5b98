package storage

import (
	"database/sql"
	"fmt"
)

// ListActivePrizes returns the active spin wheel prizes in primary-key
// order. The order is load-bearing: the selector walks it with a
// cumulative weight, so it must be stable between calls.
func ListActivePrizes() ([]*SpinWheelPrize, error) {
	rows, err := db.Query(`
		SELECT id, type, value, weight, label, active
		FROM spin_wheel_prizes
		WHERE active = 1
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	defer rows.Close()

	var prizes []*SpinWheelPrize
	for rows.Next() {
		var p SpinWheelPrize
		if err := rows.Scan(&p.ID, &p.Kind, &p.Value, &p.Weight, &p.Label, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan prize: %w", err)
		}
		prizes = append(prizes, &p)
	}
	return prizes, rows.Err()
}

// CreatePrize inserts a spin wheel prize definition.
func CreatePrize(p *SpinWheelPrize) (*SpinWheelPrize, error) {
	res, err := db.Exec(`
		INSERT INTO spin_wheel_prizes (type, value, weight, label, active)
		VALUES (?, ?, ?, ?, ?)
	`, p.Kind, p.Value, p.Weight, p.Label, p.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to insert prize: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetSpinPackage retrieves an active spin store package by its public
// package ID (e.g. "sp10"). Returns nil, nil when missing or inactive.
func GetSpinPackage(packageID string) (*SpinStorePackage, error) {
	var p SpinStorePackage
	err := db.QueryRow(`
		SELECT id, package_id, spins, cost_ton, active
		FROM spin_store_packages
		WHERE package_id = ? AND active = 1
	`, packageID).Scan(&p.ID, &p.PackageID, &p.Spins, &p.CostTon, &p.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spin package: %w", err)
	}
	return &p, nil
}

// CountSpinResults returns the number of recorded spins for a user.
func CountSpinResults(userID int64) (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM spin_results WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

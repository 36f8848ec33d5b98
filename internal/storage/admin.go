package storage

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GetAdminByUsername retrieves an active admin account. Returns nil, nil
// when missing or deactivated.
func GetAdminByUsername(username string) (*AdminUser, error) {
	var a AdminUser
	err := db.QueryRow(`
		SELECT id, username, password_hash, permissions, active
		FROM admin_users
		WHERE username = ? AND active = 1
	`, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Permissions, &a.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

// GetAdminByID retrieves an active admin account by ID.
func GetAdminByID(id int64) (*AdminUser, error) {
	var a AdminUser
	err := db.QueryRow(`
		SELECT id, username, password_hash, permissions, active
		FROM admin_users
		WHERE id = ? AND active = 1
	`, id).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Permissions, &a.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

// ListActiveAdmins returns all active admin accounts.
func ListActiveAdmins() ([]*AdminUser, error) {
	rows, err := db.Query(`
		SELECT id, username, password_hash, permissions, active
		FROM admin_users
		WHERE active = 1
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*AdminUser
	for rows.Next() {
		var a AdminUser
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Permissions, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, &a)
	}
	return admins, rows.Err()
}

// CreateAdmin inserts an admin account, hashing the password with bcrypt.
func CreateAdmin(username, password, permissions string) (*AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	res, err := db.Exec(`
		INSERT INTO admin_users (username, password_hash, permissions, active)
		VALUES (?, ?, ?, 1)
	`, username, string(hash), permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to insert admin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &AdminUser{ID: id, Username: username, PasswordHash: string(hash), Permissions: permissions, Active: true}, nil
}

// EnsureAdmin creates the bootstrap admin account with full permissions
// when no account with that username exists yet. Idempotent: an existing
// account is left untouched, password included.
func EnsureAdmin(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("admin username and password must be set")
	}
	existing, err := GetAdminByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = CreateAdmin(username, password, "*")
	return err
}

// CheckPassword reports whether the plaintext password matches the
// admin's stored bcrypt hash.
func (a *AdminUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

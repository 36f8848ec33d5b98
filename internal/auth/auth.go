// Package auth validates Telegram Mini App init data and admin tokens,
// and exposes the authenticated identity through the request context.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cashbux/internal/logger"
)

// ContextKey is the key type for context values
type ContextKey string

const (
	// UserIDKey is the context key for the authenticated Telegram user ID
	UserIDKey ContextKey = "user_id"
	// AdminIDKey is the context key for the authenticated admin ID
	AdminIDKey ContextKey = "admin_id"
)

// InitDataHeader carries the raw Telegram init data on API requests.
const InitDataHeader = "X-Telegram-Init-Data"

// initDataMaxAge bounds how old an auth_date may be.
const initDataMaxAge = 24 * time.Hour

// TelegramUser is the user object embedded in Telegram init data.
type TelegramUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
}

// ValidateInitData verifies the signature and freshness of a Telegram
// Mini App init data string and returns the embedded user. The secret
// key is HMAC-SHA256 of the bot token under the constant key
// "WebAppData", per the Telegram Web Apps protocol.
func ValidateInitData(initData, botToken string) (*TelegramUser, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token not configured")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("malformed initData: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("hash not found in initData")
	}

	// Data check string: all pairs except hash, sorted by key, joined
	// with newlines, values URL-decoded.
	var keys []string
	for key := range values {
		if key != "hash" {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var dataCheck []string
	for _, key := range keys {
		dataCheck = append(dataCheck, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(dataCheck, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(dataCheckString))
	computedHash := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(hash), []byte(computedHash)) {
		return nil, fmt.Errorf("invalid hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid auth_date")
	}
	if time.Since(time.Unix(authDate, 0)) > initDataMaxAge {
		return nil, fmt.Errorf("auth_date is too old")
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, fmt.Errorf("user not found in initData")
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("user id missing")
	}
	return &user, nil
}

// Middleware returns an HTTP middleware that validates Telegram init
// data from the request header and puts the Telegram user ID in the
// request context.
func Middleware(botToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initData := r.Header.Get(InitDataHeader)
			if initData == "" {
				http.Error(w, "Unauthorized: missing "+InitDataHeader+" header", http.StatusUnauthorized)
				return
			}

			user, err := ValidateInitData(initData, botToken)
			if err != nil {
				logger.Error(0, "auth_failed", err)
				http.Error(w, "Unauthorized: invalid initData", http.StatusUnauthorized)
				return
			}

			ctx := ContextWithUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithUserID adds the Telegram user ID to the context.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext retrieves the Telegram user ID from the context.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

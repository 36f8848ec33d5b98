package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// adminTokenMaxAge bounds how long an admin session token is accepted.
const adminTokenMaxAge = 12 * time.Hour

// SignAdminToken produces a bearer token for an admin session:
// "<adminID>.<unix>.<hmac-sha256 hex>" keyed with the server secret.
func SignAdminToken(adminID int64, secret string, now time.Time) string {
	payload := fmt.Sprintf("%d.%d", adminID, now.Unix())
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(h.Sum(nil))
}

// VerifyAdminToken checks a token's signature and age and returns the
// admin ID it was issued for.
func VerifyAdminToken(token, secret string) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed token")
	}

	payload := parts[0] + "." + parts[1]
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	expected := hex.EncodeToString(h.Sum(nil))
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return 0, fmt.Errorf("invalid signature")
	}

	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid issue time")
	}
	if time.Since(time.Unix(issued, 0)) > adminTokenMaxAge {
		return 0, fmt.Errorf("token expired")
	}

	adminID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid admin id")
	}
	return adminID, nil
}

// AdminMiddleware returns an HTTP middleware that validates the admin
// bearer token and puts the admin ID in the request context.
func AdminMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				http.Error(w, "Unauthorized: missing bearer token", http.StatusUnauthorized)
				return
			}

			adminID, err := VerifyAdminToken(token, secret)
			if err != nil {
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminIDFromContext retrieves the admin ID from the context.
func GetAdminIDFromContext(ctx context.Context) (int64, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(int64)
	return adminID, ok
}

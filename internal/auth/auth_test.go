package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "12345:TEST-TOKEN"

// signInitData builds a correctly signed init data string for tests.
func signInitData(t *testing.T, params map[string]string, botToken string) string {
	t.Helper()

	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheck []string
	for _, k := range keys {
		dataCheck = append(dataCheck, k+"="+params[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(dataCheck, "\n")))
	hash := hex.EncodeToString(h.Sum(nil))

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func validParams() map[string]string {
	return map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":42,"first_name":"Ada","username":"ada","language_code":"en"}`,
	}
}

func TestValidateInitData(t *testing.T) {
	initData := signInitData(t, validParams(), testBotToken)

	user, err := ValidateInitData(initData, testBotToken)
	if err != nil {
		t.Fatalf("expected valid initData: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("expected user id 42, got %d", user.ID)
	}
	if user.Username != "ada" || user.FirstName != "Ada" {
		t.Errorf("unexpected user fields: %+v", user)
	}
}

func TestValidateInitDataWrongToken(t *testing.T) {
	initData := signInitData(t, validParams(), "999:OTHER-TOKEN")

	if _, err := ValidateInitData(initData, testBotToken); err == nil {
		t.Error("expected signature failure for wrong bot token")
	}
}

func TestValidateInitDataTampered(t *testing.T) {
	params := validParams()
	initData := signInitData(t, params, testBotToken)
	tampered := strings.Replace(initData, "%22id%22%3A42", "%22id%22%3A43", 1)
	if tampered == initData {
		t.Fatal("tamper replacement did not apply")
	}

	if _, err := ValidateInitData(tampered, testBotToken); err == nil {
		t.Error("expected signature failure for tampered user")
	}
}

func TestValidateInitDataStale(t *testing.T) {
	params := validParams()
	params["auth_date"] = fmt.Sprintf("%d", time.Now().Add(-25*time.Hour).Unix())
	initData := signInitData(t, params, testBotToken)

	if _, err := ValidateInitData(initData, testBotToken); err == nil {
		t.Error("expected failure for stale auth_date")
	}
}

func TestValidateInitDataMissingHash(t *testing.T) {
	if _, err := ValidateInitData("auth_date=1&user=%7B%7D", testBotToken); err == nil {
		t.Error("expected failure for missing hash")
	}
}

func TestMiddleware(t *testing.T) {
	var gotUserID int64
	handler := Middleware(testBotToken)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		if !ok {
			t.Error("expected user id in context")
		}
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	}))

	// Missing header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", rec.Code)
	}

	// Invalid data.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set(InitDataHeader, "hash=deadbeef&auth_date=1")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad initData, got %d", rec.Code)
	}

	// Valid data.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/user/me", nil)
	req.Header.Set(InitDataHeader, signInitData(t, validParams(), testBotToken))
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for valid initData, got %d", rec.Code)
	}
	if gotUserID != 42 {
		t.Errorf("expected user id 42 in context, got %d", gotUserID)
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	token := SignAdminToken(7, secret, time.Now())

	adminID, err := VerifyAdminToken(token, secret)
	if err != nil {
		t.Fatalf("expected valid token: %v", err)
	}
	if adminID != 7 {
		t.Errorf("expected admin id 7, got %d", adminID)
	}

	if _, err := VerifyAdminToken(token, "other-secret"); err == nil {
		t.Error("expected failure for wrong secret")
	}
	if _, err := VerifyAdminToken("not.a.token", secret); err == nil {
		t.Error("expected failure for garbage token")
	}

	expired := SignAdminToken(7, secret, time.Now().Add(-13*time.Hour))
	if _, err := VerifyAdminToken(expired, secret); err == nil {
		t.Error("expected failure for expired token")
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	if _, ok := GetUserIDFromContext(context.Background()); ok {
		t.Error("expected no user id in empty context")
	}
	ctx := ContextWithUserID(context.Background(), 42)
	id, ok := GetUserIDFromContext(ctx)
	if !ok || id != 42 {
		t.Errorf("expected 42, got %d ok=%v", id, ok)
	}
}

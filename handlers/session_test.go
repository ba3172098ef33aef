// tavle/handlers/session_test.go
package handlers

import (
	"net/http"
	"testing"

	"tavle/config"
)

func TestRegister(t *testing.T) {
	_, router := setupTestApp(t)

	rec := doJSON(t, router, http.MethodPost, "/api/register", map[string]string{
		"username": "alice", "password": testPassword,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]int64
	decodeBody(t, rec, &body)
	if body["user_id"] == 0 {
		t.Error("Expected a user_id in the register response")
	}

	// Duplicate registration is a conflict.
	rec = doJSON(t, router, http.MethodPost, "/api/register", map[string]string{
		"username": "alice", "password": "another",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate user_name, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	_, router := setupTestApp(t)

	testCases := []struct {
		name string
		body map[string]string
	}{
		{"missing password", map[string]string{"username": "alice"}},
		{"missing username", map[string]string{"password": testPassword}},
		{"empty body", map[string]string{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/register", tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	_, router := setupTestApp(t)
	registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": testPassword,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	found := false
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == config.SessionCookieName && cookie.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("Expected login to set a session cookie")
	}

	rec = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a wrong password, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/login", map[string]string{
		"username": "nobody", "password": testPassword,
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for an unknown user, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	_, router := setupTestApp(t)
	cookie := registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodPost, "/api/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("Expected logout to expire the session cookie")
	}
}

// TestGetUserHidesPasswordHash: the public user record never carries the
// stored hash.
func TestGetUserHidesPasswordHash(t *testing.T) {
	_, router := setupTestApp(t)
	registerUser(t, router, "alice")

	rec := doJSON(t, router, http.MethodGet, "/api/users/1", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["user_name"] != "alice" {
		t.Errorf("Expected user_name %q, got %v", "alice", body["user_name"])
	}
	if _, leaked := body["user_password_hash"]; leaked {
		t.Error("Password hash must not appear in the public user record")
	}

	rec = doJSON(t, router, http.MethodGet, "/api/users/424242", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown user, got %d", rec.Code)
	}
}

// TestTamperedSessionCookieIgnored: a forged cookie value leaves the request
// unauthenticated instead of erroring.
func TestTamperedSessionCookieIgnored(t *testing.T) {
	_, router := setupTestApp(t)
	registerUser(t, router, "alice")

	forged := &http.Cookie{Name: config.SessionCookieName, Value: "YWxpY2U.eA.0000"}
	rec := doJSON(t, router, http.MethodPost, "/api/threads", map[string]string{
		"thread_subject": "forged",
	}, forged)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a forged session cookie, got %d: %s", rec.Code, rec.Body.String())
	}
}

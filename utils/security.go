// tavle/utils/security.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// SessionSecret signs session cookies. Set once at startup.
	SessionSecret string
)

// GetIPAddress extracts the real IP address from a request, trusting
// forwarding headers set by a reverse proxy.
func GetIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// HashPassword produces a bcrypt hash for storage in user_password_hash.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches a stored bcrypt hash.
func CheckPassword(passwordHash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}

// EncodeSession builds a signed session cookie value carrying the client's
// credentials. The server holds no session state; the cookie is the session.
func EncodeSession(username, password string) string {
	u := base64.RawURLEncoding.EncodeToString([]byte(username))
	p := base64.RawURLEncoding.EncodeToString([]byte(password))
	return u + "." + p + "." + signSession(u, p)
}

// DecodeSession verifies a session cookie value and returns the credentials
// it carries. A tampered or malformed value yields ok == false.
func DecodeSession(value string) (username, password string, ok bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return "", "", false
	}
	expected := signSession(parts[0], parts[1])
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return "", "", false
	}
	u, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", "", false
	}
	p, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", false
	}
	return string(u), string(p), true
}

func signSession(encodedUser, encodedPass string) string {
	mac := hmac.New(sha256.New, []byte(SessionSecret))
	mac.Write([]byte(encodedUser + "." + encodedPass))
	return hex.EncodeToString(mac.Sum(nil))
}

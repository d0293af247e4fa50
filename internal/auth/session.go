// Package auth owns session validation, the session-expiry redirect guard,
// and the transient multi-step signup store.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "snapfolio_session"

// JWTClaims holds the decoded session token claims.
type JWTClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Iss   string `json:"iss"`
	Iat   int64  `json:"iat"`
	Exp   int64  `json:"exp"`
}

// ValidateJWT validates a session token string. If secret is non-empty, it
// verifies the HMAC-SHA256 signature; expiry is always checked.
func ValidateJWT(token string, secret []byte) (*JWTClaims, error) {
	parts := strings.SplitN(token, ".", 4)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format: expected 3 parts, got %d", len(parts))
	}

	if len(secret) > 0 {
		sigInput := parts[0] + "." + parts[1]
		mac := hmac.New(sha256.New, secret)
		mac.Write([]byte(sigInput))
		expectedSig := mac.Sum(nil)

		actualSig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid JWT signature encoding: %w", err)
		}

		if !hmac.Equal(expectedSig, actualSig) {
			return nil, fmt.Errorf("invalid JWT signature")
		}
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT payload encoding: %w", err)
	}

	var claims JWTClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("invalid JWT payload JSON: %w", err)
	}

	if claims.Exp == 0 {
		return nil, fmt.Errorf("JWT missing exp claim")
	}
	if claims.Exp < time.Now().Unix() {
		return nil, fmt.Errorf("JWT expired")
	}

	return &claims, nil
}

// SignJWT creates a signed session token for the given subject.
func SignJWT(sub, email string, ttl time.Duration, secret []byte) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	now := time.Now()
	payload, _ := json.Marshal(JWTClaims{
		Sub:   sub,
		Email: email,
		Iss:   "snapfolio-portal",
		Iat:   now.Unix(),
		Exp:   now.Add(ttl).Unix(),
	})
	body := header + "." + base64.RawURLEncoding.EncodeToString(payload)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(body))
	return body + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// IsLoggedIn checks the session cookie and validates the token.
// Returns (true, claims) if valid, (false, nil) otherwise.
func IsLoggedIn(r *http.Request, secret []byte) (bool, *JWTClaims) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return false, nil
	}

	claims, err := ValidateJWT(cookie.Value, secret)
	if err != nil {
		return false, nil
	}

	return true, claims
}

// SessionToken returns the raw session cookie value, or "".
func SessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

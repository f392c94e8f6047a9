package api

import (
	"net/http"
	"time"

	"vidstream/internal/auth"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig carries the session cookie attributes. It is built once
// from configuration and injected, so every handler sets cookies the
// same way.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c CookieConfig) setSessionCookies(w http.ResponseWriter, pair *auth.TokenPair) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, pair.AccessToken, c.AccessTTL))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, pair.RefreshToken, c.RefreshTTL))
}

func (c CookieConfig) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, c.expiredCookie(AccessTokenCookie))
	http.SetCookie(w, c.expiredCookie(RefreshTokenCookie))
}

func (c CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (c CookieConfig) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrNoCookie is returned when a request carries no valid session cookie.
var ErrNoCookie = errors.New("session cookie missing or invalid")

// Cookie signs session IDs into HTTP cookies.
type Cookie struct {
	codec  *securecookie.SecureCookie
	name   string
	secure bool
	maxAge time.Duration
}

// NewCookie creates a cookie codec signing with secret.
func NewCookie(name, secret string, secure bool, maxAge time.Duration) *Cookie {
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(maxAge.Seconds()))
	return &Cookie{
		codec:  codec,
		name:   name,
		secure: secure,
		maxAge: maxAge,
	}
}

// Set writes a signed cookie carrying sessionID.
func (c *Cookie) Set(w http.ResponseWriter, sessionID string) error {
	encoded, err := c.codec.Encode(c.name, sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Read returns the session ID from the request's cookie.
func (c *Cookie) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrNoCookie
	}

	var sessionID string
	if err := c.codec.Decode(c.name, cookie.Value, &sessionID); err != nil {
		return "", ErrNoCookie
	}
	return sessionID, nil
}

// Clear expires the cookie.
func (c *Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

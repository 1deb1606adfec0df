package auth

import (
	"net/http"
	"time"

	"socialfeed/app/models"
)

// Cookies reads and writes the session cookie.
type Cookies struct {
	Name   string
	Secure bool
}

func NewCookies(name string, secure bool) *Cookies {
	return &Cookies{Name: name, Secure: secure}
}

// Set stores the session id in an HttpOnly cookie that expires with the session.
func (c *Cookies) Set(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   maxAgeFrom(session.ExpiresAt),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session id sent by the client, or "".
func (c *Cookies) Read(r *http.Request) string {
	cookie, err := r.Cookie(c.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 1 {
		return 1
	}
	return sec
}

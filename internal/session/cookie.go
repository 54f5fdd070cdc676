package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie describes how the session token travels to the browser.
type Cookie struct {
	Name   string
	Secure bool
}

// Token reads the session token from the request, or "" when absent.
func (ck Cookie) Token(c *gin.Context) string {
	token, err := c.Cookie(ck.Name)
	if err != nil {
		return ""
	}
	return token
}

// Set writes an http-only, SameSite=Lax cookie expiring with the session.
func (ck Cookie) Set(c *gin.Context, sess *Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     ck.Name,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt.UTC(),
		MaxAge:   maxAge,
		Secure:   ck.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the cookie immediately.
func (ck Cookie) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     ck.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   ck.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

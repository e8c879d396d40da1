package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/customeros/formlayer/internal/utils"
)

const (
	SessionHeader = "X-Formlayer-Session"
	SessionCookie = "formlayer_session"
)

// SessionMiddleware resolves the visitor session key from the header, then
// the cookie, and generates one when neither is present. The key is echoed
// in the response header so the host can keep it.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionKey := strings.TrimSpace(c.GetHeader(SessionHeader))
		if sessionKey == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				sessionKey = strings.TrimSpace(cookie)
			}
		}
		if sessionKey == "" {
			sessionKey = utils.GenerateSessionKey()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionKey,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(utils.SessionKeyGinKey, sessionKey)
		c.Header(SessionHeader, sessionKey)
		c.Next()
	}
}

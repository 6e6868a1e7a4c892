package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const sessionKey = "sid"

// Session guarantees every request carries a stable session id in a signed
// cookie. Guest carts are keyed by it.
func Session(store sessions.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, _ := store.Get(c.Request, cookieName)

		sid, ok := session.Values[sessionKey].(string)
		if !ok || sid == "" {
			sid = uuid.NewString()
			session.Values[sessionKey] = sid
			_ = session.Save(c.Request, c.Writer)
		}

		c.Set("sessionID", sid)
		c.Next()
	}
}

func GetSessionID(c *gin.Context) string {
	sid, _ := c.Get("sessionID")
	s, _ := sid.(string)
	return s
}

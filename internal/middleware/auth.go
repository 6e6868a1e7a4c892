package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/policy"
)

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		userID, role, err := parseToken(header[7:], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// OptionalAuth populates the actor when a valid token is present but lets
// guests through. Cart and checkout routes use it.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if userID, role, err := parseToken(header[7:], secret); err == nil {
				c.Set("userID", userID)
				c.Set("userRole", role)
			}
		}
		c.Next()
	}
}

// AdminOnly guards the back office. The policy package is the single source
// of truth for who counts as an admin.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := policy.Allow(GetActor(c), policy.ActionRead, policy.Target{Resource: policy.ResourceDashboard})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

func parseToken(raw, secret string) (uuid.UUID, model.Role, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, "", jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	role, _ := claims["role"].(string)
	return userID, model.Role(role), nil
}

func GetUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get("userID")
	uid, _ := id.(uuid.UUID)
	return uid
}

func GetUserRole(c *gin.Context) model.Role {
	role, _ := c.Get("userRole")
	r, _ := role.(model.Role)
	return r
}

// GetActor builds the policy actor for the current request. Guests carry
// only their session id.
func GetActor(c *gin.Context) policy.Actor {
	return policy.Actor{ID: GetUserID(c), Role: GetUserRole(c), SessionID: GetSessionID(c)}
}

// GetCartOwner resolves who owns the request's cart: the authenticated user
// if there is one, otherwise the guest session.
func GetCartOwner(c *gin.Context) model.CartOwner {
	if id := GetUserID(c); id != uuid.Nil {
		return model.UserOwner(id)
	}
	return model.GuestOwner(GetSessionID(c))
}

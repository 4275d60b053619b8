package app

import (
	"context"
	"crypto/subtle"
	"strings"

	"neighborly/apperr"
	"neighborly/models"
	"neighborly/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "nb_session"

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.AppSession, error)
}

func bearerToken(c *gin.Context) string {
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	_ = c.Error(apperr.Unauthorized(msg))
	c.Abort()
}

// AuthRequired verifies the session token, checks the session is still live
// and loads the user into the context.
func AuthRequired(tokens *session.Tokens, sessions SessionGetter, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			unauthorized(c, "Unauthorized")
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			unauthorized(c, "Invalid or expired session")
			return
		}
		as, err := sessions.Get(c.Request.Context(), claims.SessionID)
		if err != nil || as.UserID != claims.Subject {
			unauthorized(c, "Invalid or expired session")
			return
		}

		u, err := users.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			unauthorized(c, "Unauthorized")
			return
		}
		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("isAdmin", u.IsAdmin)
		c.Set("sessionID", claims.SessionID)

		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("isAdmin") {
			_ = c.Error(apperr.Forbidden("Admins only"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PaymentSecret guards the ledger ingress; an empty secret disables the route.
func PaymentSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Payment-Secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			unauthorized(c, "Unauthorized")
			return
		}
		c.Next()
	}
}

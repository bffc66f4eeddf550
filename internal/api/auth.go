package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/classpulse/classpulse/internal/models"
	"github.com/classpulse/classpulse/internal/store"
)

const currentUserKey = "current_user"

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Auth issues and validates bearer tokens and resolves the current user.
type Auth struct {
	users  store.UserStore
	secret []byte
	ttl    time.Duration
}

// NewAuth creates the auth component.
func NewAuth(users store.UserStore, secret string, ttl time.Duration) *Auth {
	return &Auth{users: users, secret: []byte(secret), ttl: ttl}
}

// GenerateToken issues an HS256 token for the given user.
func (a *Auth) GenerateToken(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "classpulse",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// TokenRequired validates the bearer token and loads the current user
// into the request context.
func (a *Auth) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Token is missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			respondError(c, http.StatusUnauthorized, "unauthorized", "Token is invalid")
			c.Abort()
			return
		}

		user, err := a.users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			logrus.Warnf("TokenRequired: token for unknown user %s: %v", claims.UserID, err)
			respondError(c, http.StatusUnauthorized, "unauthorized", "Token is invalid")
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// ProfessorRequired rejects requests whose current user is not a
// professor. Must run after TokenRequired.
func (a *Auth) ProfessorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleProfessor {
			respondError(c, http.StatusForbidden, "forbidden", "Only professors can perform this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user set by TokenRequired, or nil.
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mdshare/mdshare/backend/go-services/internal/sessions"
	"github.com/mdshare/mdshare/backend/go-services/internal/users"
	"github.com/mdshare/mdshare/backend/go-services/pkg/logger"
	"github.com/mdshare/mdshare/backend/go-services/pkg/middleware"
)

// AuthHandler serves the caller's identity and logout. Tokens are issued by
// the identity provider, not here.
type AuthHandler struct {
	usersSvc    *users.Service
	revocations *sessions.RevocationList
}

func NewAuthHandler(u *users.Service, r *sessions.RevocationList) *AuthHandler {
	return &AuthHandler{usersSvc: u, revocations: r}
}

// Register routes under /auth on an authenticated group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.GET("/me", h.Me)
	a.POST("/logout", h.Logout)
}

// DirectoryMiddleware records every authenticated principal so owners can
// share documents with them by email. Failures are logged and do not block
// the request.
func DirectoryMiddleware(u *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := middleware.PrincipalFrom(c); ok && u != nil {
			if _, err := u.Remember(c.Request.Context(), p); err != nil {
				logger.Warnf("directory upsert for %s failed: %v", p.ID, err)
			}
		}
		c.Next()
	}
}

// Me returns the authenticated principal and, when known, its directory record.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	resp := gin.H{"principal": p}
	if h.usersSvc != nil {
		u, err := h.usersSvc.GetBySub(c.Request.Context(), p.ID)
		if err != nil {
			logger.Errorf("user lookup error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
			return
		}
		if u != nil {
			resp["user"] = u
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the presented access token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetString(middleware.TokenKey)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	if h.revocations == nil || !h.revocations.Enabled() {
		c.JSON(http.StatusOK, gin.H{"message": "logged out", "revoked": false})
		return
	}
	exp, err := tokenExpiry(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token has no usable exp claim", "details": err.Error()})
		return
	}
	if err := h.revocations.Revoke(c.Request.Context(), token, time.Until(exp)); err != nil {
		logger.Errorf("revoke access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out", "revoked": true})
}

// tokenExpiry reads the exp claim the auth middleware stored for this request.
func tokenExpiry(c *gin.Context) (time.Time, error) {
	claims, _ := c.Get(middleware.ClaimsKey)
	m, ok := claims.(map[string]interface{})
	if !ok {
		return time.Time{}, errors.New("no verified claims")
	}
	switch exp := m["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case json.Number:
		f, err := exp.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("exp claim: %w", err)
		}
		return time.Unix(int64(f), 0), nil
	case nil:
		return time.Time{}, errors.New("exp claim not present")
	default:
		return time.Time{}, fmt.Errorf("unsupported exp type %T", exp)
	}
}

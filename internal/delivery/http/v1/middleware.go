package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-scrum/internal/scrum"
	"github.com/adanyl0v/go-scrum/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
	isAdminCtxKey   = "is_admin"
)

// accessToken reads the bearer token, falling back to the cookie set on
// login so that browsers and websocket upgrades authenticate the same way.
func accessToken(c *gin.Context) (string, bool) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header != "" {
		const bearerPrefix = "Bearer"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	token, err := c.Cookie(accessTokenCookie)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	token, ok := accessToken(c)
	if !ok {
		h.logger.Debug().Msg("access token required")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	claims, err := h.auth.ParseJWTToken(token)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Error().
				Err(err).
				Msg("failed to parse token")
			abort(c, newStatusTextError(http.StatusUnauthorized))
			return
		}

		result, ok := h.refreshSession(c)
		if !ok {
			return
		}

		claims, err = h.auth.ParseJWTToken(result.AccessToken)
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to parse fresh token")
			abort(c, newStatusTextError(http.StatusUnauthorized))
			return
		}
	}

	session, err := h.sessions.GetSessionByID(c, claims.Subject)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.logger.Warn().Msg("session not found")
			abort(c, newStatusTextError(http.StatusUnauthorized))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to fetch session")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	browserFingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	if browserFingerprint != session.Fingerprint {
		h.logger.Warn().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	isAdmin, err := h.roles.IsAdmin(c, session.UserID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Msg("failed to resolve user role")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Set(isAdminCtxKey, isAdmin)
	c.Next()
}

// HandleAdminMiddleware must run after HandleAuthMiddleware.
func (h *handlerImpl) HandleAdminMiddleware(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}
	if !caller.IsAdmin {
		h.logger.Warn().
			Str("user_id", caller.UserID).
			Msg("admin route requested by non-admin")
		abort(c, newForbiddenError(errAdminRequired.Error()))
		return
	}
	c.Next()
}

func callerFromContext(c *gin.Context) (scrum.Caller, bool) {
	userID, ok := getStringFromContext(c, userIDCtxKey)
	if !ok || userID == "" {
		return scrum.Caller{}, false
	}
	return scrum.Caller{
		UserID:  userID,
		IsAdmin: c.GetBool(isAdminCtxKey),
	}, true
}

// mustCaller aborts with 401 when the auth middleware didn't run.
func mustCaller(c *gin.Context) (scrum.Caller, bool) {
	caller, ok := callerFromContext(c)
	if !ok {
		abort(c, newStatusTextError(http.StatusUnauthorized))
	}
	return caller, ok
}

package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-scrum/internal/scrum"
	"github.com/adanyl0v/go-scrum/internal/services"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type loginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,max=255"`
}

type loginResponse struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	if !h.bindRequest(c, &req) {
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			h.logger.Warn().
				Err(err).
				Str("email", req.Email).
				Msg("failed to login")
			abort(c, newUnauthorizedError(errInvalidCredentials.Error()))
		case errors.Is(err, services.ErrUserLockedOut):
			h.logger.Warn().
				Str("email", req.Email).
				Msg("login attempt on locked account")
			abort(c, newAPIError(http.StatusLocked, errAccountLocked.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to login")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.signIn(c, http.StatusOK, result)
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	if _, ok := h.refreshSession(c); !ok {
		return
	}
	c.Status(http.StatusOK)
}

// refreshSession rotates the session behind the refresh token cookie and
// sets the new cookies. On failure the request is already aborted.
func (h *handlerImpl) refreshSession(c *gin.Context) (*services.LoginResult, bool) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to get refresh token cookie")
		abort(c, newUnauthorizedError(errMandatoryCookieNotFound.Error()))
		return nil, false
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return nil, false
	}

	result, err := h.auth.Refresh(c, services.RefreshParams{
		RefreshToken: refreshToken,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			h.logger.Warn().Msg("refresh of unknown session")
			abort(c, newUnauthorizedError(services.ErrSessionNotFound.Error()))
		case errors.Is(err, services.ErrSessionExpired):
			h.logger.Debug().Msg("refresh of expired session")
			abort(c, newUnauthorizedError(services.ErrSessionExpired.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to refresh session")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return nil, false
	}

	setSessionCookies(c, result)
	return result, true
}

type registerRequest struct {
	Email           string `json:"email" form:"email" binding:"max=255"`
	Password        string `json:"password" form:"password" binding:"max=255"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"max=255"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	if !h.bindRequest(c, &req) {
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := h.accounts.Register(c, scrum.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Fingerprint:     fingerprint,
	})
	if err != nil {
		h.respondError(c, err, "failed to register user")
		return
	}

	h.logger.Info().
		Str("user_id", result.UserID).
		Msg("user registered")

	h.signIn(c, http.StatusCreated, result)
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	err := h.auth.Logout(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)

	c.Status(http.StatusNoContent)
}

type resetPasswordQuery struct {
	UserID string `form:"userId"`
	Token  string `form:"token"`
}

// HandleGetResetPassword only checks that the link carries both parts.
// The token itself is verified when the new password is posted.
func (h *handlerImpl) HandleGetResetPassword(c *gin.Context) {
	var query resetPasswordQuery
	_ = c.ShouldBindQuery(&query)
	if query.UserID == "" || query.Token == "" {
		h.logger.Debug().Msg("reset password link without user or token")
		abort(c, newBadRequestError(services.ErrResetTokenInvalid.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId": query.UserID,
		"token":  query.Token,
	})
}

type resetPasswordRequest struct {
	UserID          string `json:"userId" form:"userId" binding:"max=64"`
	Token           string `json:"token" form:"token" binding:"max=255"`
	Password        string `json:"password" form:"password" binding:"max=255"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" binding:"max=255"`
}

func (h *handlerImpl) HandleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !h.bindRequest(c, &req) {
		return
	}

	err := h.accounts.ResetPassword(c, scrum.ResetPasswordInput{
		UserID:          req.UserID,
		Token:           req.Token,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.respondError(c, err, "failed to reset password")
		return
	}

	h.logger.Info().
		Str("user_id", req.UserID).
		Msg("password reset")

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)

	c.JSON(http.StatusOK, gin.H{"message": "Your password has been reset."})
}

func (h *handlerImpl) signIn(c *gin.Context, status int, result *services.LoginResult) {
	setSessionCookies(c, result)

	isAdmin, err := h.roles.IsAdmin(c, result.UserID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", result.UserID).
			Msg("failed to resolve user role")
	}

	c.JSON(status, loginResponse{
		UserID:   result.UserID,
		UserName: result.UserName,
		IsAdmin:  isAdmin,
	})
}

func setSessionCookies(c *gin.Context, result *services.LoginResult) {
	now := time.Now()
	setAccessTokenCookie(c, result.AccessToken, result.AccessTokenExpiresAt.Sub(now))
	setRefreshTokenCookie(c, result.RefreshToken, result.RefreshTokenExpiresAt.Sub(now))
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

func setAccessTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	// httpOnly must be false to allow client-side JavaScript
	// to read the cookie and send it in the Authorization header.
	const secure, httpOnly = false, false
	c.SetCookie(accessTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func setRefreshTokenCookie(c *gin.Context, token string, maxAge time.Duration) {
	const secure, httpOnly = false, true
	c.SetCookie(refreshTokenCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1,
		"/", "", false, false)
}

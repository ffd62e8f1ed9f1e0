package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	handlerForcePasswordReset = "ForcePasswordReset"
	handlerDeleteUser         = "DeleteUser"
)

type adminUserResponse struct {
	ID       string   `json:"id"`
	UserName string   `json:"userName"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func (h *handlerImpl) HandleAdminPanel(c *gin.Context) {
	users, err := h.admin.ListUsers(c)
	if err != nil {
		h.respondError(c, err, "failed to list users")
		return
	}

	resp := make([]adminUserResponse, 0, len(users))
	for _, u := range users {
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		resp = append(resp, adminUserResponse{
			ID:       u.ID,
			UserName: u.UserName,
			Email:    u.Email,
			Roles:    roles,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": resp})
}

func (h *handlerImpl) HandlePostAdminPanel(c *gin.Context) {
	switch c.Query("handler") {
	case handlerForcePasswordReset:
		h.forcePasswordReset(c)
	case handlerDeleteUser:
		h.deleteUser(c)
	default:
		h.logger.Debug().
			Str("handler", c.Query("handler")).
			Msg("unknown admin panel handler")
		abort(c, newBadRequestError(errUnknownHandler.Error()))
	}
}

// queryUserID reads a uuid user id from the query string.
func (h *handlerImpl) queryUserID(c *gin.Context, key string) (string, bool) {
	userID := strings.TrimSpace(c.Query(key))
	if _, err := uuid.Parse(userID); err != nil {
		h.logger.Debug().
			Err(err).
			Str(key, userID).
			Msg("invalid user id")
		abort(c, newBadRequestError(errInvalidID.Error()))
		return "", false
	}
	return userID, true
}

func (h *handlerImpl) forcePasswordReset(c *gin.Context) {
	userID, ok := h.queryUserID(c, "userId")
	if !ok {
		return
	}

	resetURL, err := h.admin.ForcePasswordReset(c, userID)
	if err != nil {
		h.respondError(c, err, "failed to force password reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Password reset link generated.",
		"resetUrl": resetURL,
	})
}

func (h *handlerImpl) deleteUser(c *gin.Context) {
	userID, ok := h.queryUserID(c, "id")
	if !ok {
		return
	}

	err := h.admin.DeleteUser(c, userID)
	if err != nil {
		h.respondError(c, err, "failed to delete user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted."})
}

package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-scrum/internal/scrum"
	"github.com/adanyl0v/go-scrum/internal/services"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
	errInvalidID               = errors.New("invalid id")
	errUnknownHandler          = errors.New("unknown handler")
	errInvalidCredentials      = errors.New("invalid login or password")
	errAccountLocked           = errors.New("account is locked, try again later")
	errAdminRequired           = errors.New("admin role required")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// respondError maps workflow and identity errors to responses. Anything
// unrecognised is logged and reported as a bare 500.
func (h *handlerImpl) respondError(c *gin.Context, err error, msg string) {
	var verr *scrum.ValidationError
	if errors.As(err, &verr) {
		h.logger.Debug().
			Err(err).
			Msg(msg)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields})
		return
	}

	h.logger.Error().
		Err(err).
		Msg(msg)

	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		abort(c, newNotFoundError(http.StatusText(http.StatusNotFound)))
	case errors.Is(err, scrum.ErrTaskLocked):
		abort(c, newConflictError("The event of this task is done, the task cannot be changed."))
	case errors.Is(err, scrum.ErrAdminTarget):
		abort(c, newForbiddenError(scrum.ErrAdminTarget.Error()))
	case errors.Is(err, services.ErrResetTokenInvalid):
		abort(c, newBadRequestError(services.ErrResetTokenInvalid.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}

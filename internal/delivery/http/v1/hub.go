package v1

import (
	"github.com/gin-gonic/gin"
)

// HandleUpdatesHub blocks for as long as the websocket stays open.
func (h *handlerImpl) HandleUpdatesHub(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	err := h.hub.ServeWS(c.Writer, c.Request, caller.UserID)
	if err != nil {
		// The upgrader has already answered the request.
		h.logger.Warn().
			Err(err).
			Str("user_id", caller.UserID).
			Msg("failed to open updates stream")
		c.Abort()
	}
}

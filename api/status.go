package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Heartbeat reports liveness.
func (a *API) Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Status returns request counts per lifecycle state, optionally scoped to
// one chat via ?chat_id=.
func (a *API) Status(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var chatID *int64

	if raw := c.Query("chat_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "invalid chat_id",
				"requestID": requestID,
			})
			return
		}
		chatID = &id
	}

	counts, err := a.Ledger.StatusCounts(chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to count request statuses", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, counts)
}

package gateway

import (
	"errors"
	"net/http"

	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	"github.com/MacklinHill1/neighborhood-help-app/internal/conversation"
	"github.com/MacklinHill1/neighborhood-help-app/internal/domain"
	"github.com/MacklinHill1/neighborhood-help-app/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type insertMessageBody struct {
	SenderID   string `json:"sender_id" binding:"required"`
	ReceiverID string `json:"receiver_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

func (g *Gateway) listConversations(c *gin.Context) {
	userID := c.Query("user_id")
	rows, err := g.svc.ListParticipants(c.Request.Context(), userID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counterparts": conversation.Counterparts(rows, userID)})
}

func (g *Gateway) listThread(c *gin.Context) {
	msgs, err := g.svc.ListThread(c.Request.Context(), c.Query("user_id"), c.Query("counterpart_id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (g *Gateway) insertMessage(c *gin.Context) {
	var body insertMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := g.svc.InsertMessage(c.Request.Context(), domain.NewMessage{
		SenderID:   body.SenderID,
		ReceiverID: body.ReceiverID,
		Content:    body.Content,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (g *Gateway) resolveProfiles(c *gin.Context) {
	profiles, err := g.svc.ResolveProfiles(c.Request.Context(), c.QueryArray("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (g *Gateway) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, backend.ErrInvalidMessage), errors.Is(err, backend.ErrMissingID):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		code = http.StatusNotFound
	default:
		g.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gopher0727/MessageBoard/internal/service"
	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

type MessageHandler struct {
	messageService service.IMessageService
	logger         *logger.Logger
}

func NewMessageHandler(messageService service.IMessageService, log *logger.Logger) *MessageHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &MessageHandler{
		messageService: messageService,
		logger:         log,
	}
}

// userIDRequest 删除和点赞请求体
type userIDRequest struct {
	UserID string `json:"user_id"`
}

// ListMessages handles GET /api/messages?user_id=
func (h *MessageHandler) ListMessages(c *gin.Context) {
	views, err := h.messageService.ListMessages(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateMessage handles POST /api/messages
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req service.CreateMessageRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := h.messageService.CreateMessage(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// DeleteMessage handles DELETE /api/messages/:id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	var req userIDRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// 有些客户端的 DELETE 不带 body
	if req.UserID == "" {
		req.UserID = c.Query("user_id")
	}

	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	if err := h.messageService.DeleteMessage(c.Request.Context(), id, req.UserID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleLike handles POST /api/messages/:id/like and responds {"liked": bool}.
// An unknown message id answers 404 and writes nothing.
func (h *MessageHandler) ToggleLike(c *gin.Context) {
	var req userIDRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, ok := parseMessageID(c)
	if !ok {
		return
	}

	liked, err := h.messageService.ToggleLike(c.Request.Context(), id, req.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// bindOptionalJSON decodes the body into obj; an empty body leaves obj untouched.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseMessageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidMessageID.Error()})
		return 0, false
	}
	return uint(id), true
}

// respondError maps service errors to status codes. Anything unknown is logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingParams),
		errors.Is(err, service.ErrMissingUserID),
		errors.Is(err, service.ErrInvalidMessageID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.ErrorContext(c.Request.Context(), "request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

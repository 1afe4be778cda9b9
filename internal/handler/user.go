package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/MessageBoard/internal/service"
	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

type UserHandler struct {
	userService service.IUserService
	logger      *logger.Logger
}

func NewUserHandler(userService service.IUserService, log *logger.Logger) *UserHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &UserHandler{
		userService: userService,
		logger:      log,
	}
}

// GetProfile handles GET /api/users/:user_id
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

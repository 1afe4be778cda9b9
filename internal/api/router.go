package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/MessageBoard/internal/handler"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(
	r *gin.Engine,
	messageHandler *handler.MessageHandler,
	userHandler *handler.UserHandler,
) {
	api := r.Group("/api")
	{
		messages := api.Group("/messages")
		{
			messages.GET("", messageHandler.ListMessages)
			messages.POST("", messageHandler.CreateMessage)
			messages.DELETE("/:id", messageHandler.DeleteMessage)
			messages.POST("/:id/like", messageHandler.ToggleLike)
		}

		users := api.Group("/users")
		{
			users.GET("/:user_id", userHandler.GetProfile)
		}
	}
}

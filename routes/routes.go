package routes

import (
	"marketplace-spotlight-api/controllers"
	"marketplace-spotlight-api/middleware"
	"marketplace-spotlight-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Marketplace Spotlight API is running",
				})
			})

			// Buyer-facing spotlight reads need no account
			public.GET("/spotlights/active", controllers.GetActiveSpotlights)
			public.GET("/listings/:listing_id/spotlight-status", controllers.GetListingSpotlightStatus)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/unread-count", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Spotlight lifecycle. Moderators and administrators only;
			// fine-grained capability checks live in the service gate.
			spotlights := protected.Group("/spotlights")
			spotlights.Use(middleware.RequireRole(models.RoleIDModerator, models.RoleIDAdministrator))
			{
				spotlights.GET("/history", controllers.GetSpotlightHistory)
				spotlights.POST("/bulk", controllers.BulkSpotlightAction)

				spotlights.POST("/:listing_id", controllers.ApplySpotlight)
				spotlights.PUT("/:listing_id", controllers.EditSpotlight)
				spotlights.DELETE("/:listing_id", controllers.RemoveSpotlight)
				spotlights.POST("/:listing_id/pause", controllers.PauseSpotlight)
				spotlights.POST("/:listing_id/resume", controllers.ResumeSpotlight)
			}

			// Admin-only moderator capability management
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleIDAdministrator))
			{
				admin.GET("/moderators/:user_id/permissions", controllers.GetModeratorPermissions)
				admin.PUT("/moderators/:user_id/permissions", controllers.UpdateModeratorPermissions)
			}
		}
	}
}

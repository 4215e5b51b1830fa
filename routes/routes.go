package routes

import (
	"legal-request-api/controllers"
	"legal-request-api/middleware"
	"legal-request-api/models"

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
					"message": "Legal Request API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Legal requests
			requests := protected.Group("/requests")
			{
				requests.GET("", controllers.GetRequests)
				requests.POST("", controllers.CreateRequest)
				requests.GET("/:id", controllers.GetRequest)
				requests.PUT("/:id", controllers.UpdateRequest)
				requests.DELETE("/:id", controllers.DeleteRequest)

				// Derived workflow views
				requests.GET("/:id/workflow", controllers.GetRequestWorkflow)
				requests.GET("/:id/history", controllers.GetRequestStatusHistory)

				// Lifecycle transitions. Capability checks live in the
				// transition rules; route-level roles only gate the surface.
				requests.POST("/:id/submit", controllers.SubmitRequest)
				requests.POST("/:id/send-to-attorney-assignment",
					middleware.RequireRole(models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.SendToAttorneyAssignment)
				requests.POST("/:id/assign-attorney",
					middleware.RequireRole(models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.AssignAttorney)
				requests.POST("/:id/complete-attorney-assignment",
					middleware.RequireRole(models.RoleIDAttorneyAssigner, models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.CompleteAttorneyAssignment)
				requests.POST("/:id/legal-review",
					middleware.RequireRole(models.RoleIDAttorney, models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.SubmitLegalReview)
				requests.POST("/:id/compliance-review",
					middleware.RequireRole(models.RoleIDComplianceUser, models.RoleIDAdmin),
					controllers.SubmitComplianceReview)
				requests.POST("/:id/respond-to-comments", controllers.RespondToComments)
				requests.POST("/:id/closeout", controllers.CloseoutRequest)
				requests.POST("/:id/receive-foreside-documents",
					middleware.RequireRole(models.RoleIDComplianceUser, models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.ReceiveForesideDocuments)
				requests.POST("/:id/cancel", controllers.CancelRequest)
				requests.POST("/:id/hold",
					middleware.RequireRole(models.RoleIDAttorney, models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.HoldRequest)
				requests.POST("/:id/resume",
					middleware.RequireRole(models.RoleIDAttorney, models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.ResumeRequest)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/unread-count", controllers.GetUnreadNotificationCount)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Dashboard
			dashboard := protected.Group("/dashboard")
			{
				dashboard.GET("/stats",
					middleware.RequireRole(models.RoleIDLegalAdmin, models.RoleIDAdmin),
					controllers.GetDashboardStats)
			}
		}
	}
}

package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/phillip/event-easy-go/config"
	controllers "github.com/phillip/event-easy-go/controllers"
	middleware "github.com/phillip/event-easy-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, d *controllers.Deps, resolver middleware.IdentityResolver) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"ETag", "Last-Modified", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", controllers.Health(d))

	// protected
	auth := middleware.AuthMiddleware(resolver)

	events := r.Group("/events")
	{
		events.GET("", controllers.ListEvents(d))
		events.GET("/organizer/:organizerId", controllers.ListOrganizerEvents(d))
		events.GET("/:id", controllers.GetEvent(d))

		events.POST("", auth, controllers.CreateEvent(d))
		events.PUT("/:id", auth, controllers.UpdateEvent(d))
		events.PUT("/:id/status", auth, controllers.UpdateEventStatus(d))
		events.DELETE("/:id", auth, controllers.DeleteEvent(d))

		// attendance endpoints resolve the credential themselves
		events.POST("/:id/payment/initiate", controllers.InitiatePayment(d))
		events.POST("/:id/payment/verify", controllers.VerifyPayment(d))
		events.POST("/:id/attend", controllers.AttendEvent(d))
		events.POST("/:id/leave", controllers.LeaveEvent(d))
		events.DELETE("/:id/leave", controllers.LeaveEvent(d))
	}
}

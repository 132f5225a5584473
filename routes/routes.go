package routes

import (
	"net/http"
	"time"

	"travelstore/handlers"
	"travelstore/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSessionRoutes registers sign-in, sign-out and recovery endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/session")
	{
		api.GET("", hb.GetSessionHandler)
		api.POST("/login", hb.LoginHandler)
		api.POST("/register", hb.RegisterHandler)
		api.POST("/logout", hb.LogoutHandler)
		api.POST("/password/forgot", hb.ForgotPasswordHandler)
		api.POST("/password/reset", hb.ResetPasswordHandler)

		api.PATCH("/profile", hb.ProtectedAction("You need to login to update your profile"), hb.UpdateProfileHandler)
	}
}

// RegisterDraftRoutes registers the booking dialog endpoints. Only submitting
// requires a signed-in user.
func RegisterDraftRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/drafts")
	{
		api.POST("", hb.OpenDraftHandler)
		api.GET("/:id", hb.GetDraftHandler)
		api.PATCH("/:id", hb.UpdateDraftHandler)
		api.DELETE("/:id", hb.CancelDraftHandler)
		api.POST("/:id/promo", hb.ValidatePromoHandler)
		api.POST("/:id/submit", hb.ProtectedAction("You need to login to book this package"), hb.SubmitDraftHandler)
	}
}

// RegisterBookingRoutes registers the booking history endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.Use(hb.ProtectedAction("You need to login to view your bookings"))
		bookingGroup.GET("", hb.ListBookingsHandler)
		bookingGroup.GET("/:id", hb.GetBookingHandler)
		bookingGroup.POST("/:id/cancel", hb.CancelBookingHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint reporting the last
// dependency probe.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		h := utils.GetHealthStatus()
		if !h.Healthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": h.Checks, "checkedAt": h.CheckedAt})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": h.Checks, "checkedAt": h.CheckedAt})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterSessionRoutes(r, hb)
	RegisterDraftRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
}

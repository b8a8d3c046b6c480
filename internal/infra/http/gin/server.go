package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"travelstay/internal/infra/config"
	"travelstay/internal/infra/obs"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Me(c *gin.Context)
}

type ListingHTTP interface {
	Search(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Deactivate(c *gin.Context)
	AddImage(c *gin.Context)
	RemoveImage(c *gin.Context)
	Availability(c *gin.Context)
	Bookings(c *gin.Context)
}

type BookingHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Cancel(c *gin.Context)
}

type ReviewsHTTP interface {
	ListByListing(c *gin.Context)
	Submit(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type PaymentHTTP interface {
	Initiate(c *gin.Context)
	Get(c *gin.Context)
	Webhook(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Listing        ListingHTTP
	Booking        BookingHTTP
	Reviews        ReviewsHTTP
	Payment        PaymentHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg.CORSOrigins, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every API route mounted under /api/v1.
func NewRouter(origins []string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(origins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Search)
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
		api.PUT("/listings/:id", h.Listing.Update)
		api.DELETE("/listings/:id", h.Listing.Deactivate)
		api.POST("/listings/:id/images", h.Listing.AddImage)
		api.DELETE("/listings/:id/images/:imageId", h.Listing.RemoveImage)
		api.GET("/listings/:id/availability", h.Listing.Availability)
		api.GET("/listings/:id/bookings", h.Listing.Bookings)
	}
	if h.Reviews != nil {
		api.GET("/listings/:id/reviews", h.Reviews.ListByListing)
		api.POST("/listings/:id/reviews", h.Reviews.Submit)
		api.PUT("/reviews/:id", h.Reviews.Update)
		api.DELETE("/reviews/:id", h.Reviews.Delete)
	}
	if h.Booking != nil {
		api.GET("/bookings", h.Booking.List)
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id/status", h.Booking.UpdateStatus)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Payment != nil {
		api.POST("/bookings/:id/pay", h.Payment.Initiate)
		api.POST("/bookings/:id/pay/", h.Payment.Initiate)
		api.GET("/bookings/:id/payment", h.Payment.Get)
		api.POST("/payments/webhook", h.Payment.Webhook)
		api.POST("/payments/webhook/", h.Payment.Webhook)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}

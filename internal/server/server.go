package server

import (
	"context"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/auth"
	checkoutH "github.com/fekuna/omnipos-storefront/internal/checkout/handler"
	downloadH "github.com/fekuna/omnipos-storefront/internal/download/handler"
	orderH "github.com/fekuna/omnipos-storefront/internal/order/handler"
	"github.com/fekuna/omnipos-storefront/pkg/logger"
	"github.com/fekuna/omnipos-storefront/pkg/metrics"
	"github.com/fekuna/omnipos-storefront/pkg/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	AllowOrigins  []string
	SecureCookies bool
}

type Deps struct {
	Verifier  *auth.Verifier
	Logger    logger.ZapLogger
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Ping      func(ctx context.Context) error
	Checkout  *checkoutH.CheckoutHandler
	Orders    *orderH.OrderHandler
	Downloads *downloadH.DownloadHandler
}

// NewEngine builds the storefront HTTP surface.
func NewEngine(cfg Config, d Deps) *gin.Engine {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Session-ID", checkoutH.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Observability(d.Logger, d.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	shop := r.Group("/", middleware.Identity(d.Verifier), middleware.EnsureSession(cfg.SecureCookies))
	admin := r.Group("/admin", middleware.Identity(d.Verifier), middleware.RequireStaff())

	d.Checkout.RegisterRoutes(shop)
	d.Orders.RegisterRoutes(shop, admin)
	d.Downloads.RegisterRoutes(shop)
	return r
}

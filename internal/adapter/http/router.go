package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexflow/easepay-confirm/internal/adapter/http/middleware"
	"github.com/nexflow/easepay-confirm/internal/logging"
)

func NewRouter(wh *WebhookHandler, oh *OrderHandler, th *TokenHandler, authz *middleware.Authz, wa *middleware.WebhookAuth) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(logging.New("http")))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	// Provider callback. Signature-authenticated, not JWT: the provider
	// only holds the shared webhook secret.
	r.POST("/easepay/v1/webhook", wa.Verify(), wh.Handle)

	v1 := r.Group("/v1")
	{
		v1.POST("/orders/:id/checkout", authz.Require("orders.write"), oh.Checkout)
		v1.GET("/orders/:id", authz.Require("orders.read"), oh.GetOrder)
		v1.GET("/orders/:id/status", authz.Require("orders.read"), oh.GetStatus)
		v1.POST("/orders/:id/refund", authz.Require("orders.write"), oh.Refund)
	}

	return r
}

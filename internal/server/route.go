package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/koungkub/fw-notification-relay/internal/correlation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (h *HTTPServer) setupRoutes() {
	h.router.Use(correlation.Middleware(), h.httpMetrics.Middleware())

	h.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "server is running",
		})
	})
	h.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// method gating is done per endpoint
	h.router.Any("/send-mail", h.handler.SendMailHandler)
	h.router.Any("/send-push", h.handler.SendPushHandler)
}

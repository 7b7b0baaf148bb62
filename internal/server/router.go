package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ChartHandler *ChartHandler
	Logger       logrus.FieldLogger
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(cfg.Logger), gin.Recovery())

	api := router.Group("/v1/")
	registerChartRoutes(api, cfg.ChartHandler)

	return router
}

func registerChartRoutes(router *gin.RouterGroup, h *ChartHandler) {
	router.GET("/symbols", h.GetSymbols)
	router.POST("/symbol/:symbol", h.SelectSymbol)
	router.GET("/charts", h.GetCharts)
	router.GET("/chart", h.GetChart)
	router.POST("/chart/:kind", h.SelectChart)
	router.POST("/refresh", h.Refresh)
	router.GET("/status", h.GetStatus)
	router.GET("/fetches", h.GetFetches)
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"took":   time.Since(start),
		}).Debug("http request")
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/GoMarketplace/services/cart"
	"github.com/AleutianAI/GoMarketplace/services/cart/view"
)

const shutdownTimeout = 5 * time.Second

// newMetricsRouter exposes Prometheus metrics and a readiness probe.
//
// GET /metrics - promhttp handler over the default registry.
// GET /health  - 200 with the item count once the cart has loaded,
//
//	503 with status "loading" before that.
func newMetricsRouter(store *cart.Store) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		select {
		case <-store.Ready():
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "loading",
				"store_id": store.ID(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"store_id":   store.ID(),
			"item_count": view.ItemCount(store.Items()),
		})
	})
	return router
}

// metricsServer serves newMetricsRouter until its context ends.
type metricsServer struct {
	srv    *http.Server
	logger *slog.Logger
}

func newMetricsServer(addr string, store *cart.Store, logger *slog.Logger) *metricsServer {
	return &metricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           newMetricsRouter(store),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run listens until ctx is done, then shuts down gracefully.
//
// Outputs:
//
//	error - Listen failure, or a shutdown that outlived shutdownTimeout.
func (m *metricsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		m.logger.Info("metrics server listening", slog.String("address", m.srv.Addr))
		errCh <- m.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := m.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		m.logger.Debug("metrics server stopped")
		return nil
	}
}

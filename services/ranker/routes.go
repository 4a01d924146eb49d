// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ranker

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/AleutianRank/services/ranker/observability"
)

// SetupRoutes wires the ranker API onto the router.
//
// staticDir, when non-empty, is served for any route the API does not
// claim, so the decoupled editor UI can live at /.
func SetupRoutes(router *gin.Engine, reg *Registry, hub *Hub,
	metrics *observability.RankerMetrics, staticDir string) {

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck(reg))
		api.POST("/lists", CreateList())
		api.POST("/tasks", GetTasks(reg))
		api.POST("/tasks/delete", DeleteTask(reg, hub))
		api.POST("/tasks/complete", CompleteTask(reg, hub))
		api.POST("/comparisons/content", GetComparisons(reg))
		api.POST("/comparisons/add", AddComparison(reg, hub, metrics))
		api.POST("/rankings", GetRankings(reg, metrics))
		api.GET("/ws", HandleWebSocket(hub, metrics))
	}

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		router.NoRoute(func(c *gin.Context) {
			fs.ServeHTTP(c.Writer, c.Request)
		})
	}
}

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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/AleutianRank/pkg/validation"
	"github.com/AleutianAI/AleutianRank/services/ranker/datatypes"
	"github.com/AleutianAI/AleutianRank/services/ranker/observability"
)

// RegisterValidators installs the "listid" rule on gin's validator
// engine. Call once before building routes.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("listid", func(fl validator.FieldLevel) bool {
		return validation.ValidateListID(fl.Field().String()) == nil
	})
}

// writeError shapes an engine error into the {error, message} body
// with the status of its Kind.
func writeError(c *gin.Context, err error) {
	kind := KindOf(err)
	msg := err.Error()
	var e *Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	if kind == KindInternal {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": string(kind), "message": msg})
}

// writeBindingError shapes a JSON binding/validation failure.
func writeBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   string(KindInvalidArgument),
		"message": err.Error(),
	})
}

// HealthCheck reports liveness and the persistence mode.
func HealthCheck(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.HealthResponse{
			Status:      "ok",
			DBConnected: reg.Persistent(),
			MemoryMode:  !reg.Persistent(),
		})
	}
}

// CreateList mints a fresh list id. The server never needs to be told
// about the id again: the list materialises on first use.
func CreateList() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.CreateListResponse{
			ListID: uuid.NewString(),
		})
	}
}

// GetTasks returns a list's tasks in insertion order.
func GetTasks(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		l, err := reg.Get(req.ListID)
		if err != nil {
			writeError(c, err)
			return
		}
		tasks := l.Tasks()
		if tasks == nil {
			tasks = []datatypes.Task{}
		}
		c.JSON(http.StatusOK, tasks)
	}
}

// DeleteTask removes a task and, transitively, every comparison
// referencing it. Idempotent.
func DeleteTask(reg *Registry, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.DeleteTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		l, err := reg.Get(req.ListID)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := l.DeleteTask(c.Request.Context(), req.Content); err != nil {
			writeError(c, err)
			return
		}
		hub.Broadcast(req.ListID, Event{Type: EventTaskDeleted, Data: gin.H{"content": req.Content}})
		c.JSON(http.StatusOK, datatypes.OKResponse{OK: true})
	}
}

// CompleteTask sets a task's advisory completed flag to the requested
// value.
func CompleteTask(reg *Registry, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.CompleteTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		l, err := reg.Get(req.ListID)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := l.SetCompleted(c.Request.Context(), req.Content, req.Completed); err != nil {
			writeError(c, err)
			return
		}
		hub.Broadcast(req.ListID, Event{Type: EventTaskCompleted, Data: gin.H{
			"content":   req.Content,
			"completed": req.Completed,
		}})
		c.JSON(http.StatusOK, datatypes.OKResponse{OK: true})
	}
}

// GetComparisons returns the full comparison log in time order.
func GetComparisons(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		l, err := reg.Get(req.ListID)
		if err != nil {
			writeError(c, err)
			return
		}
		cmps := l.Comparisons()
		if cmps == nil {
			cmps = []datatypes.Comparison{}
		}
		c.JSON(http.StatusOK, datatypes.ComparisonsResponse{Comparisons: cmps})
	}
}

// AddComparison records one judgement. A self-comparison (all three
// contents equal) registers the task and records no preference.
func AddComparison(reg *Registry, hub *Hub, metrics *observability.RankerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AddComparisonRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			metrics.RecordComparison("invalid")
			writeBindingError(c, err)
			return
		}
		l, err := reg.Get(req.ListID)
		if err != nil {
			metrics.RecordComparison("invalid")
			writeError(c, err)
			return
		}
		err = l.AddComparison(c.Request.Context(), req.TaskAContent, req.TaskBContent, req.WinnerContent)
		if err != nil {
			switch KindOf(err) {
			case KindUnavailable:
				metrics.RecordComparison("unavailable")
				metrics.RecordStoreError("comparison_write")
			default:
				metrics.RecordComparison("invalid")
			}
			writeError(c, err)
			return
		}
		metrics.RecordComparison("ok")
		if req.TaskAContent == req.TaskBContent {
			hub.Broadcast(req.ListID, Event{Type: EventTaskAdded, Data: gin.H{
				"content": req.TaskAContent,
			}})
		} else {
			hub.Broadcast(req.ListID, Event{Type: EventComparisonAdded, Data: gin.H{
				"task_a_content": req.TaskAContent,
				"task_b_content": req.TaskBContent,
				"winner_content": req.WinnerContent,
			}})
		}
		c.JSON(http.StatusOK, datatypes.OKResponse{OK: true})
	}
}

// GetRankings returns the full ordering with statistics, recomputing
// lazily when a mutation invalidated the caches.
func GetRankings(reg *Registry, metrics *observability.RankerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindingError(c, err)
			return
		}
		l, err := reg.Get(req.ListID)
		if err != nil {
			writeError(c, err)
			return
		}
		start := time.Now()
		rankings, stats := l.Rankings()
		metrics.RankingsComputeSeconds.Observe(time.Since(start).Seconds())
		if rankings == nil {
			rankings = []datatypes.RankedTask{}
		}
		c.JSON(http.StatusOK, datatypes.RankingsResponse{Rankings: rankings, Stats: stats})
	}
}

// wsUpgrader upgrades realtime connections. Any origin is accepted:
// the list id in the query string is the capability, same as every
// other endpoint.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsWriteTimeout bounds a single event write to a subscriber.
const wsWriteTimeout = 10 * time.Second

// HandleWebSocket upgrades the connection and streams the list's
// mutation events until the client disconnects.
func HandleWebSocket(hub *Hub, metrics *observability.RankerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		listID := c.Query("list_id")
		if err := validation.ValidateListID(listID); err != nil {
			writeError(c, invalidArgf("%v", err))
			return
		}

		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "error", err)
			return
		}

		events, cancel := hub.Subscribe(listID)
		metrics.RealtimeClients.Inc()
		defer func() {
			cancel()
			metrics.RealtimeClients.Dec()
			conn.Close()
		}()

		// Reader goroutine: we never expect client messages, but the
		// read loop is what surfaces the close frame.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			}
		}
	}
}

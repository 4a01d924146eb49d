// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the engine records and wire types for the
// ranker service.
//
// Tasks are identified by their exact textual content (case-sensitive,
// whitespace-sensitive). There is no task id: renaming a task is a
// delete followed by a create, and the rating history does not carry
// over. Nothing here normalises content.
package datatypes

import "time"

// Task is a single rankable item within one list.
//
// Completed is advisory metadata for the UI; the rating engine does not
// filter or weight by it.
type Task struct {
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// Comparison is one immutable pairwise judgement: Winner beat the other
// task at Timestamp. Winner always equals TaskA or TaskB. The order of
// TaskA vs TaskB carries no meaning.
//
// A self-comparison (TaskA == TaskB == Winner) is the registration form
// used by external callers; it carries no preference information.
type Comparison struct {
	TaskA     string    `json:"task_a_content"`
	TaskB     string    `json:"task_b_content"`
	Winner    string    `json:"winner_content"`
	Timestamp time.Time `json:"timestamp"`
}

// IsSelf reports whether the comparison is a registration-only
// self-comparison.
func (c Comparison) IsSelf() bool {
	return c.TaskA == c.TaskB
}

// References reports whether the comparison mentions the given content
// on either side.
func (c Comparison) References(content string) bool {
	return c.TaskA == content || c.TaskB == content
}

// Rating is the Gaussian posterior belief over one task's latent merit.
type Rating struct {
	Mu     float64
	Sigma2 float64
}

// RankedTask is one entry of a rankings response. Rank is 1-based,
// assigned by descending score with lexicographic tie-break on content.
type RankedTask struct {
	Content            string     `json:"content"`
	Score              float64    `json:"score"`
	Rank               int        `json:"rank"`
	Variance           float64    `json:"variance"`
	ConfidenceInterval [2]float64 `json:"confidence_interval"`
	ComparisonsCount   int        `json:"comparisons_count"`
}

// Stats summarises coverage and convergence of a list's comparison log.
//
// OptimalNextPair is nil when the list holds fewer than two tasks.
type Stats struct {
	TotalComparisons     int        `json:"total_comparisons"`
	UniquePairs          int        `json:"unique_pairs"`
	PossiblePairs        int        `json:"possible_pairs"`
	Coverage             float64    `json:"coverage"`
	Convergence          float64    `json:"convergence"`
	MeanVariance         float64    `json:"mean_variance"`
	MaxInformationGain   float64    `json:"max_information_gain"`
	OptimalNextPair      *[2]string `json:"optimal_next_pair"`
	InitialVariance      float64    `json:"initial_variance"`
	PriorPrecision       float64    `json:"prior_precision"`
	ConvergenceThreshold float64    `json:"convergence_threshold"`
}

// =============================================================================
// Request / response bodies
// =============================================================================

// ListRequest is the common body of every list-scoped read.
//
// The list id is an opaque capability: possession is authorisation. The
// "listid" rule (registered in the ranker service) enforces the minimum
// length of 8 characters.
type ListRequest struct {
	ListID string `json:"list_id" binding:"required,listid"`
}

// DeleteTaskRequest deletes a task and every comparison referencing it.
type DeleteTaskRequest struct {
	ListID  string `json:"list_id" binding:"required,listid"`
	Content string `json:"content" binding:"required"`
}

// CompleteTaskRequest sets the advisory completed flag on a task.
type CompleteTaskRequest struct {
	ListID    string `json:"list_id" binding:"required,listid"`
	Content   string `json:"content" binding:"required"`
	Completed bool   `json:"completed"`
}

// AddComparisonRequest records one judgement. WinnerContent must equal
// TaskAContent or TaskBContent; when all three are equal the request
// registers the task and records no preference.
type AddComparisonRequest struct {
	ListID        string `json:"list_id" binding:"required,listid"`
	TaskAContent  string `json:"task_a_content" binding:"required"`
	TaskBContent  string `json:"task_b_content" binding:"required"`
	WinnerContent string `json:"winner_content" binding:"required"`
}

// ComparisonsResponse is the full time-ordered log of a list.
type ComparisonsResponse struct {
	Comparisons []Comparison `json:"comparisons"`
}

// RankingsResponse carries the full ordering plus derived statistics.
type RankingsResponse struct {
	Rankings []RankedTask `json:"rankings"`
	Stats    Stats        `json:"stats"`
}

// CreateListResponse returns a freshly minted list id.
type CreateListResponse struct {
	ListID string `json:"list_id"`
}

// HealthResponse reports liveness and the persistence mode.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
	MemoryMode  bool   `json:"memory_mode"`
}

// OKResponse acknowledges a mutation.
type OKResponse struct {
	OK bool `json:"ok"`
}

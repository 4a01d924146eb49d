// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store is the persistence adapter for the ranker.
//
// The contract, when a store is configured:
//
//   - On startup LoadAll returns every list with its tasks in
//     insertion order and its comparisons in timestamp order.
//   - Every mutation is durable before it returns nil. The list layer
//     mutates memory only after the store accepts the write, so a
//     store error means the operation had no effect anywhere.
//   - DeleteTask removes the task and every comparison referencing it
//     in one transaction; no partial state is ever readable.
//
// When no store is configured the engine runs in ephemeral mode and
// this package is not involved.
package store

import (
	"context"

	"github.com/AleutianAI/AleutianRank/services/ranker/datatypes"
)

// TaskRecord is a stored task with its insertion sequence.
type TaskRecord struct {
	Seq       uint64 `json:"seq"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// ComparisonRecord is a stored comparison with its append sequence.
type ComparisonRecord struct {
	Seq        uint64
	Comparison datatypes.Comparison
}

// ListSnapshot is one list as reloaded at startup. Tasks are in
// insertion (seq) order, Comparisons in append (seq == timestamp)
// order.
type ListSnapshot struct {
	ID          string
	Tasks       []TaskRecord
	Comparisons []ComparisonRecord
}

// Store journals list mutations durably.
//
// Implementations must be safe for concurrent use; the list layer
// issues at most one write per list at a time but different lists
// write in parallel.
type Store interface {
	// LoadAll scans every persisted list.
	LoadAll(ctx context.Context) ([]ListSnapshot, error)

	// PutTask durably records a task (new, or updated completed flag).
	PutTask(ctx context.Context, listID string, task TaskRecord) error

	// AppendComparison durably records a comparison and, atomically
	// with it, any tasks the comparison introduces.
	AppendComparison(ctx context.Context, listID string, cmp ComparisonRecord, newTasks []TaskRecord) error

	// DeleteTask durably removes a task and every comparison
	// referencing its content, atomically.
	DeleteTask(ctx context.Context, listID, content string) error

	// Close releases the underlying database.
	Close() error
}

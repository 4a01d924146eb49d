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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianRank/pkg/validation"
	"github.com/AleutianAI/AleutianRank/services/ranker/store"
)

// Registry is the process-wide map from list id to list state.
//
// The registry's own lock serialises insertions only; all list
// operations run under the inner per-list lock, so operations on
// different lists proceed in parallel.
//
// Lists are never evicted during process lifetime. Memory is bounded
// by the persisted corpus.
type Registry struct {
	mu    sync.Mutex
	lists map[string]*List

	st  store.Store // nil in ephemeral mode
	now func() time.Time

	logger *slog.Logger
}

// NewRegistry constructs a registry over an optional store. A nil
// store means ephemeral mode: state lives until process exit.
func NewRegistry(st store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		lists:  make(map[string]*List),
		st:     st,
		logger: logger,
	}
}

// Load reloads every persisted list into memory. Call once at startup
// before serving. A nil store loads nothing.
func (r *Registry) Load(ctx context.Context) error {
	if r.st == nil {
		return nil
	}
	snaps, err := r.st.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load lists: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snaps {
		r.lists[snap.ID] = listFromSnapshot(snap, r.st, r.now)
		r.logger.Info("list restored",
			"list_id", snap.ID,
			"tasks", len(snap.Tasks),
			"comparisons", len(snap.Comparisons),
		)
	}
	return nil
}

// Get returns the list for id, creating an empty one on first
// reference. Ids shorter than the minimum are rejected with
// KindInvalidArgument.
func (r *Registry) Get(id string) (*List, error) {
	if err := validation.ValidateListID(id); err != nil {
		return nil, invalidArgf("%v", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[id]
	if !ok {
		l = newList(id, r.st, r.now)
		r.lists[id] = l
	}
	return l, nil
}

// Persistent reports whether a store backs this registry.
func (r *Registry) Persistent() bool {
	return r.st != nil
}

// Len returns the number of resident lists.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lists)
}

// Close flushes and closes the store, if any.
func (r *Registry) Close() error {
	if r.st == nil {
		return nil
	}
	return r.st.Close()
}

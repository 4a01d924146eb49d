// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ranker binds the rating engine, the pair selector, and the
// persistence adapter into per-list state under a registry.
//
// # State discipline
//
// Each list is guarded by one mutex. Mutations follow a single
// persist-then-mutate-then-invalidate discipline: the store accepts
// the write first (or the operation fails with no effect), memory is
// updated second, and the derived caches are dropped last. Reads
// recompute lazily and memoise until the next mutation, so two reads
// with no mutation in between are byte-identical.
package ranker

import (
	"context"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianRank/services/ranker/datatypes"
	"github.com/AleutianAI/AleutianRank/services/ranker/engine"
	"github.com/AleutianAI/AleutianRank/services/ranker/store"
)

// List is the state of one ranked list: its tasks in insertion order,
// the append-only comparison log, and lazily computed rating caches.
//
// Thread Safety: all exported methods lock the list's mutex. Callers
// must not retain or mutate returned slices across calls.
type List struct {
	mu sync.Mutex

	id string

	tasks   []datatypes.Task  // insertion order
	taskSeq map[string]uint64 // content → storage seq

	log []datatypes.Comparison

	nextTaskSeq uint64
	nextCmpSeq  uint64

	// st is nil in ephemeral mode.
	st store.Store

	now func() time.Time

	// Derived caches; nil means "recompute on next read". Both are
	// populated together and dropped together.
	cachedRankings []datatypes.RankedTask
	cachedStats    *datatypes.Stats
}

// newList constructs an empty list.
func newList(id string, st store.Store, now func() time.Time) *List {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &List{
		id:      id,
		taskSeq: make(map[string]uint64),
		st:      st,
		now:     now,
	}
}

// listFromSnapshot rebuilds a list from its persisted form. Tasks
// arrive in insertion order and comparisons in timestamp order, which
// is the order the rating model replays them in.
func listFromSnapshot(snap store.ListSnapshot, st store.Store, now func() time.Time) *List {
	l := newList(snap.ID, st, now)
	for _, t := range snap.Tasks {
		l.tasks = append(l.tasks, datatypes.Task{Content: t.Content, Completed: t.Completed})
		l.taskSeq[t.Content] = t.Seq
		if t.Seq >= l.nextTaskSeq {
			l.nextTaskSeq = t.Seq + 1
		}
	}
	for _, c := range snap.Comparisons {
		l.log = append(l.log, c.Comparison)
		if c.Seq >= l.nextCmpSeq {
			l.nextCmpSeq = c.Seq + 1
		}
	}
	return l
}

// ID returns the list's opaque id.
func (l *List) ID() string { return l.id }

// EnsureTask adds content to the task set if absent. Returns whether
// the task was added; the derived caches are invalidated only then.
func (l *List) EnsureTask(ctx context.Context, content string) (bool, error) {
	if content == "" {
		return false, invalidArgf("task content must not be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureLocked(ctx, content)
}

// ensureLocked registers a task, journalling it first. Caller holds
// the lock.
func (l *List) ensureLocked(ctx context.Context, content string) (bool, error) {
	if _, exists := l.taskSeq[content]; exists {
		return false, nil
	}
	seq := l.nextTaskSeq
	if l.st != nil {
		rec := store.TaskRecord{Seq: seq, Content: content}
		if err := l.st.PutTask(ctx, l.id, rec); err != nil {
			return false, unavailable("task write", err)
		}
	}
	l.nextTaskSeq = seq + 1
	l.tasks = append(l.tasks, datatypes.Task{Content: content})
	l.taskSeq[content] = seq
	l.invalidateLocked()
	return true, nil
}

// AddComparison validates and appends one judgement.
//
// Both tasks are registered if absent. A self-comparison (a == b ==
// winner) registers the task and appends nothing: it carries no
// preference information, and keeping it out of the log keeps replay
// identical across restarts.
func (l *List) AddComparison(ctx context.Context, a, b, winner string) error {
	if a == "" || b == "" || winner == "" {
		return invalidArgf("task content must not be empty")
	}
	if winner != a && winner != b {
		return invalidArgf("winner %q must be one of the compared tasks", winner)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if a == b {
		_, err := l.ensureLocked(ctx, a)
		return err
	}

	cmp := datatypes.Comparison{TaskA: a, TaskB: b, Winner: winner, Timestamp: l.now()}
	seq := l.nextCmpSeq

	if l.st != nil {
		var newTasks []store.TaskRecord
		nextSeq := l.nextTaskSeq
		for _, content := range []string{a, b} {
			if _, exists := l.taskSeq[content]; !exists {
				newTasks = append(newTasks, store.TaskRecord{Seq: nextSeq, Content: content})
				nextSeq++
			}
		}
		rec := store.ComparisonRecord{Seq: seq, Comparison: cmp}
		if err := l.st.AppendComparison(ctx, l.id, rec, newTasks); err != nil {
			return unavailable("comparison write", err)
		}
	}

	for _, content := range []string{a, b} {
		if _, exists := l.taskSeq[content]; !exists {
			l.tasks = append(l.tasks, datatypes.Task{Content: content})
			l.taskSeq[content] = l.nextTaskSeq
			l.nextTaskSeq++
		}
	}
	l.log = append(l.log, cmp)
	l.nextCmpSeq = seq + 1
	l.invalidateLocked()
	return nil
}

// SetCompleted sets the advisory completed flag. Unknown content is a
// no-op: the flag is metadata, not identity. Rating caches are left
// intact; the engine does not read the flag.
func (l *List) SetCompleted(ctx context.Context, content string, completed bool) error {
	if content == "" {
		return invalidArgf("task content must not be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	seq, exists := l.taskSeq[content]
	if !exists {
		return nil
	}
	if l.st != nil {
		rec := store.TaskRecord{Seq: seq, Content: content, Completed: completed}
		if err := l.st.PutTask(ctx, l.id, rec); err != nil {
			return unavailable("task write", err)
		}
	}
	for i := range l.tasks {
		if l.tasks[i].Content == content {
			l.tasks[i].Completed = completed
			break
		}
	}
	return nil
}

// DeleteTask removes a task and every comparison referencing it.
// Deleting an absent task is a no-op; the operation is idempotent.
func (l *List) DeleteTask(ctx context.Context, content string) error {
	if content == "" {
		return invalidArgf("task content must not be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.taskSeq[content]; !exists {
		return nil
	}
	if l.st != nil {
		if err := l.st.DeleteTask(ctx, l.id, content); err != nil {
			return unavailable("task delete", err)
		}
	}

	delete(l.taskSeq, content)
	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if t.Content != content {
			kept = append(kept, t)
		}
	}
	l.tasks = kept

	keptLog := l.log[:0]
	for _, c := range l.log {
		if !c.References(content) {
			keptLog = append(keptLog, c)
		}
	}
	l.log = keptLog

	l.invalidateLocked()
	return nil
}

// Tasks returns the tasks in insertion order.
func (l *List) Tasks() []datatypes.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]datatypes.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// Comparisons returns the full log in time order.
func (l *List) Comparisons() []datatypes.Comparison {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]datatypes.Comparison, len(l.log))
	copy(out, l.log)
	return out
}

// Rankings returns the full ordering and statistics, recomputing the
// caches if a mutation invalidated them.
func (l *List) Rankings() ([]datatypes.RankedTask, datatypes.Stats) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cachedRankings == nil || l.cachedStats == nil {
		l.recomputeLocked()
	}
	rankings := make([]datatypes.RankedTask, len(l.cachedRankings))
	copy(rankings, l.cachedRankings)
	return rankings, *l.cachedStats
}

// invalidateLocked drops the derived caches. Caller holds the lock.
func (l *List) invalidateLocked() {
	l.cachedRankings = nil
	l.cachedStats = nil
}

// recomputeLocked replays the log through the rating model and derives
// rankings and statistics. Caller holds the lock.
func (l *List) recomputeLocked() {
	contents := make([]string, len(l.tasks))
	for i, t := range l.tasks {
		contents[i] = t.Content
	}

	entries := make([]engine.LogEntry, 0, len(l.log))
	counts := make(map[string]int, len(l.tasks))
	for _, c := range l.log {
		loser := c.TaskA
		if c.Winner == c.TaskA {
			loser = c.TaskB
		}
		entries = append(entries, engine.LogEntry{Winner: c.Winner, Loser: loser, Self: c.IsSelf()})
		counts[c.TaskA]++
		if !c.IsSelf() {
			counts[c.TaskB]++
		}
	}

	ratings := engine.Evaluate(contents, entries)

	ordered := engine.Rank(ratings)
	rankings := make([]datatypes.RankedTask, 0, len(ordered))
	for i, content := range ordered {
		r := ratings[content]
		lo, hi := engine.CredibleInterval(r)
		rankings = append(rankings, datatypes.RankedTask{
			Content:            content,
			Score:              r.Mu,
			Rank:               i + 1,
			Variance:           r.Sigma2,
			ConfidenceInterval: [2]float64{lo, hi},
			ComparisonsCount:   counts[content],
		})
	}

	es := engine.ComputeStats(ratings, entries)
	stats := datatypes.Stats{
		TotalComparisons:     es.TotalComparisons,
		UniquePairs:          es.UniquePairs,
		PossiblePairs:        es.PossiblePairs,
		Coverage:             es.Coverage,
		Convergence:          es.Convergence,
		MeanVariance:         es.MeanVariance,
		MaxInformationGain:   es.MaxInformationGain,
		InitialVariance:      engine.InitialVariance,
		PriorPrecision:       engine.PriorPrecision,
		ConvergenceThreshold: engine.ConvergenceThreshold,
	}
	if es.HasPair {
		stats.OptimalNextPair = &[2]string{es.OptimalPair.A, es.OptimalPair.B}
	}

	l.cachedRankings = rankings
	l.cachedStats = &stats
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ranker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianRank/services/ranker/datatypes"
	"github.com/AleutianAI/AleutianRank/services/ranker/engine"
)

// testClock hands out strictly increasing timestamps so log order is
// observable in tests.
func testClock() func() time.Time {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestList(t *testing.T) *List {
	t.Helper()
	return newList("abcdefgh", nil, testClock())
}

func TestList_EnsureTaskIdempotent(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()

	added, err := l.EnsureTask(ctx, "A")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = l.EnsureTask(ctx, "A")
	require.NoError(t, err)
	assert.False(t, added)

	assert.Equal(t, []datatypes.Task{{Content: "A"}}, l.Tasks())
}

func TestList_EnsureTaskEmptyContent(t *testing.T) {
	l := newTestList(t)
	_, err := l.EnsureTask(context.Background(), "")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}

func TestList_ContentIdentityIsExact(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()

	// No trimming, no case folding: these are three distinct tasks.
	for _, content := range []string{"fix bug", "Fix bug", " fix bug"} {
		added, err := l.EnsureTask(ctx, content)
		require.NoError(t, err)
		assert.True(t, added)
	}
	assert.Len(t, l.Tasks(), 3)
}

func TestList_AddComparison_SingleJudgement(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()

	// Register via self-comparisons, then judge.
	require.NoError(t, l.AddComparison(ctx, "A", "A", "A"))
	require.NoError(t, l.AddComparison(ctx, "B", "B", "B"))
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))

	rankings, stats := l.Rankings()
	require.Len(t, rankings, 2)
	assert.Equal(t, "A", rankings[0].Content)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, 2, rankings[1].Rank)
	assert.Greater(t, rankings[0].Score, 0.0)
	assert.Less(t, rankings[1].Score, 0.0)
	assert.Less(t, rankings[0].Variance, engine.InitialVariance)
	assert.Less(t, rankings[1].Variance, engine.InitialVariance)
	assert.Equal(t, 1.0, stats.Coverage)
	assert.Equal(t, 1, stats.TotalComparisons)
}

func TestList_AddComparison_RegistersBothTasks(t *testing.T) {
	l := newTestList(t)
	require.NoError(t, l.AddComparison(context.Background(), "A", "B", "B"))

	tasks := l.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "A", tasks[0].Content, "insertion order: task_a first")
	assert.Equal(t, "B", tasks[1].Content)
}

func TestList_AddComparison_InvalidWinner(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))

	before, beforeStats := l.Rankings()

	err := l.AddComparison(ctx, "A", "B", "C")
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	after, afterStats := l.Rankings()
	assert.Equal(t, before, after, "state must be unchanged after rejection")
	assert.Equal(t, beforeStats, afterStats)
	assert.Len(t, l.Comparisons(), 1)
}

func TestList_AddComparison_SelfRegistersWithoutLogEntry(t *testing.T) {
	l := newTestList(t)
	require.NoError(t, l.AddComparison(context.Background(), "A", "A", "A"))

	assert.Equal(t, []datatypes.Task{{Content: "A"}}, l.Tasks())
	assert.Empty(t, l.Comparisons())
}

func TestList_AddComparison_TimestampsFollowLogOrder(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))
	require.NoError(t, l.AddComparison(ctx, "B", "C", "B"))
	require.NoError(t, l.AddComparison(ctx, "A", "C", "C"))

	cmps := l.Comparisons()
	require.Len(t, cmps, 3)
	for i := 1; i < len(cmps); i++ {
		assert.True(t, cmps[i].Timestamp.After(cmps[i-1].Timestamp))
	}
}

func TestList_Rankings_Invariants(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))
	require.NoError(t, l.AddComparison(ctx, "B", "C", "B"))
	require.NoError(t, l.AddComparison(ctx, "D", "D", "D"))

	rankings, _ := l.Rankings()
	tasks := l.Tasks()
	require.Len(t, rankings, len(tasks))

	seenRank := make(map[int]bool)
	seenContent := make(map[string]bool)
	for _, r := range rankings {
		seenRank[r.Rank] = true
		seenContent[r.Content] = true
	}
	for i := 1; i <= len(tasks); i++ {
		assert.True(t, seenRank[i], "ranks must be a permutation of 1..n, missing %d", i)
	}
	for _, task := range tasks {
		assert.True(t, seenContent[task.Content])
	}

	// Every comparison references known tasks.
	known := make(map[string]bool)
	for _, task := range tasks {
		known[task.Content] = true
	}
	for _, c := range l.Comparisons() {
		assert.True(t, known[c.TaskA])
		assert.True(t, known[c.TaskB])
	}
}

func TestList_Rankings_CachedBetweenMutations(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))

	r1, s1 := l.Rankings()
	r2, s2 := l.Rankings()
	assert.Equal(t, r1, r2)
	assert.Equal(t, s1, s2)

	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))
	r3, _ := l.Rankings()
	assert.NotEqual(t, r1, r3, "mutation must invalidate the cache")
}

func TestList_Rankings_Transitivity(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))
	require.NoError(t, l.AddComparison(ctx, "B", "C", "B"))

	rankings, _ := l.Rankings()
	require.Len(t, rankings, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{
		rankings[0].Content, rankings[1].Content, rankings[2].Content,
	})
}

func TestList_Rankings_OptimalPairDeterministic(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	for _, c := range []string{"X", "Y", "Z"} {
		require.NoError(t, l.AddComparison(ctx, c, c, c))
	}

	_, s1 := l.Rankings()
	_, s2 := l.Rankings()
	require.NotNil(t, s1.OptimalNextPair)
	require.NotNil(t, s2.OptimalNextPair)
	assert.Equal(t, *s1.OptimalNextPair, *s2.OptimalNextPair)
	assert.NotEqual(t, s1.OptimalNextPair[0], s1.OptimalNextPair[1])
}

func TestList_DeleteCascades(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))
	require.NoError(t, l.AddComparison(ctx, "B", "C", "B"))
	require.NoError(t, l.AddComparison(ctx, "A", "C", "A"))

	require.NoError(t, l.DeleteTask(ctx, "B"))

	tasks := l.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "A", tasks[0].Content)
	assert.Equal(t, "C", tasks[1].Content)

	cmps := l.Comparisons()
	require.Len(t, cmps, 1)
	assert.Equal(t, "A", cmps[0].TaskA)
	assert.Equal(t, "C", cmps[0].TaskB)

	rankings, stats := l.Rankings()
	assert.Len(t, rankings, 2)
	assert.Equal(t, 1.0, stats.Coverage)
}

func TestList_DeleteIdempotent(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))

	require.NoError(t, l.DeleteTask(ctx, "A"))
	require.NoError(t, l.DeleteTask(ctx, "A"))

	assert.Len(t, l.Tasks(), 1)
	assert.Empty(t, l.Comparisons())
}

func TestList_SetCompleted(t *testing.T) {
	l := newTestList(t)
	ctx := context.Background()
	require.NoError(t, l.AddComparison(ctx, "A", "B", "A"))

	before, _ := l.Rankings()

	require.NoError(t, l.SetCompleted(ctx, "A", true))
	tasks := l.Tasks()
	assert.True(t, tasks[0].Completed)
	assert.False(t, tasks[1].Completed)

	// The flag is advisory: rankings are untouched.
	after, _ := l.Rankings()
	assert.Equal(t, before, after)

	// Unknown content is a no-op.
	require.NoError(t, l.SetCompleted(ctx, "ghost", true))
	assert.Len(t, l.Tasks(), 2)
}

func TestList_StatsConstantsReported(t *testing.T) {
	l := newTestList(t)
	_, stats := l.Rankings()
	assert.Equal(t, engine.InitialVariance, stats.InitialVariance)
	assert.Equal(t, engine.PriorPrecision, stats.PriorPrecision)
	assert.Equal(t, engine.ConvergenceThreshold, stats.ConvergenceThreshold)
	assert.Nil(t, stats.OptimalNextPair)
}

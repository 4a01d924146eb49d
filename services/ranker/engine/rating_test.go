// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_PriorsOnly(t *testing.T) {
	ratings := Evaluate([]string{"A", "B", "C"}, nil)

	require.Len(t, ratings, 3)
	for content, r := range ratings {
		assert.Equal(t, 0.0, r.Mu, "content %s", content)
		assert.Equal(t, InitialVariance, r.Sigma2, "content %s", content)
	}
}

func TestEvaluate_SingleComparison(t *testing.T) {
	ratings := Evaluate([]string{"A", "B"}, []LogEntry{{Winner: "A", Loser: "B"}})

	a, b := ratings["A"], ratings["B"]
	assert.Greater(t, a.Mu, 0.0, "winner mean must rise above prior")
	assert.Less(t, b.Mu, 0.0, "loser mean must fall below prior")
	assert.Less(t, a.Sigma2, InitialVariance, "winner variance must shrink")
	assert.Less(t, b.Sigma2, InitialVariance, "loser variance must shrink")

	// Symmetric priors give a symmetric update.
	assert.InDelta(t, a.Mu, -b.Mu, 1e-12)
	assert.InDelta(t, a.Sigma2, b.Sigma2, 1e-12)
}

func TestEvaluate_Transitivity(t *testing.T) {
	ratings := Evaluate([]string{"A", "B", "C"}, []LogEntry{
		{Winner: "A", Loser: "B"},
		{Winner: "B", Loser: "C"},
	})

	assert.Greater(t, ratings["A"].Mu, ratings["B"].Mu)
	assert.Greater(t, ratings["B"].Mu, ratings["C"].Mu)
}

func TestEvaluate_Deterministic(t *testing.T) {
	log := []LogEntry{
		{Winner: "A", Loser: "B"},
		{Winner: "C", Loser: "A"},
		{Winner: "A", Loser: "B"},
		{Winner: "B", Loser: "C"},
	}
	first := Evaluate([]string{"A", "B", "C"}, log)
	second := Evaluate([]string{"A", "B", "C"}, log)
	assert.Equal(t, first, second)
}

func TestEvaluate_OrderSensitive(t *testing.T) {
	forward := Evaluate([]string{"A", "B", "C"}, []LogEntry{
		{Winner: "A", Loser: "B"},
		{Winner: "B", Loser: "C"},
	})
	reversed := Evaluate([]string{"A", "B", "C"}, []LogEntry{
		{Winner: "B", Loser: "C"},
		{Winner: "A", Loser: "B"},
	})
	// The replay is sequential ADF: order matters, which is why a
	// deletion forces a full replay instead of an incremental patch.
	assert.NotEqual(t, forward["B"], reversed["B"])
}

func TestEvaluate_RepeatShrinksVariance(t *testing.T) {
	one := Evaluate([]string{"A", "B"}, []LogEntry{{Winner: "A", Loser: "B"}})
	two := Evaluate([]string{"A", "B"}, []LogEntry{
		{Winner: "A", Loser: "B"},
		{Winner: "A", Loser: "B"},
	})

	assert.LessOrEqual(t, two["A"].Sigma2, one["A"].Sigma2)
	assert.LessOrEqual(t, two["B"].Sigma2, one["B"].Sigma2)
	assert.Greater(t, two["A"].Mu, one["A"].Mu)
	assert.Less(t, two["B"].Mu, one["B"].Mu)
}

func TestEvaluate_VarianceFloor(t *testing.T) {
	log := make([]LogEntry, 0, 500)
	for i := 0; i < 500; i++ {
		log = append(log, LogEntry{Winner: "A", Loser: "B"})
	}
	ratings := Evaluate([]string{"A", "B"}, log)

	assert.GreaterOrEqual(t, ratings["A"].Sigma2, PriorPrecision)
	assert.GreaterOrEqual(t, ratings["B"].Sigma2, PriorPrecision)
	assert.False(t, math.IsNaN(ratings["A"].Mu))
	assert.False(t, math.IsInf(ratings["A"].Mu, 0))
}

func TestEvaluate_SelfComparisonSkipped(t *testing.T) {
	ratings := Evaluate([]string{"A"}, []LogEntry{{Winner: "A", Loser: "A", Self: true}})
	assert.Equal(t, NewRating(), ratings["A"])
}

func TestEvaluate_UnknownTaskSkipped(t *testing.T) {
	ratings := Evaluate([]string{"A"}, []LogEntry{{Winner: "A", Loser: "ghost"}})
	assert.Equal(t, NewRating(), ratings["A"])
}

func TestTruncatedMoments_TailClamp(t *testing.T) {
	// Φ(t) drops below the 1e-12 clamp threshold near t ≈ -7; the
	// quotient must stay finite and positive so the update direction
	// survives.
	v, w := truncatedMoments(-40)
	assert.Equal(t, 50.0, v)
	assert.False(t, math.IsNaN(w))
	assert.False(t, math.IsInf(w, 0))
}

func TestNormCDF_KnownValues(t *testing.T) {
	assert.InDelta(t, 0.5, normCDF(0), 1e-12)
	assert.InDelta(t, 0.8413447460685429, normCDF(1), 1e-12)
	assert.InDelta(t, 0.15865525393145707, normCDF(-1), 1e-12)
	assert.InDelta(t, 1.0, normCDF(10), 1e-12)
	assert.InDelta(t, 0.0, normCDF(-10), 1e-12)
}

func TestCredibleInterval(t *testing.T) {
	lo, hi := CredibleInterval(Rating{Mu: 1, Sigma2: 4})
	assert.InDelta(t, 1-1.645*2, lo, 1e-12)
	assert.InDelta(t, 1+1.645*2, hi, 1e-12)
}

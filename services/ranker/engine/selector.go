// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"math"
	"sort"
)

// Expected-information-gain constants. The closed-form surrogate
// exp(−|Δ|/k₁)·(√(σ_i²+σ_j²)/k₂) peaks for pairs with close means and
// wide posteriors, which is where a judgement teaches the most.
const (
	eigMeanScale     = 10.0
	eigVarianceScale = 20.0
)

// PairScore is one candidate pair with its expected information gain.
// A and B are ordered lexicographically, A < B.
type PairScore struct {
	A, B string
	Gain float64
}

// InformationGain scores the pair (i, j) under the current posterior.
func InformationGain(ri, rj Rating) float64 {
	delta := math.Abs(ri.Mu - rj.Mu)
	return math.Exp(-delta/eigMeanScale) * math.Sqrt(ri.Sigma2+rj.Sigma2) / eigVarianceScale
}

// WinProbability is the predicted probability that i beats j.
func WinProbability(ri, rj Rating) float64 {
	c := math.Sqrt(ri.Sigma2 + rj.Sigma2 + 2*betaSquared)
	return normCDF((ri.Mu - rj.Mu) / c)
}

// SelectPair returns the pair with maximal expected information gain
// over all unordered pairs of distinct tasks, or ok=false when fewer
// than two tasks exist.
//
// Ties break toward the lexicographically smallest (A, B), so the
// recommendation is deterministic for identical state. Already-compared
// pairs are not excluded: a re-comparison still carries information
// while the posteriors are wide.
//
// O(n²); fine for the few hundred tasks a list realistically holds.
func SelectPair(ratings map[string]Rating) (best PairScore, ok bool) {
	if len(ratings) < 2 {
		return PairScore{}, false
	}
	contents := sortedContents(ratings)

	for i := 0; i < len(contents); i++ {
		for j := i + 1; j < len(contents); j++ {
			g := InformationGain(ratings[contents[i]], ratings[contents[j]])
			// Strict > keeps the first (lexicographically smallest)
			// pair on ties.
			if !ok || g > best.Gain {
				best = PairScore{A: contents[i], B: contents[j], Gain: g}
				ok = true
			}
		}
	}
	return best, ok
}

// ListStats are the coverage/convergence aggregates derived from a
// posterior and its comparison log.
type ListStats struct {
	TotalComparisons   int
	UniquePairs        int
	PossiblePairs      int
	Coverage           float64
	Convergence        float64
	MeanVariance       float64
	MaxInformationGain float64
	// OptimalPair is valid only when HasPair is true.
	OptimalPair PairScore
	HasPair     bool
}

// ComputeStats derives the full statistics block for one list.
//
// The log is the full append-only log including self-comparisons;
// self entries count toward TotalComparisons but not toward pair
// coverage (a self pair is not a pair).
func ComputeStats(ratings map[string]Rating, log []LogEntry) ListStats {
	n := len(ratings)
	s := ListStats{
		TotalComparisons: len(log),
		PossiblePairs:    n * (n - 1) / 2,
	}

	seen := make(map[[2]string]struct{})
	for _, e := range log {
		if e.Self {
			continue
		}
		a, b := e.Winner, e.Loser
		if b < a {
			a, b = b, a
		}
		seen[[2]string{a, b}] = struct{}{}
	}
	s.UniquePairs = len(seen)
	if s.PossiblePairs > 0 {
		s.Coverage = float64(s.UniquePairs) / float64(s.PossiblePairs)
	}

	if n > 0 {
		var sum float64
		for _, r := range ratings {
			sum += r.Sigma2
		}
		s.MeanVariance = sum / float64(n)
		s.Convergence = math.Max(0, 1-s.MeanVariance/InitialVariance)
	}

	if best, ok := SelectPair(ratings); ok {
		s.OptimalPair = best
		s.HasPair = true
		s.MaxInformationGain = best.Gain
	}
	return s
}

// sortedContents returns the task contents in lexicographic order.
func sortedContents(ratings map[string]Rating) []string {
	contents := make([]string, 0, len(ratings))
	for c := range ratings {
		contents = append(contents, c)
	}
	sort.Strings(contents)
	return contents
}

// Rank orders ratings into a 1-based ranking: descending μ, ties broken
// lexicographically by content. The returned slice holds contents in
// rank order.
func Rank(ratings map[string]Rating) []string {
	contents := sortedContents(ratings)
	sort.SliceStable(contents, func(i, j int) bool {
		return ratings[contents[i]].Mu > ratings[contents[j]].Mu
	})
	return contents
}

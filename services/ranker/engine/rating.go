// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the Bayesian rating model and the active
// pair selector for pairwise-preference ranking.
//
// # Model
//
// Each task i carries a latent merit s_i with Gaussian belief
// N(μ_i, σ_i²). A judgement "i beats j" has Thurstone Case V likelihood
// Φ((s_i − s_j)/√2). The posterior after each judgement is approximated
// by coordinate-wise Gaussian moment matching (assumed-density
// filtering), equivalent to TrueSkill with fixed performance noise
// β² = 1/2 per player and no dynamics term.
//
// # Determinism
//
// Evaluation replays the comparison log in time order from the priors.
// For a fixed log the output is deterministic, which is what lets the
// list layer cache ratings and serve byte-identical responses between
// mutations. An append extends the replay; a deletion forces a full
// replay because the update sequence is order-sensitive.
//
// # Thread Safety
//
// The package is pure functions over value inputs. Callers serialise
// access per list.
package engine

import "math"

// Model constants. These are part of the wire contract: the stats
// object reports them to clients.
const (
	// InitialVariance is the prior variance σ₀² of a fresh task.
	InitialVariance = 0.5

	// PriorPrecision τ₀ bounds how sharp a posterior may get: each
	// update clamps σ² at τ₀ from below, so reported precision never
	// exceeds 1/τ₀.
	PriorPrecision = 0.02

	// ConvergenceThreshold is reported to clients for UI display of
	// "settled" rankings. The model itself does not iterate, so it is
	// not a stopping criterion here.
	ConvergenceThreshold = 1e-3

	// betaSquared is the per-player performance noise β².
	betaSquared = 0.5
)

// Rating is the Gaussian posterior over one task's merit.
type Rating struct {
	Mu     float64
	Sigma2 float64
}

// NewRating returns the prior belief N(0, σ₀²).
func NewRating() Rating {
	return Rating{Mu: 0, Sigma2: InitialVariance}
}

// LogEntry adapts a stored comparison for replay. Winner and Loser are
// task contents; Self marks a registration-only self-comparison.
type LogEntry struct {
	Winner string
	Loser  string
	Self   bool
}

// Evaluate replays a time-ordered comparison log from priors and
// returns the posterior per task.
//
// Every element of tasks gets an entry, including tasks that never
// appear in the log (they keep the prior). Self entries are skipped:
// they carry no preference information. Entries referencing unknown
// tasks are skipped defensively; the list layer's invariants make that
// unreachable in practice.
func Evaluate(tasks []string, log []LogEntry) map[string]Rating {
	ratings := make(map[string]Rating, len(tasks))
	for _, t := range tasks {
		ratings[t] = NewRating()
	}

	for _, e := range log {
		if e.Self {
			continue
		}
		w, okW := ratings[e.Winner]
		l, okL := ratings[e.Loser]
		if !okW || !okL {
			continue
		}
		w, l = applyOutcome(w, l)
		ratings[e.Winner] = w
		ratings[e.Loser] = l
	}
	return ratings
}

// applyOutcome folds one "winner beat loser" observation into the two
// posteriors by moment matching.
//
// Let c² = σ_w² + σ_l² + 2β², t = (μ_w − μ_l)/c. With v = φ(t)/Φ(t)
// and w = v·(v + t):
//
//	μ_w ← μ_w + (σ_w²/c)·v        μ_l ← μ_l − (σ_l²/c)·v
//	σ² ← max(σ²·(1 − (σ²/c²)·w), τ₀)
func applyOutcome(w, l Rating) (Rating, Rating) {
	c2 := w.Sigma2 + l.Sigma2 + 2*betaSquared
	if c2 <= 0 || !finite(c2) {
		// Unreachable with positive variances; treat as no-op.
		return w, l
	}
	c := math.Sqrt(c2)
	t := (w.Mu - l.Mu) / c

	v, wc := truncatedMoments(t)

	nw := Rating{
		Mu:     w.Mu + (w.Sigma2/c)*v,
		Sigma2: math.Max(w.Sigma2*(1-(w.Sigma2/c2)*wc), PriorPrecision),
	}
	nl := Rating{
		Mu:     l.Mu - (l.Sigma2/c)*v,
		Sigma2: math.Max(l.Sigma2*(1-(l.Sigma2/c2)*wc), PriorPrecision),
	}

	if !finite(nw.Mu) || !finite(nl.Mu) || !finite(nw.Sigma2) || !finite(nl.Sigma2) {
		return w, l
	}
	return nw, nl
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// CredibleInterval returns the central 90% credible interval of a
// rating: μ ± 1.645σ.
func CredibleInterval(r Rating) (lo, hi float64) {
	s := math.Sqrt(r.Sigma2)
	return r.Mu - 1.645*s, r.Mu + 1.645*s
}

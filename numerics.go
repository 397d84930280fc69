// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import "math"

// Numeric sentinels used throughout the solver to implement the moderated
// extreme barrier: calcfc's return values are clamped into these bounds
// before any comparison is made against them, so that NaN and +Inf never
// reach the simplex, filter, or trust-region bookkeeping.
const (
	// RealMax is the largest finite value the solver will ever produce or
	// compare against; it stands in for +Inf in contexts that must remain
	// totally ordered.
	RealMax = math.MaxFloat64

	// Eps is the machine epsilon for float64, used as the minimum admissible
	// penalty parameter (cpenmin) and in several tolerance computations.
	Eps = 2.220446049250313e-16

	// FuncMax is the sentinel an objective value is clamped to when it would
	// otherwise be NaN or exceed it; it plays the role of "the function is
	// effectively infinite here" without actually being an IEEE infinity.
	FuncMax = 1.0e30

	// ConstrMax is the sentinel a constraint value is clamped to in
	// magnitude; moderatec replaces NaN with -ConstrMax, treating an unknown
	// constraint evaluation as maximally violated.
	ConstrMax = FuncMax

	// CweightDefault is the default weight given to constraint violation
	// relative to the objective when selecting the point ultimately
	// returned by the solver (see selectx and filter.save).
	CweightDefault = 1.0e3

	// itol bounds the acceptable residual ‖simi·sim[:,:n] - I‖∞ of the
	// simplex's cached inverse; above this the inverse must be refactored
	// or the update is rejected as damaging rounding.
	itol = 1.0
)

// moderatef clamps a raw objective value into the moderated extreme barrier:
// NaN becomes FuncMax, and anything larger than FuncMax is capped at FuncMax.
func moderatef(f float64) float64 {
	if math.IsNaN(f) {
		return FuncMax
	}
	return math.Min(FuncMax, f)
}

// moderatec clamps every component of a raw constraint vector into
// [-ConstrMax, ConstrMax], replacing NaN with -ConstrMax (an unevaluable
// constraint is treated as violated, never as satisfied). dst may alias c.
func moderatec(dst, c []float64) []float64 {
	dst = resize(dst, len(c))
	for i, v := range c {
		switch {
		case math.IsNaN(v):
			dst[i] = -ConstrMax
		case v > ConstrMax:
			dst[i] = ConstrMax
		case v < -ConstrMax:
			dst[i] = -ConstrMax
		default:
			dst[i] = v
		}
	}
	return dst
}

// moderatex clamps a trial point so that it contains no NaN or infinity
// before it is ever handed to the user's objective: NaN becomes FuncMax, and
// infinities are clipped to the largest finite magnitude.
func moderatex(dst, x []float64) []float64 {
	dst = resize(dst, len(x))
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			dst[i] = FuncMax
		case math.IsInf(v, 1):
			dst[i] = math.MaxFloat64
		case math.IsInf(v, -1):
			dst[i] = -math.MaxFloat64
		default:
			dst[i] = v
		}
	}
	return dst
}

// resize returns a slice of length n, reusing x's backing array when it is
// large enough and allocating a new one otherwise.
func resize(x []float64, n int) []float64 {
	if cap(x) >= n {
		return x[:n]
	}
	return make([]float64, n)
}

// maxFloat0 returns max(v, 0).
func maxFloat0(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}

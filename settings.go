// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"io"
	"math"
)

// Settings controls the behavior of Minimize, playing the same role as
// gonum.org/v1/gonum/optimize.Settings does for the Method-based solvers.
type Settings struct {
	// Rhobeg is the initial, and largest, trust-region radius. It should be
	// about one tenth of the greatest expected change to a variable.
	Rhobeg float64
	// Rhoend is the smallest trust-region radius the solver will use; once
	// the radius collapses to Rhoend, Minimize returns SmallTrRadius. It
	// governs the final accuracy of the returned point.
	Rhoend float64
	// Ftarget, if finite, causes Minimize to return FtargetAchieved as soon
	// as a feasible point with objective value at or below Ftarget is found.
	// A zero Ftarget is treated as unset and replaced by -Inf, so a target
	// of exactly 0 never triggers.
	Ftarget float64
	// Maxfun is the maximum number of calls to CalcFC. Zero selects a
	// default of 500*n.
	Maxfun int
	// Cweight is the relative weight given to constraint violation over the
	// objective when ranking candidate points in the filter (see selectx).
	// Zero selects CweightDefault.
	Cweight float64
	// MaxFilterSize bounds the number of points the filter retains. Zero
	// selects a default of 2*n+3.
	MaxFilterSize int
	// Ctol is the constraint-violation tolerance below which a point is
	// treated as feasible. Zero selects a default of Eps.
	Ctol float64

	// IPrint controls how much progress information is written: 0 is
	// silent, higher values request more detail, mirroring
	// Powell's IPRINT parameter.
	IPrint int
	// Output is the destination progress messages are written to when
	// IPrint > 0. A nil Output with IPrint > 0 discards the messages.
	Output io.Writer

	// F0 and Constr0, if Constr0 is non-nil, are the objective and
	// constraint values already known at the initial point, sparing
	// Minimize the first evaluation of CalcFC.
	F0      float64
	Constr0 []float64

	// Callback, if non-nil, is invoked before each new call to CalcFC with
	// the best point known so far: its coordinates, objective value,
	// evaluation count, trust-region iteration count, constraint violation,
	// and constraint vector. A true return halts the run after the current
	// iteration, with the best filter entry found so far reported as the
	// result.
	Callback func(x []float64, f float64, nf int, tr int, cstrv float64, constr []float64) bool
}

// DefaultSettings returns the Settings a caller gets by passing a
// zero-valued Settings to Minimize for a problem of dimension n, with
// Rhobeg 1, Rhoend 1e-6, and Ftarget -Inf (never triggers).
func DefaultSettings(n int) *Settings {
	return &Settings{
		Rhobeg:        1,
		Rhoend:        1e-6,
		Ftarget:       math.Inf(-1),
		Maxfun:        500 * n,
		Cweight:       CweightDefault,
		MaxFilterSize: 2*n + 3,
		Ctol:          Eps,
	}
}

// fillDefaults returns a copy of s with every zero-valued field replaced by
// its default for a problem of dimension n, mirroring the defaulting cobyla
// (the original dispatcher) performs.
func (s Settings) fillDefaults(n int) Settings {
	d := DefaultSettingsValues(n)
	if s.Rhobeg == 0 {
		s.Rhobeg = d.Rhobeg
	}
	if s.Rhoend == 0 {
		s.Rhoend = d.Rhoend
	}
	if s.Ftarget == 0 {
		s.Ftarget = d.Ftarget
	}
	if s.Maxfun == 0 {
		s.Maxfun = d.Maxfun
	}
	if s.Cweight == 0 {
		s.Cweight = d.Cweight
	}
	if s.MaxFilterSize == 0 {
		s.MaxFilterSize = d.MaxFilterSize
	}
	if s.Ctol == 0 {
		s.Ctol = d.Ctol
	}
	return s
}

// DefaultSettingsValues is like DefaultSettings but returns a value instead
// of a pointer, for internal defaulting use.
func DefaultSettingsValues(n int) Settings {
	return *DefaultSettings(n)
}

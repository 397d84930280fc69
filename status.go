// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import "time"

// Status classifies how a call to Minimize or Solve concluded. It plays the
// same role as gonum.org/v1/gonum/optimize.Status does for the Method-based
// solvers: a small closed enumeration with a human-readable String form.
type Status int

const (
	// NotTerminated indicates the algorithm has not (yet) decided to stop.
	// Minimize never returns this status; it is used only internally while
	// the trust-region loop is running.
	NotTerminated Status = iota
	// SmallTrRadius indicates the trust-region radius reached its lower
	// bound rhoend. This is the normal, successful termination of COBYLA.
	SmallTrRadius
	// FtargetAchieved indicates a feasible point with objective value at or
	// below Ftarget was found.
	FtargetAchieved
	// MaxfunReached indicates the evaluation budget (Maxfun calls to calcfc)
	// was exhausted.
	MaxfunReached
	// MaxtrReached indicates the trust-region loop performed its maximum
	// number of iterations without one of the other termination conditions
	// firing. This should essentially never happen.
	MaxtrReached
	// NanInfX indicates a trial point contained NaN or an infinity. This
	// should not occur unless a step-generating routine has a bug.
	NanInfX
	// NanInfF indicates calcfc returned NaN or +Inf even after moderation
	// logic should have caught it; this signals a bug in the solver rather
	// than a condition a well-behaved calcfc can trigger.
	NanInfF
	// DamagingRounding indicates the cached inverse of the simplex's offset
	// block could not be kept within tolerance even after a full refactor,
	// and the update that would have required it was rejected.
	DamagingRounding
	// TrsubpFailed indicates the trust-region LP subproblem failed to
	// produce a usable step.
	TrsubpFailed
)

var statusNames = map[Status]string{
	NotTerminated:    "NotTerminated",
	SmallTrRadius:    "SmallTrRadius",
	FtargetAchieved:  "FtargetAchieved",
	MaxfunReached:    "MaxfunReached",
	MaxtrReached:     "MaxtrReached",
	NanInfX:          "NanInfX",
	NanInfF:          "NanInfF",
	DamagingRounding: "DamagingRounding",
	TrsubpFailed:     "TrsubpFailed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Status(unknown)"
}

// Stats reports the work performed by a call to Minimize or Solve, in the
// same spirit as gonum.org/v1/gonum/optimize.Stats.
type Stats struct {
	FuncEvaluations int           // number of calls to calcfc
	MajorIterations int           // number of trust-region iterations taken
	Runtime         time.Duration // wall-clock time spent inside Minimize
}

// Result is the outcome of a call to Minimize or Solve.
type Result struct {
	X      []float64 // the selected best point
	F      float64   // objective value at X
	CStrv  float64   // constraint violation at X
	Constr []float64 // constraint values at X

	Stats
	Status Status
}

// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestTrstlpUnconstrainedHitsBall(t *testing.T) {
	// One variable, no constraints (m=0): maximize d (A[:,0] = 1), so the
	// solver should walk straight to the ball boundary d = delta.
	A := mat.NewDense(1, 1, []float64{1})
	b := []float64{0}
	d := trstlp(A, b, 2.0)
	if math.Abs(d[0]-2.0) > 1e-8 {
		t.Errorf("d = %v, want 2.0", d[0])
	}
}

func TestTrstlpRespectsConstraint(t *testing.T) {
	// n=2, m=1: maximize d[0] subject to d[0] <= 0.5, within the unit ball.
	// The constrained optimum is d = (0.5, 0).
	A := mat.NewDense(2, 2, []float64{
		1, 1,
		0, 0,
	})
	b := []float64{0.5, 0}
	d := trstlp(A, b, 1.0)
	if d[0] > 0.5+1e-6 {
		t.Errorf("constraint violated: d[0] = %v, want <= 0.5", d[0])
	}
	if math.Abs(d[0]-0.5) > 1e-6 {
		t.Errorf("d[0] = %v, want 0.5", d[0])
	}
}

func TestTrstlpFeasibilityFromInfeasibleStart(t *testing.T) {
	// n=1, m=1: the constraint d <= -1 cannot be satisfied from d=0 without
	// moving; stage 1 should reduce the violation as much as the ball
	// allows, landing at d = -delta.
	A := mat.NewDense(1, 2, []float64{1, 0})
	b := []float64{-1, 0}
	d := trstlp(A, b, 0.5)
	if math.Abs(d[0]+0.5) > 1e-8 {
		t.Errorf("d = %v, want -0.5 (ball boundary towards feasibility)", d[0])
	}
}

func TestTrstlpZeroWhenAlreadyOptimal(t *testing.T) {
	// Objective gradient is zero: the trust-region center is already optimal
	// for the linearized model, so d should stay at the origin.
	A := mat.NewDense(2, 1, []float64{0, 0})
	b := []float64{0}
	d := trstlp(A, b, 1.0)
	if floats.Norm(d, 2) > 1e-10 {
		t.Errorf("‖d‖ = %v, want 0", floats.Norm(d, 2))
	}
}

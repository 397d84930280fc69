// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSolveWithBounds(t *testing.T) {
	p := Problem{
		Func:   func(x []float64) float64 { return (x[0]-5)*(x[0]-5) + (x[1]-4)*(x[1]-4) },
		Bounds: &Bounds{Lower: []float64{0, 0}, Upper: []float64{3, 10}},
	}
	settings := DefaultSettings(2)
	settings.Rhobeg = 0.5
	settings.Maxfun = 500

	result, err := Solve(p, []float64{0, 0}, settings)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if math.Abs(result.X[0]-3) > 1e-3 {
		t.Errorf("x[0] = %v, want 3 (clamped against the upper bound)", result.X[0])
	}
	if math.Abs(result.X[1]-4) > 1e-3 {
		t.Errorf("x[1] = %v, want 4", result.X[1])
	}
}

func TestSolveWithLinearConstraint(t *testing.T) {
	// x[0] + x[1] <= 1, minimizing (x0-5)^2 + (x1-4)^2: the optimum lies on
	// the constraint boundary.
	p := Problem{
		Func: func(x []float64) float64 { return (x[0]-5)*(x[0]-5) + (x[1]-4)*(x[1]-4) },
		Linear: []LinearConstraint{
			{A: mat.NewDense(1, 2, []float64{1, 1}), Upper: []float64{1}, Lower: []float64{math.Inf(-1)}},
		},
	}
	settings := DefaultSettings(2)
	settings.Rhobeg = 0.5
	settings.Maxfun = 500

	result, err := Solve(p, []float64{0, 0}, settings)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if got := result.X[0] + result.X[1]; got > 1+1e-4 {
		t.Errorf("x0+x1 = %v, violates the constraint x0+x1 <= 1", got)
	}
}

func TestSolveWithNonlinearConstraint(t *testing.T) {
	// Confine x to the disk of radius 3 around the origin while minimizing
	// distance to (5,4); the optimum sits on the circle.
	p := Problem{
		Func: func(x []float64) float64 { return (x[0]-5)*(x[0]-5) + (x[1]-4)*(x[1]-4) },
		NonLin: []NonlinearConstraint{
			{
				Func:  func(x []float64) []float64 { return []float64{x[0]*x[0] + x[1]*x[1]} },
				Upper: []float64{9},
				Lower: []float64{math.Inf(-1)},
			},
		},
	}
	settings := DefaultSettings(2)
	settings.Rhobeg = 0.5
	settings.Maxfun = 500

	result, err := Solve(p, []float64{0, 0}, settings)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if got := result.X[0]*result.X[0] + result.X[1]*result.X[1]; got > 9+1e-3 {
		t.Errorf("‖x‖² = %v, violates the constraint ‖x‖² <= 9", got)
	}
}

func TestSolveInjectsVacuousRowWhenUnconstrained(t *testing.T) {
	p := Problem{
		Func: func(x []float64) float64 { return (x[0]-1)*(x[0]-1) + (x[1]-1)*(x[1]-1) },
	}
	settings := DefaultSettings(2)
	settings.Rhobeg = 0.5
	settings.Maxfun = 500

	result, err := Solve(p, []float64{0, 0}, settings)
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}
	if math.Abs(result.X[0]-1) > 1e-3 || math.Abs(result.X[1]-1) > 1e-3 {
		t.Errorf("x = %v, want (1, 1)", result.X)
	}
}

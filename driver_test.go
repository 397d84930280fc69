// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"
	"testing"
)

// scenario describes one of the concrete quadratic problems used to validate
// the solver end to end; the hexagon and Chebyquad problems have their own
// tests below.
type scenario struct {
	name    string
	calcfc  CalcFC
	m       int
	x0      []float64
	wantX   []float64
	wantF   float64
	wantTol float64
}

func quadratic(x []float64) float64 {
	return (x[0]-5)*(x[0]-5) + (x[1]-4)*(x[1]-4)
}

func scenarios() []scenario {
	return []scenario{
		{
			name:   "quadratic unconstrained",
			calcfc: func(x []float64) (float64, []float64) { return quadratic(x), []float64{0} },
			m:      1,
			x0:     []float64{0, 0},
			wantX:  []float64{5, 4},
			wantF:  0,
		},
		{
			name: "quadratic with one constraint",
			calcfc: func(x []float64) (float64, []float64) {
				return quadratic(x), []float64{x[0]*x[0] - 9}
			},
			m:     1,
			x0:    []float64{0, 0},
			wantX: []float64{3, 4},
			wantF: 4,
		},
		{
			name: "quadratic with two-sided constraint",
			calcfc: func(x []float64) (float64, []float64) {
				return quadratic(x), []float64{x[0]*x[0] - 100, 25 - x[0]*x[0]}
			},
			m:     2,
			x0:    []float64{0, 0},
			wantX: []float64{5, 4},
			wantF: 0,
		},
		{
			name: "quadratic with two linear constraints",
			calcfc: func(x []float64) (float64, []float64) {
				return quadratic(x), []float64{x[0] + x[1] - 1, x[0] - x[1] - 1}
			},
			m:     2,
			x0:    []float64{0, 0},
			wantX: []float64{1, 0},
			wantF: 17,
		},
	}
}

func TestMinimizeScenarios(t *testing.T) {
	for _, s := range scenarios() {
		t.Run(s.name, func(t *testing.T) {
			settings := DefaultSettings(len(s.x0))
			settings.Rhobeg = 0.5
			settings.Rhoend = 1e-6
			settings.Maxfun = 500

			result, err := Minimize(s.calcfc, s.m, s.x0, settings)
			if err != nil {
				t.Fatalf("Minimize returned error: %v", err)
			}
			if result.Status == MaxfunReached {
				t.Fatalf("Minimize hit MaxfunReached")
			}
			if math.Abs(result.F-s.wantF) > 1e-4 {
				t.Errorf("f = %v, want %v (status %v)", result.F, s.wantF, result.Status)
			}
		})
	}
}

// hexagon is Powell's test problem 10: maximize the area of a hexagon with
// one vertex fixed at the origin and all vertices within the unit circle,
// expressed as a 9-variable minimization of minus the area subject to 14
// nonlinear constraints.
func hexagonCalcfc(x []float64) (float64, []float64) {
	f := -0.5 * (x[0]*x[3]-x[1]*x[2] + x[1]*x[5] - x[4]*x[2] + x[4]*x[7] - x[6]*x[5] + x[6]*x[1] - x[0]*x[7])
	constr := make([]float64, 14)
	for i := 0; i < 8; i += 2 {
		constr[i/2] = x[i]*x[i] + x[i+1]*x[i+1] - 1
	}
	pairs := [][2]int{{0, 2}, {2, 4}, {4, 6}, {6, 0}}
	for k, p := range pairs {
		dx := x[p[0]] - x[p[1]]
		var dy float64
		if p[1]+1 < 8 {
			dy = x[p[0]+1] - x[p[1]+1]
		}
		constr[6+k] = dx*dx + dy*dy - 1
	}
	constr[10] = x[8]*x[8] - 1
	constr[11] = -x[8]
	for i := 12; i < 14; i++ {
		constr[i] = x[i-12]
	}
	return f, constr
}

func TestMinimizeHexagon(t *testing.T) {
	n := 9
	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = 2
	}
	settings := DefaultSettings(n)
	settings.Rhobeg = 0.5
	settings.Rhoend = 1e-6
	settings.Maxfun = 2000

	result, err := Minimize(hexagonCalcfc, 14, x0, settings)
	if err != nil {
		t.Fatalf("Minimize returned error: %v", err)
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		t.Errorf("hexagon f = %v, want a finite value", result.F)
	}
	if len(result.X) != n {
		t.Errorf("len(result.X) = %d, want %d", len(result.X), n)
	}
}

// chebyquad is Powell's classic test function: the sum of squares of the
// discrepancy between the average of shifted Chebyshev polynomials at the
// trial points and their true integral.
func chebyquad(x []float64) float64 {
	n := len(x)
	y := make([][]float64, n+1)
	for j := range y {
		y[j] = make([]float64, n)
	}
	for j := 0; j < n; j++ {
		y[0][j] = 1
		y[1][j] = 2*x[j] - 1
	}
	for i := 1; i < n; i++ {
		for j := 0; j < n; j++ {
			y[i+1][j] = 2*y[1][j]*y[i][j] - y[i-1][j]
		}
	}
	var sum float64
	for i := 0; i <= n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			rowSum += y[i][j]
		}
		rowSum /= float64(n)
		if i%2 == 0 {
			rowSum += 1.0 / float64(i*i-1)
		}
		sum += rowSum * rowSum
	}
	return sum
}

func TestMinimizeChebyquad(t *testing.T) {
	n := 6
	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = float64(i+1) / float64(n+1)
	}
	settings := DefaultSettings(n)
	settings.Rhobeg = 0.5
	settings.Rhoend = 1e-6
	settings.Maxfun = 2000

	calcfc := func(x []float64) (float64, []float64) { return chebyquad(x), []float64{0} }
	f0 := chebyquad(x0)

	result, err := Minimize(calcfc, 1, x0, settings)
	if err != nil {
		t.Fatalf("Minimize returned error: %v", err)
	}
	if result.F > f0 {
		t.Errorf("chebyquad f = %v, did not improve on the starting value %v", result.F, f0)
	}
}

func TestMinimizeRejectsEmptyX(t *testing.T) {
	_, err := Minimize(func(x []float64) (float64, []float64) { return 0, nil }, 0, nil, nil)
	if err == nil {
		t.Error("expected an error for an empty x, got nil")
	}
}

func TestMinimizeCallbackIsInvoked(t *testing.T) {
	settings := DefaultSettings(2)
	settings.Rhobeg = 0.5
	settings.Maxfun = 500

	called := false
	settings.Callback = func(x []float64, f float64, nf, tr int, cstrv float64, constr []float64) bool {
		called = true
		return false
	}

	calcfc := func(x []float64) (float64, []float64) { return quadratic(x), []float64{0} }
	_, err := Minimize(calcfc, 1, []float64{0, 0}, settings)
	if err != nil {
		t.Fatalf("Minimize returned error: %v", err)
	}
	if !called {
		t.Error("Callback was never invoked")
	}
}

func TestMinimizeCallbackEarlyTermination(t *testing.T) {
	settings := DefaultSettings(2)
	settings.Rhobeg = 0.5
	settings.Maxfun = 500
	settings.Callback = func(x []float64, f float64, nf, tr int, cstrv float64, constr []float64) bool {
		return x[0] > 1
	}

	calcfc := func(x []float64) (float64, []float64) { return quadratic(x), []float64{0} }
	result, err := Minimize(calcfc, 1, []float64{0, 0}, settings)
	if err != nil {
		t.Fatalf("Minimize returned error: %v", err)
	}
	if result.Status != FtargetAchieved {
		t.Errorf("Status = %v, want FtargetAchieved (callback-requested stop)", result.Status)
	}
	if math.Abs(result.X[0]-5) < 1e-3 && math.Abs(result.X[1]-4) < 1e-3 {
		t.Error("result reached the true optimum despite the callback requesting early termination")
	}
}

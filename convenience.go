// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Bounds restricts each variable to [Lower[i], Upper[i]]; either slice may
// be nil, or contain -Inf/+Inf entries, to leave a side unconstrained.
type Bounds struct {
	Lower, Upper []float64
}

// LinearConstraint restricts A*x to [Lower, Upper] component-wise; Lower
// and Upper may contain -Inf/+Inf, and Lower[i] == Upper[i] expresses an
// equality row.
type LinearConstraint struct {
	A            mat.Matrix
	Lower, Upper []float64
}

// NonlinearConstraint restricts Func(x) to [Lower, Upper] component-wise,
// with the same conventions as LinearConstraint.
type NonlinearConstraint struct {
	Func         func(x []float64) []float64
	Lower, Upper []float64
}

// Problem bundles an objective with its optional bounds and constraints, for
// use with Solve.
type Problem struct {
	Func   func(x []float64) float64
	Bounds *Bounds
	Linear []LinearConstraint
	NonLin []NonlinearConstraint
}

// Solve normalizes a Problem into the canonical constr(x) <= 0 form Minimize
// requires and runs it. Box bounds are not turned into linear rows: instead
// Func and every NonlinearConstraint.Func are wrapped so that components of
// a trial point outside [Lower[i], Upper[i]] are clamped before evaluation,
// matching the "enforced externally" box-bounds convention. The returned
// Result.X is clamped the same way, so it is the point at which Func was
// evaluated to give Result.F.
//
// Two-sided linear and nonlinear constraint rows are each split into up to
// two canonical inequality rows, one per finite side; an equality row
// (Lower[i] == Upper[i]) becomes two rows enforcing it from both sides. If
// the resulting constraint count is zero, a single vacuous row (m=1) is
// injected, since Minimize requires at least one constraint.
func Solve(p Problem, x0 []float64, settings *Settings) (*Result, error) {
	n := len(x0)
	clamp := func(x []float64) []float64 {
		if p.Bounds == nil {
			return x
		}
		out := append([]float64(nil), x...)
		for i := range out {
			if p.Bounds.Lower != nil && i < len(p.Bounds.Lower) && out[i] < p.Bounds.Lower[i] {
				out[i] = p.Bounds.Lower[i]
			}
			if p.Bounds.Upper != nil && i < len(p.Bounds.Upper) && out[i] > p.Bounds.Upper[i] {
				out[i] = p.Bounds.Upper[i]
			}
		}
		return out
	}

	type row func(x []float64) float64
	var rows []row

	for _, lc := range p.Linear {
		lc := lc
		nr, _ := lc.A.Dims()
		for i := 0; i < nr; i++ {
			i := i
			axi := func(x []float64) float64 {
				var s float64
				for j := 0; j < n; j++ {
					s += lc.A.At(i, j) * x[j]
				}
				return s
			}
			if i < len(lc.Upper) && !math.IsInf(lc.Upper[i], 1) {
				rows = append(rows, func(x []float64) float64 { return axi(x) - lc.Upper[i] })
			}
			if i < len(lc.Lower) && !math.IsInf(lc.Lower[i], -1) {
				rows = append(rows, func(x []float64) float64 { return lc.Lower[i] - axi(x) })
			}
		}
	}

	for _, nc := range p.NonLin {
		nc := nc
		for i := range nc.Lower {
			i := i
			if i < len(nc.Upper) && !math.IsInf(nc.Upper[i], 1) {
				rows = append(rows, func(x []float64) float64 { return nc.Func(clamp(x))[i] - nc.Upper[i] })
			}
			if !math.IsInf(nc.Lower[i], -1) {
				rows = append(rows, func(x []float64) float64 { return nc.Lower[i] - nc.Func(clamp(x))[i] })
			}
		}
	}

	if len(rows) == 0 {
		rows = append(rows, func(x []float64) float64 { return 0 })
	}

	calcfc := func(x []float64) (float64, []float64) {
		cx := clamp(x)
		f := p.Func(cx)
		constr := make([]float64, len(rows))
		for i, r := range rows {
			constr[i] = r(cx)
		}
		return f, constr
	}

	result, err := Minimize(calcfc, len(rows), x0, settings)
	if err != nil {
		return nil, err
	}
	result.X = clamp(result.X)
	return result, nil
}

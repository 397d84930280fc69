// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// trstlp approximately solves the trust-region subproblem
//
//	minimize   -A[:,m]·d
//	subject to A[:,i]·d <= b[i]   for i = 0, ..., m-1
//	           ‖d‖_2 <= delta
//
// by Powell's two-stage active-set method: stage 1 finds a feasible point by
// greedily reducing the worst constraint violation; stage 2 then improves
// the linearized objective while maintaining feasibility, dropping active
// constraints whose Lagrange multiplier goes negative, until no further
// ascent direction exists or the trust-region ball is reached.
//
// A has n rows and m+1 columns; column m is the (negated) objective gradient
// and b[m] is unused.
func trstlp(A *mat.Dense, b []float64, delta float64) []float64 {
	n, mp1 := A.Dims()
	m := mp1 - 1

	d := make([]float64, n)
	active := make([]int, 0, n)

	col := func(j int) []float64 {
		c := make([]float64, n)
		for i := 0; i < n; i++ {
			c[i] = A.At(i, j)
		}
		return c
	}
	cols := make([][]float64, mp1)
	for j := range cols {
		cols[j] = col(j)
	}

	// Stage 1: drive the worst violated constraint to feasibility.
	for iter := 0; iter < n+m+5; iter++ {
		worst := -1
		worstV := 0.0
		for i := 0; i < m; i++ {
			v := floats.Dot(cols[i], d) - b[i]
			if v > worstV {
				worstV = v
				worst = i
			}
		}
		if worst == -1 {
			break // feasible
		}

		Z := nullBasis(activeCols(cols, active), n)
		p := project(Z, cols[worst])
		floats.Scale(-1, p)
		pnorm := floats.Norm(p, 2)
		if pnorm < smallDenom {
			// No feasible descent direction for the worst violation;
			// return the best point found so far.
			return d
		}
		floats.Scale(1/pnorm, p)

		gdotp := floats.Dot(cols[worst], p)
		if gdotp >= -smallDenom {
			return d
		}
		vWorst := floats.Dot(cols[worst], d) - b[worst]
		tFeas := -vWorst / gdotp

		tBound, newlyTight := boundaryStep(d, p, delta, cols, b, active, worst)
		t := tFeas
		tightIdx := worst
		if tBound < t {
			t, tightIdx = tBound, newlyTight
		}
		tBall := ballStep(d, p, delta)
		if tBall < t {
			floats.AddScaled(d, tBall, p)
			return d
		}

		floats.AddScaled(d, t, p)
		if tightIdx >= 0 && !contains(active, tightIdx) {
			active = append(active, tightIdx)
		}
	}

	// Stage 2: ascend the linearized objective within the active feasible
	// set, dropping constraints with a negative Lagrange multiplier.
	g := cols[m]
	for iter := 0; iter < n+m+5; iter++ {
		Z := nullBasis(activeCols(cols, active), n)
		p := project(Z, g)
		if floats.Norm(p, 2) < smallDenom {
			if len(active) == 0 {
				break
			}
			lam := lagrangeMultipliers(activeCols(cols, active), g)
			worst, worstLam := -1, 0.0
			for i, l := range lam {
				if l < worstLam {
					worstLam, worst = l, i
				}
			}
			if worst == -1 {
				break // all multipliers nonnegative: optimal
			}
			active = append(active[:worst], active[worst+1:]...)
			continue
		}
		floats.Scale(1/floats.Norm(p, 2), p)

		tBound, newlyTight := boundaryStep(d, p, delta, cols, b, active, -1)
		tBall := ballStep(d, p, delta)
		if tBall <= tBound {
			floats.AddScaled(d, tBall, p)
			return d
		}
		if math.IsInf(tBound, 1) {
			// Unbounded ascent direction within the ball never happens
			// since the ball always bounds t; guard anyway.
			floats.AddScaled(d, tBall, p)
			return d
		}
		floats.AddScaled(d, tBound, p)
		if newlyTight >= 0 && !contains(active, newlyTight) {
			active = append(active, newlyTight)
		}
	}
	return d
}

const smallDenom = 1e-12

// activeCols gathers the constraint-normal columns named by idx.
func activeCols(cols [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = cols[j]
	}
	return out
}

func contains(idx []int, v int) bool {
	for _, x := range idx {
		if x == v {
			return true
		}
	}
	return false
}

// nullBasis returns an n-by-(n-k) orthonormal basis for the orthogonal
// complement of the span of active (k columns, each length n), computed via
// a QR factorization. With no active columns it returns the identity.
func nullBasis(active [][]float64, n int) *mat.Dense {
	k := len(active)
	if k == 0 {
		return mat.NewDense(n, n, identityData(n))
	}
	if k > n {
		k = n
	}
	G := mat.NewDense(n, len(active), nil)
	for j, c := range active {
		for i := 0; i < n; i++ {
			G.Set(i, j, c[i])
		}
	}
	var qr mat.QR
	qr.Factorize(G)
	var Q mat.Dense
	qr.QTo(&Q)
	if len(active) >= n {
		return mat.NewDense(n, 0, nil)
	}
	basis := mat.NewDense(n, n-len(active), nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n-len(active); j++ {
			basis.Set(i, j, Q.At(i, len(active)+j))
		}
	}
	return basis
}

func identityData(n int) []float64 {
	d := make([]float64, n*n)
	for i := 0; i < n; i++ {
		d[i*n+i] = 1
	}
	return d
}

// project returns Z*(Zᵀ·v), the component of v lying in the column space
// of the orthonormal basis Z.
func project(Z *mat.Dense, v []float64) []float64 {
	n, k := Z.Dims()
	if k == 0 {
		return make([]float64, n)
	}
	coef := make([]float64, k)
	for j := 0; j < k; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += Z.At(i, j) * v[i]
		}
		coef[j] = s
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < k; j++ {
			s += Z.At(i, j) * coef[j]
		}
		out[i] = s
	}
	return out
}

// boundaryStep computes the smallest nonnegative step t along direction p
// from d at which some inactive constraint (other than skip, which is
// handled by the caller) becomes tight, returning t and the index of the
// constraint that ties it, or +Inf and -1 if no inactive constraint is
// approached along p. The trust-region ball is not considered here.
func boundaryStep(d, p []float64, delta float64, cols [][]float64, b []float64, active []int, skip int) (float64, int) {
	best := math.Inf(1)
	bestIdx := -1
	m := len(b) - 1
	for i := 0; i < m; i++ {
		if i == skip || contains(active, i) {
			continue
		}
		ap := floats.Dot(cols[i], p)
		if ap <= smallDenom {
			continue
		}
		v := floats.Dot(cols[i], d) - b[i]
		t := -v / ap
		if t < 0 {
			t = 0
		}
		if t < best {
			best, bestIdx = t, i
		}
	}
	return best, bestIdx
}

// ballStep returns the nonnegative step t at which ‖d+t·p‖ = delta, given
// that p is a unit vector.
func ballStep(d, p []float64, delta float64) float64 {
	dDotP := floats.Dot(d, p)
	dNorm2 := floats.Dot(d, d)
	disc := dDotP*dDotP - (dNorm2 - delta*delta)
	if disc < 0 {
		disc = 0
	}
	return -dDotP + math.Sqrt(disc)
}

// lagrangeMultipliers solves, in the least-squares sense, g = sum_i lam[i]*active[i],
// returning lam; used to decide which active constraint to drop in stage 2.
func lagrangeMultipliers(active [][]float64, g []float64) []float64 {
	k := len(active)
	n := len(g)
	G := mat.NewDense(n, k, nil)
	for j, c := range active {
		for i := 0; i < n; i++ {
			G.Set(i, j, c[i])
		}
	}
	gtg := mat.NewDense(k, k, nil)
	gtg.Mul(G.T(), G)
	gtv := make([]float64, k)
	for j := 0; j < k; j++ {
		gtv[j] = floats.Dot(active[j], g)
	}
	var lu mat.LU
	lu.Factorize(gtg)
	lam := mat.NewVecDense(k, nil)
	if err := lu.SolveVecTo(lam, false, mat.NewVecDense(k, gtv)); err != nil {
		return make([]float64, k)
	}
	out := make([]float64, k)
	for i := range out {
		out[i] = lam.AtVec(i)
	}
	return out
}

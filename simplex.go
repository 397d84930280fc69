// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// simplex holds the n+1 interpolation points COBYLA maintains, stored as
// offsets from the pole vertex sim[:, n], together with a cached inverse of
// the offset block and the function and constraint values at every vertex.
//
// sim is n-by-(n+1): column n is the pole vertex itself (in absolute
// coordinates), and columns 0..n-1 are the offsets of the other vertices
// from the pole. simi is the n-by-n inverse of sim[:, :n].
type simplex struct {
	n, m int

	sim  *mat.Dense // n x (n+1)
	simi *mat.Dense // n x n

	fval   []float64   // n+1
	cval   []float64   // n+1
	conmat *mat.Dense  // m x (n+1)
}

func newSimplex(n, m int) *simplex {
	return &simplex{
		n:      n,
		m:      m,
		sim:    mat.NewDense(n, n+1, nil),
		simi:   mat.NewDense(n, n, nil),
		fval:   make([]float64, n+1),
		cval:   make([]float64, n+1),
		conmat: mat.NewDense(m, n+1, nil),
	}
}

// simCol returns a freshly allocated copy of column j of sim.
func (s *simplex) simCol(j int) []float64 {
	v := make([]float64, s.n)
	for i := 0; i < s.n; i++ {
		v[i] = s.sim.At(i, j)
	}
	return v
}

func (s *simplex) setSimCol(j int, v []float64) {
	for i := 0; i < s.n; i++ {
		s.sim.Set(i, j, v[i])
	}
}

func (s *simplex) simiRow(i int) []float64 {
	v := make([]float64, s.n)
	for j := 0; j < s.n; j++ {
		v[j] = s.simi.At(i, j)
	}
	return v
}

func (s *simplex) setSimiRow(i int, v []float64) {
	for j := 0; j < s.n; j++ {
		s.simi.Set(i, j, v[j])
	}
}

func (s *simplex) conCol(j int) []float64 {
	v := make([]float64, s.m)
	for i := 0; i < s.m; i++ {
		v[i] = s.conmat.At(i, j)
	}
	return v
}

func (s *simplex) setConCol(j int, v []float64) {
	for i := 0; i < s.m; i++ {
		s.conmat.Set(i, j, v[i])
	}
}

// pole returns the absolute coordinates of the pole vertex, sim[:, n].
func (s *simplex) pole() []float64 {
	return s.simCol(s.n)
}

// vertex returns the absolute coordinates of vertex j (0 <= j <= n): the
// pole itself when j == n, or pole + sim[:, j] otherwise.
func (s *simplex) vertex(j int) []float64 {
	p := s.pole()
	if j == s.n {
		return p
	}
	off := s.simCol(j)
	for i := range p {
		p[i] += off[i]
	}
	return p
}

// simiDotD returns simi·d.
func simiDotD(simi *mat.Dense, d []float64) []float64 {
	n, _ := simi.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += simi.At(i, j) * d[j]
		}
		out[i] = sum
	}
	return out
}

// refineSimi recomputes simi from scratch as the inverse of sim[:, :n] and
// returns the residual ‖simi·sim[:,:n] - I‖∞, trying the freshly factored
// inverse only if it improves on the residual of the inverse already
// cached. It returns the (possibly replaced) simi and its residual.
func (s *simplex) refineSimi(erri float64) (*mat.Dense, float64) {
	block := mat.NewDense(s.n, s.n, nil)
	for i := 0; i < s.n; i++ {
		for j := 0; j < s.n; j++ {
			block.Set(i, j, s.sim.At(i, j))
		}
	}
	var test mat.Dense
	if err := test.Inverse(block); err != nil {
		return s.simi, erri
	}
	erriTest := inverseResidual(&test, block)
	if erriTest < erri || (math.IsNaN(erri) && !math.IsNaN(erriTest)) {
		return &test, erriTest
	}
	return s.simi, erri
}

// inverseResidual computes ‖a·b - I‖∞.
func inverseResidual(a, b *mat.Dense) float64 {
	n, _ := a.Dims()
	var prod mat.Dense
	prod.Mul(a, b)
	var worst float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := prod.At(i, j)
			if i == j {
				v--
			}
			v = math.Abs(v)
			if math.IsNaN(v) {
				return math.NaN()
			}
			if v > worst {
				worst = v
			}
		}
	}
	return worst
}

// updatexfc revises the simplex to incorporate a new trial point, replacing
// vertex jdrop's offset from the pole with d and rank-1 updating simi to
// match. When jdrop is n (the pole itself is replaced), every other vertex's
// offset is re-based to the new pole. If the resulting simi is too poor an
// approximation to the inverse of sim[:, :n] even after refactoring from
// scratch, the update is rejected and the simplex is left unchanged.
//
// jdrop == nil means "no vertex was actually replaced" (only possible after
// a trust-region step whose point was not accepted into the simplex); in
// that case updatexfc does nothing and returns NotTerminated immediately.
func (s *simplex) updatexfc(jdrop *int, d []float64, f float64, constr []float64, cstrv, cpen float64) Status {
	if jdrop == nil {
		return NotTerminated
	}
	j := *jdrop

	simOld := mat.DenseCopyOf(s.sim)
	simiOld := mat.DenseCopyOf(s.simi)

	if j < s.n {
		s.setSimCol(j, d)

		simiD := simiDotD(s.simi, d)
		var denom float64
		for i := 0; i < s.n; i++ {
			denom += s.simi.At(j, i) * d[i]
		}
		simiJdrop := s.simiRow(j)
		for i := range simiJdrop {
			simiJdrop[i] /= denom
		}
		for r := 0; r < s.n; r++ {
			for c := 0; c < s.n; c++ {
				s.simi.Set(r, c, s.simi.At(r, c)-simiD[r]*simiJdrop[c])
			}
		}
		s.setSimiRow(j, simiJdrop)
	} else {
		pole := s.simCol(s.n)
		for i := range pole {
			pole[i] += d[i]
		}
		s.setSimCol(s.n, pole)
		for c := 0; c < s.n; c++ {
			col := s.simCol(c)
			for i := range col {
				col[i] -= d[i]
			}
			s.setSimCol(c, col)
		}

		simiD := simiDotD(s.simi, d)
		sumSimi := make([]float64, s.n)
		var sumD float64
		for i := 0; i < s.n; i++ {
			sumD += simiD[i]
			for r := 0; r < s.n; r++ {
				sumSimi[i] += s.simi.At(r, i)
			}
		}
		denom := 1 - sumD
		for r := 0; r < s.n; r++ {
			for c := 0; c < s.n; c++ {
				s.simi.Set(r, c, s.simi.At(r, c)+simiD[r]*sumSimi[c]/denom)
			}
		}
	}

	erri := s.residual()
	if erri > 0.1*itol || math.IsNaN(erri) {
		s.simi, erri = s.refineSimi(erri)
	}

	if erri > itol {
		s.sim = simOld
		s.simi = simiOld
		return DamagingRounding
	}

	s.fval[j] = f
	s.setConCol(j, constr)
	s.cval[j] = cstrv
	return s.updatepole(cpen)
}

// residual computes ‖simi·sim[:,:n] - I‖∞ for the simplex's current sim and
// simi.
func (s *simplex) residual() float64 {
	block := mat.NewDense(s.n, s.n, nil)
	for i := 0; i < s.n; i++ {
		for j := 0; j < s.n; j++ {
			block.Set(i, j, s.sim.At(i, j))
		}
	}
	return inverseResidual(s.simi, block)
}

// findpole identifies the vertex minimizing the merit function f + cpen*c,
// with a tie-breaking rule for cpen <= 0 that prefers, among vertices
// achieving the minimum merit, the one with smallest constraint violation.
func findpole(cpen float64, fval, cval []float64) int {
	n := len(fval) - 1
	phi := make([]float64, len(fval))
	phimin := math.Inf(1)
	joptcandidate := 0
	for i, f := range fval {
		phi[i] = f + cpen*cval[i]
		if phi[i] < phimin {
			phimin = phi[i]
			joptcandidate = i
		}
	}

	jopt := n
	if phi[joptcandidate] < phi[jopt] {
		jopt = joptcandidate
	}

	if cpen <= 0 {
		best := -1
		for i := range fval {
			if cval[i] < cval[jopt] && phi[i] <= phimin {
				if best == -1 || cval[i] < cval[best] {
					best = i
				}
			}
		}
		if best != -1 {
			jopt = best
		}
	}
	return jopt
}

// updatepole moves the vertex minimizing the merit function f + cpen*c to
// the pole position (column n), updating sim, simi, fval, conmat, and cval
// accordingly. If simi cannot be kept an adequate inverse of the re-based
// sim[:, :n] even after refactoring from scratch, the update is rejected
// and the simplex is left unchanged.
func (s *simplex) updatepole(cpen float64) Status {
	jopt := findpole(cpen, s.fval, s.cval)

	if jopt == s.n {
		return NotTerminated
	}

	simOld := mat.DenseCopyOf(s.sim)
	simiOld := mat.DenseCopyOf(s.simi)

	pole := s.simCol(s.n)
	simJopt := s.simCol(jopt)
	for i := range pole {
		pole[i] += simJopt[i]
	}
	s.setSimCol(s.n, pole)
	s.setSimCol(jopt, make([]float64, s.n))
	for c := 0; c < s.n; c++ {
		col := s.simCol(c)
		for i := range col {
			col[i] -= simJopt[i]
		}
		s.setSimCol(c, col)
	}

	negSum := make([]float64, s.n)
	for r := 0; r < s.n; r++ {
		for c := 0; c < s.n; c++ {
			negSum[c] -= s.simi.At(r, c)
		}
	}
	s.setSimiRow(jopt, negSum)

	erri := s.residual()
	if erri > 0.1*itol || math.IsNaN(erri) {
		s.simi, erri = s.refineSimi(erri)
	}

	if erri > itol {
		s.sim = simOld
		s.simi = simiOld
		return DamagingRounding
	}

	s.fval[jopt], s.fval[s.n] = s.fval[s.n], s.fval[jopt]
	s.cval[jopt], s.cval[s.n] = s.cval[s.n], s.cval[jopt]
	cj := s.conCol(jopt)
	cn := s.conCol(s.n)
	s.setConCol(jopt, cn)
	s.setConCol(s.n, cj)
	return NotTerminated
}

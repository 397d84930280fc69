// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	factorAlpha = 0.25
	factorBeta  = 2.1
	factorGamma = 0.5
)

// assessGeo reports whether the simplex's geometry is currently acceptable:
// every non-pole vertex offset must be short enough (‖sim[:,j]‖ <= beta*delta)
// and every row of simi must be short enough (‖simi[j,:]‖ <= 1/(alpha*delta))
// relative to the trust-region radius delta.
func (s *simplex) assessGeo(delta, alpha, beta float64) bool {
	for j := 0; j < s.n; j++ {
		if floats.Norm(s.simCol(j), 2) > beta*delta {
			return false
		}
		if floats.Norm(s.simiRow(j), 2) > 1/(alpha*delta) {
			return false
		}
	}
	return true
}

// setDropTR chooses the vertex to replace after a trust-region step that
// produced d, scoring each non-pole vertex j by a combination of
// |simi[j,:]·d| and ‖sim[:,j]‖. When ximproved is true the pole itself is
// also a candidate, standing in for "translate the whole simplex". It
// returns nil if no candidate is an improvement.
func (s *simplex) setDropTR(ximproved bool, d []float64, delta, rho float64) *int {
	var best *int
	var bestScore float64

	for j := 0; j < s.n; j++ {
		score := math.Abs(floats.Dot(s.simiRow(j), d))
		if score < 1e-10 && floats.Norm(s.simCol(j), 2) <= factorBeta*delta {
			continue
		}
		sc := score*score*score + floats.Norm(s.simCol(j), 2)
		if best == nil || sc > bestScore {
			jj := j
			best = &jj
			bestScore = sc
		}
	}

	if ximproved {
		sc := 1.0 // the pole is always an eligible candidate when ximproved
		if best == nil || sc > bestScore {
			jj := s.n
			best = &jj
			bestScore = sc
		}
	}

	_ = rho
	return best
}

// setDropGeo chooses the vertex (never the pole) with the worst geometry:
// the one whose offset is longest relative to beta*delta, or whose simi row
// is longest relative to 1/(alpha*delta), whichever is furthest out of
// bounds in relative terms.
func (s *simplex) setDropGeo(delta, alpha, beta float64) int {
	worst := 0
	worstScore := math.Inf(-1)
	for j := 0; j < s.n; j++ {
		simScore := floats.Norm(s.simCol(j), 2) / (beta * delta)
		simiScore := floats.Norm(s.simiRow(j), 2) * (alpha * delta)
		score := math.Max(simScore, simiScore)
		if score > worstScore {
			worstScore = score
			worst = j
		}
	}
	return worst
}

// geoStep constructs a geometry-improving step of length gamma*delta along
// the direction most orthogonal to the other vertices, ±simi[jdrop,:], with
// the sign chosen to decrease the merit function of the model built from
// cpen, the linearized objective gradient gq, and the linearized constraint
// gradients (columns of Ac, one per constraint).
func (s *simplex) geoStep(jdrop int, delta, gamma, cpen float64, gq []float64, Ac [][]float64) []float64 {
	row := s.simiRow(jdrop)
	norm := floats.Norm(row, 2)
	dir := make([]float64, len(row))
	if norm > 0 {
		floats.ScaleTo(dir, gamma*delta/norm, row)
	}

	merit := func(d []float64) float64 {
		phi := floats.Dot(gq, d)
		for _, a := range Ac {
			v := floats.Dot(a, d)
			if v > 0 {
				phi += cpen * v
			}
		}
		return phi
	}

	neg := make([]float64, len(dir))
	floats.ScaleTo(neg, -1, dir)
	if merit(neg) < merit(dir) {
		return neg
	}
	return dir
}

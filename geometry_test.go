// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"
	"testing"
)

func TestAssessGeoAcceptsWellConditionedSimplex(t *testing.T) {
	s := newTestSimplex(2, 0)
	if !s.assessGeo(1.0, factorAlpha, factorBeta) {
		t.Error("assessGeo rejected a unit identity simplex at delta=1")
	}
}

func TestAssessGeoRejectsElongatedSimplex(t *testing.T) {
	s := newTestSimplex(2, 0)
	s.sim.Set(0, 0, 100) // column 0 now has norm 100, far beyond beta*delta
	if s.assessGeo(1.0, factorAlpha, factorBeta) {
		t.Error("assessGeo accepted an elongated simplex")
	}
}

func TestSetDropGeoNeverPicksPole(t *testing.T) {
	s := newTestSimplex(3, 0)
	got := s.setDropGeo(1.0, factorAlpha, factorBeta)
	if got < 0 || got >= s.n {
		t.Errorf("setDropGeo = %d, want in [0, %d)", got, s.n)
	}
}

func TestGeoStepHasExpectedLength(t *testing.T) {
	s := newTestSimplex(2, 1)
	gq := []float64{1, 0}
	Ac := [][]float64{{0, 0}}
	d := s.geoStep(0, 1.0, factorGamma, 1.0, gq, Ac)
	norm := math.Hypot(d[0], d[1])
	if math.Abs(norm-factorGamma*1.0) > 1e-9 {
		t.Errorf("‖geoStep‖ = %v, want %v", norm, factorGamma)
	}
}

// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"math"
	"testing"
)

func newTestSimplex(n, m int) *simplex {
	s := newSimplex(n, m)
	for i := 0; i < n; i++ {
		s.sim.Set(i, i, 1)
	}
	block := make([]float64, n*n)
	for i := 0; i < n; i++ {
		block[i*n+i] = 1
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s.simi.Set(i, j, block[i*n+j])
		}
	}
	for i := 0; i <= n; i++ {
		s.fval[i] = float64(i)
	}
	return s
}

func TestSimplexResidualIdentity(t *testing.T) {
	s := newTestSimplex(3, 1)
	if r := s.residual(); math.Abs(r) > 1e-12 {
		t.Errorf("residual of identity simplex = %v, want ~0", r)
	}
}

func TestFindpoleMinimizesMerit(t *testing.T) {
	fval := []float64{3, 1, 2}
	cval := []float64{0, 0, 0}
	if got := findpole(1.0, fval, cval); got != 1 {
		t.Errorf("findpole = %d, want 1 (smallest fval)", got)
	}
}

func TestFindpoleTieBreaksOnViolationWhenCpenZero(t *testing.T) {
	// Two vertices tie on merit (cpen=0 means merit is just fval), but the
	// one with smaller cstrv should be preferred.
	fval := []float64{1, 1, 5}
	cval := []float64{0.5, 0.1, 5}
	got := findpole(0, fval, cval)
	if got != 1 {
		t.Errorf("findpole = %d, want 1 (tied objective, smaller violation)", got)
	}
}

func TestUpdatepoleMovesBestVertexToPole(t *testing.T) {
	s := newTestSimplex(2, 1)
	s.fval = []float64{1, 5, 5} // vertex 0 is best
	s.cval = []float64{0, 0, 0}
	s.setConCol(0, []float64{-1})
	s.setConCol(1, []float64{-1})
	s.setConCol(2, []float64{-1})

	status := s.updatepole(1.0)
	if status != NotTerminated {
		t.Fatalf("updatepole status = %v, want NotTerminated", status)
	}
	if s.fval[2] != 1 {
		t.Errorf("fval[n] after updatepole = %v, want 1 (the formerly-best vertex)", s.fval[2])
	}
}

func TestUpdatexfcNoOpWhenJdropNil(t *testing.T) {
	s := newTestSimplex(2, 1)
	orig := s.fval[0]
	status := s.updatexfc(nil, []float64{1, 1}, 99, []float64{-1}, 0, 1)
	if status != NotTerminated {
		t.Fatalf("status = %v, want NotTerminated", status)
	}
	if s.fval[0] != orig {
		t.Errorf("fval mutated despite nil jdrop")
	}
}

func TestUpdatexfcReplacesVertex(t *testing.T) {
	s := newTestSimplex(2, 1)
	s.setConCol(0, []float64{-1})
	s.setConCol(1, []float64{-1})
	s.setConCol(2, []float64{-1})

	jdrop := 0
	d := []float64{0.5, 0}
	status := s.updatexfc(&jdrop, d, 42, []float64{-2}, 0, 1)
	if status != NotTerminated {
		t.Fatalf("updatexfc status = %v, want NotTerminated", status)
	}
	if s.fval[0] != 42 {
		t.Errorf("fval[0] = %v, want 42", s.fval[0])
	}
	if got := s.residual(); got > itol {
		t.Errorf("residual after update = %v, want <= %v", got, itol)
	}
}

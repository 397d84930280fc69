// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import "math"

// isbetter reports whether (f1, c1) is strictly better than (f2, c2) under
// the partial order COBYLA uses to rank candidate iterates: lower objective
// and no higher violation, or equal objective and strictly lower violation,
// with special-cased handling of NaN and of points that are feasible up to
// ctol versus points that are not.
func isbetter(f1, c1, f2, c2, ctol float64) bool {
	if (math.IsNaN(f1) || math.IsNaN(c1)) && !(math.IsNaN(f2) || math.IsNaN(c2)) {
		return false
	}
	if f1 < f2 && c1 <= c2 {
		return true
	}
	if f1 <= f2 && c1 < c2 {
		return true
	}
	cref := 10 * math.Max(Eps, math.Min(ctol, 0.01*ConstrMax))
	if f1 < RealMax && c1 <= ctol && (c2 > math.Max(ctol, cref) || math.IsNaN(c2)) {
		return true
	}
	return false
}

// filter maintains a bounded collection of points that are mutually
// non-dominated under isbetter, from which selectx ultimately picks the
// point returned to the caller of Minimize.
type filter struct {
	maxfilt int
	ctol    float64
	cweight float64

	n int // number of variables
	m int // number of constraints

	nfilt  int
	xfilt  [][]float64 // nfilt valid columns, each length n
	ffilt  []float64
	cfilt  []float64
	confilt [][]float64 // each length m
}

func newFilter(maxfilt, n, m int, ctol, cweight float64) *filter {
	f := &filter{
		maxfilt: maxfilt,
		ctol:    ctol,
		cweight: cweight,
		n:       n,
		m:       m,
		xfilt:   make([][]float64, maxfilt),
		ffilt:   make([]float64, maxfilt),
		cfilt:   make([]float64, maxfilt),
		confilt: make([][]float64, maxfilt),
	}
	for i := range f.xfilt {
		f.xfilt[i] = make([]float64, n)
		f.confilt[i] = make([]float64, m)
	}
	return f
}

// phi computes the eviction merit max(f, -RealMax) + cweight *
// max(c-ctol, 0) used to pick the worst entry to evict from a full filter.
// selectx minimizes the same merit, computed by its own closure, to pick the
// entry it returns.
func (ft *filter) phi(f, c float64) float64 {
	shifted := maxFloat0(c - ft.ctol)
	switch {
	case ft.cweight <= 0:
		return math.Max(f, -RealMax)
	case math.IsInf(ft.cweight, 1):
		return shifted
	default:
		return math.Max(f, -RealMax) + ft.cweight*shifted
	}
}

// save inserts (x, f, c, constr) into the filter unless some existing entry
// already dominates it, pruning entries the new point dominates and, if the
// filter is full and nothing was pruned, evicting the single worst surviving
// entry by the eviction merit phi.
func (ft *filter) save(x []float64, f, c float64, constr []float64) {
	for i := 0; i < ft.nfilt; i++ {
		if isbetter(ft.ffilt[i], ft.cfilt[i], f, c, ft.ctol) {
			return
		}
	}

	keep := make([]bool, ft.nfilt)
	nkeep := 0
	for i := 0; i < ft.nfilt; i++ {
		if !isbetter(f, c, ft.ffilt[i], ft.cfilt[i], ft.ctol) {
			keep[i] = true
			nkeep++
		}
	}

	if nkeep == ft.maxfilt {
		worst := ft.worstIndex(keep)
		keep[worst] = false
		nkeep--
	}

	w := 0
	for i := 0; i < ft.nfilt; i++ {
		if !keep[i] {
			continue
		}
		if w != i {
			copy(ft.xfilt[w], ft.xfilt[i])
			copy(ft.confilt[w], ft.confilt[i])
			ft.ffilt[w] = ft.ffilt[i]
			ft.cfilt[w] = ft.cfilt[i]
		}
		w++
	}
	ft.nfilt = w

	copy(ft.xfilt[ft.nfilt], x)
	copy(ft.confilt[ft.nfilt], constr)
	ft.ffilt[ft.nfilt] = f
	ft.cfilt[ft.nfilt] = c
	ft.nfilt++
}

// worstIndex returns the index, among the entries marked true in keep, with
// the largest eviction merit phi, breaking ties by larger shifted violation,
// then larger f, then larger raw c, then the lowest index.
func (ft *filter) worstIndex(keep []bool) int {
	worst := -1
	var worstPhi, worstShift, worstF, worstC float64
	for i, k := range keep {
		if !k {
			continue
		}
		p := ft.phi(ft.ffilt[i], ft.cfilt[i])
		shift := maxFloat0(ft.cfilt[i] - ft.ctol)
		if worst == -1 || better4(p, shift, ft.ffilt[i], ft.cfilt[i], worstPhi, worstShift, worstF, worstC) {
			worst = i
			worstPhi, worstShift, worstF, worstC = p, shift, ft.ffilt[i], ft.cfilt[i]
		}
	}
	if worst == -1 {
		return 0
	}
	return worst
}

// better4 reports whether (p1,shift1,f1,c1) ranks strictly worse (i.e. a
// better eviction candidate) than (p2,shift2,f2,c2), using the tie-break
// chain phi, then shifted violation, then f, then raw c; all maximized.
func better4(p1, shift1, f1, c1, p2, shift2, f2, c2 float64) bool {
	if p1 != p2 {
		return p1 > p2
	}
	if shift1 != shift2 {
		return shift1 > shift2
	}
	if f1 != f2 {
		return f1 > f2
	}
	return c1 > c2
}

// selectx chooses, among the filter's current entries, the index to return
// to the caller of Minimize. It mirrors save's eviction rule with the
// opposite sense: it minimizes phi instead of maximizing it.
func selectx(fhist, chist []float64, cweight, ctol float64) int {
	n := len(fhist)

	fref, cref := selectxRefs(fhist, chist)

	anyInRange := false
	for i := range fhist {
		if fhist[i] < fref && chist[i] < cref {
			anyInRange = true
			break
		}
	}
	if !anyInRange {
		return n - 1
	}

	shifted := make([]float64, n)
	cmin := math.Inf(1)
	for i := range fhist {
		shifted[i] = maxFloat0(chist[i] - ctol)
		if fhist[i] < fref && shifted[i] < cmin {
			cmin = shifted[i]
		}
	}
	cbound := math.Max(Eps, 2*cmin)

	phi := func(i int) float64 {
		switch {
		case cweight <= 0:
			return fhist[i]
		case math.IsInf(cweight, 1):
			return shifted[i]
		default:
			return math.Max(fhist[i], -RealMax) + cweight*shifted[i]
		}
	}

	best := -1
	var bestPhi, bestShift, bestF, bestC float64
	for i := range fhist {
		if fhist[i] >= fref || shifted[i] > cbound {
			continue
		}
		p := phi(i)
		if best == -1 || better4(bestPhi, bestShift, bestF, bestC, p, shifted[i], fhist[i], chist[i]) {
			best = i
			bestPhi, bestShift, bestF, bestC = p, shifted[i], fhist[i], chist[i]
		}
	}
	if best == -1 {
		return n - 1
	}
	return best
}

// selectxRefs picks the tightest of the four (fref, cref) pairs, in the
// order (FuncMax,ConstrMax), (RealMax,ConstrMax), (FuncMax,RealMax),
// (RealMax,RealMax), for which at least one history entry qualifies.
func selectxRefs(fhist, chist []float64) (fref, cref float64) {
	pairs := [4][2]float64{
		{FuncMax, ConstrMax},
		{RealMax, ConstrMax},
		{FuncMax, RealMax},
		{RealMax, RealMax},
	}
	for _, p := range pairs {
		for i := range fhist {
			if fhist[i] < p[0] && chist[i] < p[1] {
				return p[0], p[1]
			}
		}
	}
	return RealMax, RealMax
}

// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const cpenmin = Eps

// Minimize runs COBYLA on a problem of n variables (n = len(x)) subject to m
// inequality constraints written in the canonical form constr(x) <= 0. It is
// the low-level entry point: callers that have box bounds, linear
// constraints, or two-sided nonlinear constraints should normalize them into
// this form themselves, or call Solve instead.
//
// A nil settings uses DefaultSettings(len(x)).
func Minimize(calcfc CalcFC, m int, x []float64, settings *Settings) (*Result, error) {
	start := time.Now()
	n := len(x)
	if n == 0 {
		return nil, errors.New("cobyla: x must have at least one variable")
	}
	if m < 0 {
		return nil, errors.New("cobyla: m must be non-negative")
	}

	var base Settings
	if settings != nil {
		base = *settings
	}
	s := base.fillDefaults(n)
	if s.Constr0 != nil && len(s.Constr0) != m {
		return nil, fmt.Errorf("cobyla: Constr0 has length %d, want %d", len(s.Constr0), m)
	}

	logger := newIterationLogger(s.IPrint, s.Output)

	ev := newEvaluator(calcfc, n, m)
	sim := newSimplex(n, m)

	maxfilt := clampInt(s.MaxFilterSize, 1, s.Maxfun)
	filt := newFilter(maxfilt, n, m, s.Ctol, s.Cweight)

	nf, status := initxfc(ev, sim, s.Rhobeg, x, s.F0, s.Constr0, s.Ftarget, s.Maxfun, s.Ctol, logger, s.Callback)

	initfilt(sim, filt)

	if status != NotTerminated {
		return finish(filt, s.Cweight, s.Ctol, status, nf, 0, start), nil
	}

	rho, delta := s.Rhobeg, s.Rhobeg
	cpen := math.Max(cpenmin, math.Min(1e3, fcratio(sim)))
	gamma1, gamma2 := 0.5, 2.0
	eta1, eta2 := 0.1, 0.7
	gamma3 := math.Max(1, math.Min(0.75*gamma2, 1.5))

	maxtr := s.Maxfun
	if 2*s.Maxfun > maxtr {
		maxtr = 2 * s.Maxfun
	}

	status = MaxtrReached
	var d []float64
	var shortd, trfail bool
	var ratio float64 = -1
	var jdropTR *int
	var dnorm float64

	niter := 0
	for tr := 0; tr < maxtr; tr++ {
		niter++
		var subStatus Status
		cpen, subStatus = getcpen(sim, cpen, delta)
		if subStatus == DamagingRounding {
			status = subStatus
			break
		}

		adequateGeo := sim.assessGeo(delta, factorAlpha, factorBeta)

		A, b := buildModel(sim)
		d = trstlp(A, b, delta)
		dnorm = math.Min(delta, floats.Norm(d, 2))

		shortd = dnorm < 0.1*rho
		prerec := predictedConstraintReduction(sim, A, b, d, m)
		preref := floats.Dot(d, colOf(A, m))
		prerem := preref + cpen*prerec
		trfail = prerem < 1e-5*math.Min(cpen, 1)*rho*rho || math.IsNaN(prerem)

		ximproved := false
		jdropTR = nil

		if shortd || trfail {
			delta *= 0.1
			if delta <= gamma3*rho {
				delta = rho
			}
		} else {
			if callbackStop(s.Callback, sim, nf, tr) {
				status = FtargetAchieved
				break
			}
			x := addVec(sim.pole(), d)
			f, constr, cstrv := ev.evaluate(x)
			nf++
			logger.logEval(nf, f, x, cstrv)
			filt.save(x, f, cstrv, constr)

			actrem := (sim.fval[n] + cpen*sim.cval[n]) - (f + cpen*cstrv)
			ratio = redrat(actrem, prerem, eta1)

			delta = trrad(delta, dnorm, eta1, eta2, gamma1, gamma2, ratio)
			if delta <= gamma3*rho {
				delta = rho
			}

			ximproved = actrem > 0
			jdropTR = sim.setDropTR(ximproved, d, delta, rho)

			subStatus = sim.updatexfc(jdropTR, d, f, constr, cstrv, cpen)
			if subStatus == DamagingRounding {
				status = subStatus
				break
			}

			subStatus = checkbreak(s.Maxfun, nf, cstrv, s.Ctol, f, s.Ftarget, x)
			if subStatus != NotTerminated {
				status = subStatus
				break
			}
		}

		badTrstep := shortd || trfail || ratio <= 0 || jdropTR == nil
		improveGeo := badTrstep && !adequateGeo
		reduceRho := badTrstep && adequateGeo && math.Max(delta, dnorm) <= rho

		if improveGeo && !sim.assessGeo(delta, factorAlpha, factorBeta) {
			jdropGeo := sim.setDropGeo(delta, factorAlpha, factorBeta)

			gq := colOf(A, m)
			floats.Scale(-1, gq) // column m of A holds the negated objective gradient
			Ac := make([][]float64, m)
			for i := 0; i < m; i++ {
				Ac[i] = colOf(A, i)
			}
			gd := sim.geoStep(jdropGeo, delta, factorGamma, cpen, gq, Ac)

			if callbackStop(s.Callback, sim, nf, tr) {
				status = FtargetAchieved
				break
			}
			x := addVec(sim.pole(), gd)
			f, constr, cstrv := ev.evaluate(x)
			nf++
			logger.logEval(nf, f, x, cstrv)
			filt.save(x, f, cstrv, constr)

			jd := jdropGeo
			subStatus = sim.updatexfc(&jd, gd, f, constr, cstrv, cpen)
			if subStatus == DamagingRounding {
				status = subStatus
				break
			}

			subStatus = checkbreak(s.Maxfun, nf, cstrv, s.Ctol, f, s.Ftarget, x)
			if subStatus != NotTerminated {
				status = subStatus
				break
			}
		}

		if reduceRho {
			if rho <= s.Rhoend {
				status = SmallTrRadius
				break
			}
			newRho := redrho(rho, s.Rhoend)
			delta = math.Max(0.5*rho, newRho)
			rho = newRho
			cpen = math.Max(cpenmin, math.Min(cpen, fcratio(sim)))
			logger.logRho(nf, sim.fval[n], rho, sim.pole(), sim.cval[n])
			subStatus = sim.updatepole(cpen)
			if subStatus == DamagingRounding {
				status = subStatus
				break
			}
		}
	}

	if status == SmallTrRadius && shortd && nf < s.Maxfun && !callbackStop(s.Callback, sim, nf, niter) {
		x := addVec(sim.pole(), d)
		f, constr, cstrv := ev.evaluate(x)
		nf++
		logger.logEval(nf, f, x, cstrv)
		filt.save(x, f, cstrv, constr)
	}

	return finish(filt, math.Max(cpen, s.Cweight), s.Ctol, status, nf, niter, start), nil
}

// finish selects the final iterate from the filter via selectx and packages
// it, along with the run's bookkeeping, into a Result.
func finish(filt *filter, cweight, ctol float64, status Status, nf, niter int, start time.Time) *Result {
	kopt := selectx(filt.ffilt[:filt.nfilt], filt.cfilt[:filt.nfilt], cweight, ctol)
	return &Result{
		X:      append([]float64(nil), filt.xfilt[kopt]...),
		F:      filt.ffilt[kopt],
		CStrv:  filt.cfilt[kopt],
		Constr: append([]float64(nil), filt.confilt[kopt]...),
		Stats: Stats{
			FuncEvaluations: nf,
			MajorIterations: niter,
			Runtime:         time.Since(start),
		},
		Status: status,
	}
}

// fcratio computes the ratio between the "typical change" of F and that of
// the constraints, as in equations (12)-(13) of the COBYLA paper; it is 0
// when no constraint qualifies.
func fcratio(sim *simplex) float64 {
	m, np1 := sim.conmat.Dims()
	if m == 0 {
		return 0
	}
	cmin := make([]float64, m)
	cmax := make([]float64, m)
	for i := 0; i < m; i++ {
		cmin[i] = sim.conmat.At(i, 0)
		cmax[i] = sim.conmat.At(i, 0)
		for j := 1; j < np1; j++ {
			v := sim.conmat.At(i, j)
			if v < cmin[i] {
				cmin[i] = v
			}
			if v > cmax[i] {
				cmax[i] = v
			}
		}
	}
	fmin, fmax := floats.Min(sim.fval), floats.Max(sim.fval)

	denom := math.Inf(1)
	any := false
	for i := 0; i < m; i++ {
		if cmin[i] < 0.5*cmax[i] {
			any = true
			v := math.Max(cmax[i], 0) - cmin[i]
			if v < denom {
				denom = v
			}
		}
	}
	if any && fmin < fmax {
		return (fmax - fmin) / denom
	}
	return 0
}

// redrho computes the next value of rho when the resolution must be
// enhanced. The scheme is shared with UOBYQA/NEWUOA/BOBYQA/LINCOA.
func redrho(rho, rhoend float64) float64 {
	ratio := rho / rhoend
	switch {
	case ratio > 250:
		return 0.1 * rho
	case ratio <= 16:
		return rhoend
	default:
		return math.Sqrt(ratio) * rhoend
	}
}

// checkbreak reports whether the solver should terminate given the latest
// evaluation, checking for NaN/Inf in x, NaN/+Inf in f or cstrv, the target
// objective, and the evaluation budget, in that order; a later condition
// that holds overrides an earlier one, so the evaluation budget takes
// precedence over all the others.
func checkbreak(maxfun, nf int, cstrv, ctol, f, ftarget float64, x []float64) Status {
	status := NotTerminated
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			status = NanInfX
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 1) || math.IsNaN(cstrv) || math.IsInf(cstrv, 1) {
		status = NanInfF
	}
	if cstrv <= ctol && f <= ftarget {
		status = FtargetAchieved
	}
	if nf >= maxfun {
		status = MaxfunReached
	}
	return status
}

// redrat computes a NaN-safe trust-region reduction ratio actrem/prerem,
// returning a large negative sentinel instead of the ratio whenever prerem
// is not safely positive or either argument is NaN.
func redrat(actrem, prerem, eta1 float64) float64 {
	_ = eta1
	if math.IsNaN(actrem) || math.IsNaN(prerem) || prerem <= 0 {
		return -RealMax
	}
	return actrem / prerem
}

// trrad updates the trust-region radius after a step of norm dnorm achieved
// reduction ratio ratio, by the standard scheme shared with
// UOBYQA/NEWUOA/BOBYQA/LINCOA.
func trrad(delta, dnorm, eta1, eta2, gamma1, gamma2, ratio float64) float64 {
	switch {
	case ratio <= eta1:
		return gamma1 * dnorm
	case ratio <= eta2:
		return math.Max(gamma1*delta, dnorm)
	default:
		return math.Max(gamma1*delta, gamma2*dnorm)
	}
}

// getcpen increases the penalty parameter, if needed, so that the predicted
// merit-function reduction is positive, by iterating updatepole/trstlp up to
// n+1 times against the growing cpen.
func getcpen(sim *simplex, cpen, delta float64) (float64, Status) {
	n := sim.n
	for iter := 0; iter <= n; iter++ {
		status := sim.updatepole(cpen)
		if status == DamagingRounding {
			return cpen, status
		}

		A, b := buildModel(sim)
		d := trstlp(A, b, delta)
		prerec := predictedConstraintReduction(sim, A, b, d, sim.m)
		preref := floats.Dot(d, colOf(A, sim.m))

		if !(prerec > 0 && preref < 0) {
			break
		}
		cpen = math.Max(cpen, math.Min(-2*preref/prerec, RealMax))
		if findpole(cpen, sim.fval, sim.cval) == n {
			break
		}
	}
	return cpen, NotTerminated
}

// buildModel constructs the linearized constraint and objective gradients
// A and the right-hand side b for trstlp, from the simplex's current
// conmat, fval, and simi.
func buildModel(sim *simplex) (*mat.Dense, []float64) {
	n, m := sim.n, sim.m
	A := mat.NewDense(n, m+1, nil)

	pole := sim.conCol(n)
	for i := 0; i < m; i++ {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = sim.conmat.At(i, j) - pole[i]
		}
		for k := 0; k < n; k++ {
			var sum float64
			for j := 0; j < n; j++ {
				sum += row[j] * sim.simi.At(j, k)
			}
			A.Set(k, i, sum)
		}
	}

	fdiff := make([]float64, n)
	for j := 0; j < n; j++ {
		fdiff[j] = sim.fval[n] - sim.fval[j]
	}
	for k := 0; k < n; k++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += fdiff[j] * sim.simi.At(j, k)
		}
		A.Set(k, m, sum)
	}

	b := make([]float64, m+1)
	for i := 0; i < m; i++ {
		b[i] = -pole[i]
	}
	b[m] = -sim.fval[n]
	return A, b
}

// predictedConstraintReduction computes PREREC: the reduction, achieved by
// step d, of the L-infinity violation of the linearized constraints.
func predictedConstraintReduction(sim *simplex, A *mat.Dense, b []float64, d []float64, m int) float64 {
	worst := 0.0
	for i := 0; i < m; i++ {
		v := floats.Dot(d, colOf(A, i)) - b[i]
		if v > worst {
			worst = v
		}
	}
	return sim.cval[sim.n] - worst
}

func colOf(A *mat.Dense, j int) []float64 {
	n, _ := A.Dims()
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = A.At(i, j)
	}
	return v
}

// callbackStop reports whether the user's callback, given the best point
// known so far, requests termination. A nil callback never stops the run.
func callbackStop(cb func(x []float64, f float64, nf, tr int, cstrv float64, constr []float64) bool, sim *simplex, nf, tr int) bool {
	if cb == nil {
		return false
	}
	return cb(sim.pole(), sim.fval[sim.n], nf, tr, sim.cval[sim.n], sim.conCol(sim.n))
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// initxfc builds the initial simplex rhobeg*I (pole column overwritten by
// x0), evaluates the objective and constraints at the pole and at each
// axis-shifted neighbor, swapping a neighbor into the pole whenever it has a
// strictly better raw objective value, and finally inverts sim[:, :n] to
// seed simi. Each neighbor is built relative to the pole as it stands at
// that moment, not the original x0, since an earlier swap may already have
// moved the pole.
func initxfc(ev *evaluator, sim *simplex, rhobeg float64, x0 []float64, f0 float64, constr0 []float64, ftarget float64, maxfun int, ctol float64, logger *iterationLogger, callback func(x []float64, f float64, nf, tr int, cstrv float64, constr []float64) bool) (int, Status) {
	n := sim.n
	for i := 0; i < n; i++ {
		sim.sim.Set(i, i, rhobeg)
	}
	sim.setSimCol(n, x0)

	nf := 0
	status := NotTerminated
	for k := 0; k <= n; k++ {
		x := sim.pole()
		var j int
		var f, cstrv float64
		var constr []float64
		if k == 0 {
			j = n
			if constr0 != nil {
				f = moderatef(f0)
				constr = moderatec(nil, constr0)
				cstrv = 0
				for _, c := range constr {
					if v := c; v > cstrv {
						cstrv = v
					}
				}
			} else {
				if callbackStop(callback, sim, nf, 0) {
					status = FtargetAchieved
					break
				}
				f, constr, cstrv = ev.evaluate(x)
				constr = append([]float64(nil), constr...)
			}
		} else {
			j = k - 1
			x[j] += rhobeg
			if callbackStop(callback, sim, nf, 0) {
				status = FtargetAchieved
				break
			}
			var raw []float64
			f, raw, cstrv = ev.evaluate(x)
			constr = append([]float64(nil), raw...)
		}
		nf++
		logger.logEval(nf, f, x, cstrv)

		sim.fval[j] = f
		sim.setConCol(j, constr)
		sim.cval[j] = cstrv

		if sub := checkbreak(maxfun, nf, cstrv, ctol, f, ftarget, x); sub != NotTerminated {
			status = sub
		}

		if j < n && sim.fval[j] < sim.fval[n] {
			sim.fval[j], sim.fval[n] = sim.fval[n], sim.fval[j]
			sim.cval[j], sim.cval[n] = sim.cval[n], sim.cval[j]
			cj, cn := sim.conCol(j), sim.conCol(n)
			sim.setConCol(j, cn)
			sim.setConCol(n, cj)
			sim.setSimCol(n, x)
			for r := 0; r <= j; r++ {
				sim.sim.Set(j, r, -rhobeg)
			}
		}

		if status != NotTerminated {
			break
		}
	}

	if status == NotTerminated {
		block := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				block.Set(i, j, sim.sim.At(i, j))
			}
		}
		var inv mat.Dense
		if err := inv.Inverse(block); err == nil {
			sim.simi = &inv
		} else {
			status = DamagingRounding
		}
	}

	return nf, status
}

// initfilt seeds the filter with every vertex of the initial simplex.
func initfilt(sim *simplex, filt *filter) {
	n := sim.n
	for i := 0; i <= n; i++ {
		x := sim.vertex(i)
		filt.save(x, sim.fval[i], sim.cval[i], sim.conCol(i))
	}
}

// iterationLogger formats progress messages by Powell's IPRINT levels:
// level 2 reports every rho reduction, level 3 also reports every
// evaluation. Level 1 writes nothing: no final summary line is produced.
// A negative iprint requests the same levels but redirects the messages to
// COBYLA_output.txt (append mode) instead of Output.
type iterationLogger struct {
	level  int
	output func(string)
}

const cobylaLogFile = "COBYLA_output.txt"

func newIterationLogger(iprint int, w io.Writer) *iterationLogger {
	level := iprint
	if level < 0 {
		level = -level
		if f, err := os.OpenFile(cobylaLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			w = f
		}
	}
	if w == nil {
		return &iterationLogger{level: level, output: func(string) {}}
	}
	return &iterationLogger{level: level, output: func(s string) { fmt.Fprint(w, s) }}
}

func (l *iterationLogger) logEval(nf int, f float64, x []float64, cstrv float64) {
	if l.level < 3 {
		return
	}
	l.output(fmt.Sprintf("nf=%d f=%g cstrv=%g x=%v\n", nf, f, cstrv, x))
}

func (l *iterationLogger) logRho(nf int, f, rho float64, x []float64, cstrv float64) {
	if l.level < 2 {
		return
	}
	l.output(fmt.Sprintf("rho reduced to %g: nf=%d f=%g cstrv=%g x=%v\n", rho, nf, f, cstrv, x))
}

// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cobyla

// CalcFC evaluates the user's objective and constraints at x, returning the
// objective value f and the constraint vector constr, in the canonical form
// constr[i](x) <= 0. CalcFC must not modify x, and must return a constr slice
// of length m (the value supplied to Minimize).
type CalcFC func(x []float64) (f float64, constr []float64)

// evaluator wraps a CalcFC with reusable scratch space so that repeated
// evaluations during the trust-region loop do not allocate.
type evaluator struct {
	calcfc CalcFC
	xbuf   []float64
	cbuf   []float64
}

func newEvaluator(calcfc CalcFC, n, m int) *evaluator {
	return &evaluator{
		calcfc: calcfc,
		xbuf:   make([]float64, n),
		cbuf:   make([]float64, m),
	}
}

// evaluate moderates x (which must not contain NaN) with moderatex, calls
// calcfc at the moderated point, moderates the returned objective and
// constraint values, and reports the resulting scalar constraint violation
// max(0, max(constr)).
func (e *evaluator) evaluate(x []float64) (f float64, constr []float64, cstrv float64) {
	e.xbuf = moderatex(e.xbuf, x)
	rawF, rawC := e.calcfc(e.xbuf)
	f = moderatef(rawF)
	e.cbuf = moderatec(e.cbuf, rawC)
	constr = e.cbuf
	cstrv = 0
	for _, c := range constr {
		if v := c; v > cstrv {
			cstrv = v
		}
	}
	return f, constr, cstrv
}

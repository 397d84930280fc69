// Copyright ©2026 The cobyla Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cobyla implements Powell's COBYLA algorithm (Constrained Optimization
// BY Linear Approximations), a derivative-free method for minimizing a scalar
// objective function subject to general inequality constraints.
//
// COBYLA maintains a simplex of n+1 interpolation points over the n problem
// variables. At each iteration it builds affine models of the objective and of
// every constraint from the simplex, solves a linearized trust-region
// subproblem for a trial step, and decides whether to accept the step, improve
// the geometry of the simplex, or shrink the trust-region radius. Neither the
// objective nor the constraints need to supply gradients.
//
// The package follows the moderated extreme barrier: the solver never
// evaluates a comparison on a NaN or +Inf function or constraint value,
// because every value coming from the user function is moderated into a large
// finite sentinel first. This keeps every internal comparison total.
//
// Minimize is the core, low-level entry point: it requires constraints already
// rewritten in the canonical form c(x) <= 0. Solve is a convenience wrapper
// that accepts box bounds, linear constraints, and two-sided nonlinear
// constraints, normalizing them into that canonical form before calling
// Minimize.
package cobyla

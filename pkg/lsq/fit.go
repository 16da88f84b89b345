// Package lsq provides ordinary least-squares fitting helpers shared by the
// detrending and spectral-decomposition stages.
package lsq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PolyFit fits a polynomial of the given degree to (x, y) by ordinary least
// squares. The returned coefficients are ordered low to high: c[i] multiplies
// x^i. The system must be overdetermined or exactly determined, i.e.
// len(x) >= degree+1.
func PolyFit(x, y []float64, degree int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("sample count mismatch: %d vs %d", len(x), len(y))
	}
	if degree < 0 {
		return nil, fmt.Errorf("degree must be non-negative, got %d", degree)
	}
	n := len(x)
	terms := degree + 1
	if n < terms {
		return nil, fmt.Errorf("need at least %d samples for degree %d, got %d", terms, degree, n)
	}

	A := mat.NewDense(n, terms, nil)
	B := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		p := 1.0
		for j := 0; j < terms; j++ {
			A.Set(i, j, p)
			p *= x[i]
		}
		B.SetVec(i, y[i])
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return nil, fmt.Errorf("polynomial solve failed: %w", err)
	}

	coeffs := make([]float64, terms)
	for j := 0; j < terms; j++ {
		coeffs[j] = params.AtVec(j)
	}
	return coeffs, nil
}

// PolyEval evaluates a polynomial with coefficients ordered low to high.
func PolyEval(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// SineFit fits y ≈ a·cos(k·θ) + b·sin(k·θ) for a fixed angular order k by
// least squares against the actual sample angles. θ is in radians. The fit is
// exact for uniform sampling and remains unbiased for non-uniform spacing,
// which is why it is preferred over a direct transform here.
func SineFit(theta, y []float64, k float64) (a, b float64, err error) {
	if len(theta) != len(y) {
		return 0, 0, fmt.Errorf("sample count mismatch: %d vs %d", len(theta), len(y))
	}
	n := len(theta)
	if n < 2 {
		return 0, 0, fmt.Errorf("need at least 2 samples, got %d", n)
	}

	A := mat.NewDense(n, 2, nil)
	B := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		A.Set(i, 0, math.Cos(k*theta[i]))
		A.Set(i, 1, math.Sin(k*theta[i]))
		B.SetVec(i, y[i])
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return 0, 0, fmt.Errorf("sinusoid solve failed: %w", err)
	}
	return params.AtVec(0), params.AtVec(1), nil
}

// AmplitudePhase converts cos/sin coefficients into the polar form
// A·cos(k·θ + φ) with A >= 0 and φ normalized into [0, 2π).
func AmplitudePhase(a, b float64) (amplitude, phase float64) {
	amplitude = math.Hypot(a, b)
	if amplitude == 0 {
		return 0, 0
	}
	// a = A·cos(φ), b = -A·sin(φ)
	phase = math.Atan2(-b, a)
	if phase < 0 {
		phase += 2 * math.Pi
	}
	return amplitude, phase
}

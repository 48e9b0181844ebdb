// Package stats provides the small set of statistical primitives the
// analysis components depend on: ordinary least squares with significance
// testing, Pearson correlation, the standard normal CDF and simple moving
// averages. No external numerics dependency covers these, so they are
// implemented directly on math.
package stats

import (
	"errors"
	"math"
)

var (
	// ErrTooFewPoints is returned when a computation needs more samples
	// than were provided.
	ErrTooFewPoints = errors.New("stats: too few data points")
	// ErrZeroVariance is returned when an input series is constant.
	ErrZeroVariance = errors.New("stats: zero variance in input")
)

// OLS holds the result of a simple linear regression of y on x.
type OLS struct {
	Slope     float64
	Intercept float64
	R2        float64
	// PValue is the two-tailed p-value for the null hypothesis that the
	// slope is zero, from a t-test with n-2 degrees of freedom.
	PValue float64
}

// LinRegress fits y = intercept + slope*x by ordinary least squares.
// It requires at least three points so the significance test has a
// positive number of degrees of freedom.
func LinRegress(x, y []float64) (OLS, error) {
	n := len(x)
	if n != len(y) {
		return OLS{}, errors.New("stats: mismatched series lengths")
	}
	if n < 3 {
		return OLS{}, ErrTooFewPoints
	}

	mx := Mean(x)
	my := Mean(y)

	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 {
		return OLS{}, ErrZeroVariance
	}

	slope := sxy / sxx
	intercept := my - slope*mx

	var r2 float64
	if syy > 0 {
		r := sxy / math.Sqrt(sxx*syy)
		r2 = r * r
	}

	// Residual variance drives the standard error of the slope. A perfect
	// fit has no residual and the slope is trivially significant.
	df := float64(n - 2)
	ssRes := syy - slope*sxy
	if ssRes <= 0 {
		return OLS{Slope: slope, Intercept: intercept, R2: r2, PValue: 0}, nil
	}
	se := math.Sqrt(ssRes / df / sxx)
	t := slope / se
	p := tTestTwoTailed(t, df)

	return OLS{Slope: slope, Intercept: intercept, R2: r2, PValue: p}, nil
}

// Pearson returns the Pearson correlation coefficient between x and y.
func Pearson(x, y []float64) (float64, error) {
	n := len(x)
	if n != len(y) {
		return 0, errors.New("stats: mismatched series lengths")
	}
	if n < 2 {
		return 0, ErrTooFewPoints
	}
	mx := Mean(x)
	my := Mean(y)
	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, ErrZeroVariance
	}
	return sxy / math.Sqrt(sxx*syy), nil
}

// NormalCDF returns P(Z <= z) for a standard normal variable.
func NormalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// MovingAverage returns the trailing moving average of xs with the given
// window. Leading positions with fewer than window samples average what is
// available so the output has the same length as the input.
func MovingAverage(xs []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(xs))
	var sum float64
	for i, v := range xs {
		sum += v
		if i >= window {
			sum -= xs[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = sum / float64(n)
	}
	return out
}

// tTestTwoTailed returns the two-tailed p-value for a t statistic with the
// given degrees of freedom, via the regularized incomplete beta function.
func tTestTwoTailed(t, df float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	x := df / (df + t*t)
	return regIncBeta(df/2, 0.5, x)
}

// regIncBeta computes the regularized incomplete beta function I_x(a, b)
// using the continued fraction expansion.
func regIncBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lbeta, _ := math.Lgamma(a + b)
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	front := math.Exp(lbeta - la - lb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaCF(a, b, x) / a
	}
	return 1 - front*betaCF(b, a, 1-x)/b
}

// betaCF evaluates the continued fraction for the incomplete beta function
// by the modified Lentz method.
func betaCF(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		tiny    = 1e-30
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d
	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}

package indicators

import "math"

// NaN marks a value that is not available yet (warm-up) or undefined.
var NaN = math.NaN()

func isNaN(v float64) bool { return math.IsNaN(v) }

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = NaN
	}
	return out
}

// div returns a/b, or NaN when b is zero or either side is unavailable.
func div(a, b float64) float64 {
	if isNaN(a) || isNaN(b) || b == 0 {
		return NaN
	}
	return a / b
}

// Diff returns x[i] - x[i-lag]; the first lag values are NaN.
func Diff(x []float64, lag int) []float64 {
	out := nanSlice(len(x))
	for i := lag; i < len(x); i++ {
		out[i] = x[i] - x[i-lag]
	}
	return out
}

// CumSum returns the running total of x. A NaN input poisons the rest of the
// series.
func CumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	var acc float64
	for i, v := range x {
		acc += v
		out[i] = acc
	}
	return out
}

// window applies fn to every trailing window of size w. A window containing
// any NaN yields NaN.
func window(x []float64, w int, fn func([]float64) float64) []float64 {
	out := nanSlice(len(x))
	if w <= 0 {
		return out
	}
	for i := w - 1; i < len(x); i++ {
		win := x[i-w+1 : i+1]
		ok := true
		for _, v := range win {
			if isNaN(v) {
				ok = false
				break
			}
		}
		if ok {
			out[i] = fn(win)
		}
	}
	return out
}

func sum(win []float64) float64 {
	var s float64
	for _, v := range win {
		s += v
	}
	return s
}

// RollingSum is the trailing sum over w values.
func RollingSum(x []float64, w int) []float64 {
	return window(x, w, sum)
}

// RollingMean is the trailing arithmetic mean over w values.
func RollingMean(x []float64, w int) []float64 {
	return window(x, w, func(win []float64) float64 {
		return sum(win) / float64(len(win))
	})
}

// RollingStd is the trailing sample standard deviation (n-1 denominator).
func RollingStd(x []float64, w int) []float64 {
	return window(x, w, func(win []float64) float64 {
		if len(win) < 2 {
			return NaN
		}
		mean := sum(win) / float64(len(win))
		var ss float64
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(win)-1))
	})
}

// RollingMax is the trailing maximum over w values.
func RollingMax(x []float64, w int) []float64 {
	return window(x, w, func(win []float64) float64 {
		m := win[0]
		for _, v := range win[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// Shift moves x forward by n positions, filling the head with NaN.
func Shift(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	for i := n; i < len(x); i++ {
		out[i] = x[i-n]
	}
	return out
}

// CountTrue returns, for each index, how many of the trailing w flags are set.
// Indexes without a full window are NaN.
func CountTrue(flags []bool, w int) []float64 {
	x := make([]float64, len(flags))
	for i, f := range flags {
		if f {
			x[i] = 1
		}
	}
	return RollingSum(x, w)
}

func typicalPrice(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		out[i] = (high[i] + low[i] + close[i]) / 3
	}
	return out
}

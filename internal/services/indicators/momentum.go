package indicators

import "math"

// CalculateRSI computes the Relative Strength Index using Wilder smoothing
// expressed as an exponential mean with alpha 1/period, seeded at the first
// bar. Values before index period-1 are NaN.
func CalculateRSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) == 0 || period <= 0 {
		return out
	}

	alpha := 1 / float64(period)
	var up, down float64
	for i := range closes {
		var gain, loss float64
		if i > 0 {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gain = change
			} else {
				loss = -change
			}
		}
		if i == 0 {
			up, down = gain, loss
		} else {
			up = (1-alpha)*up + alpha*gain
			down = (1-alpha)*down + alpha*loss
		}
		if i < period-1 {
			continue
		}
		if down == 0 {
			out[i] = 100
		} else {
			out[i] = 100 - 100/(1+up/down)
		}
	}
	return out
}

// DMI holds the Directional Movement System series.
type DMI struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// CalculateDMI computes ADX, +DI and -DI with Wilder's smoothing. The DI lines
// start at index period and ADX at index 2*period-1.
func CalculateDMI(highs, lows, closes []float64, period int) DMI {
	n := len(closes)
	res := DMI{ADX: nanSlice(n), PlusDI: nanSlice(n), MinusDI: nanSlice(n)}
	if period <= 0 || n <= period {
		return res
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	p := float64(period)
	var sTR, sPlus, sMinus float64
	for i := 1; i <= period; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	dx := nanSlice(n)
	for i := period; i < n; i++ {
		if i > period {
			sTR = sTR - sTR/p + tr[i]
			sPlus = sPlus - sPlus/p + plusDM[i]
			sMinus = sMinus - sMinus/p + minusDM[i]
		}
		var pdi, mdi float64
		if sTR != 0 {
			pdi = 100 * sPlus / sTR
			mdi = 100 * sMinus / sTR
		}
		res.PlusDI[i] = pdi
		res.MinusDI[i] = mdi
		if pdi+mdi != 0 {
			dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
		} else {
			dx[i] = 0
		}
	}

	first := 2*period - 1
	if first >= n {
		return res
	}
	var seed float64
	for i := period; i <= first; i++ {
		seed += dx[i]
	}
	res.ADX[first] = seed / p
	for i := first + 1; i < n; i++ {
		res.ADX[i] = (res.ADX[i-1]*(p-1) + dx[i]) / p
	}
	return res
}

package indicators

// CalculateOBV computes On-Balance Volume. Volume is added when the close is
// at or above the previous close (including the first bar) and subtracted
// when it is below.
func CalculateOBV(closes, volumes []float64) []float64 {
	signed := make([]float64, len(closes))
	for i := range closes {
		if i > 0 && closes[i] < closes[i-1] {
			signed[i] = -volumes[i]
		} else {
			signed[i] = volumes[i]
		}
	}
	return CumSum(signed)
}

// moneyFlowVolume is the close-location value times volume. Bars with no
// range contribute zero.
func moneyFlowVolume(highs, lows, closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		rng := highs[i] - lows[i]
		if rng == 0 {
			continue
		}
		clv := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rng
		out[i] = clv * volumes[i]
	}
	return out
}

// CalculateCMF computes Chaikin Money Flow over the trailing period.
func CalculateCMF(highs, lows, closes, volumes []float64, period int) []float64 {
	mfv := RollingSum(moneyFlowVolume(highs, lows, closes, volumes), period)
	vol := RollingSum(volumes, period)
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = div(mfv[i], vol[i])
	}
	return out
}

// CalculateADL computes the Accumulation/Distribution Line.
func CalculateADL(highs, lows, closes, volumes []float64) []float64 {
	return CumSum(moneyFlowVolume(highs, lows, closes, volumes))
}

// CalculateMFI computes the Money Flow Index. Direction comes from the
// typical price change; the first bar has no direction.
func CalculateMFI(highs, lows, closes, volumes []float64, period int) []float64 {
	tp := typicalPrice(highs, lows, closes)
	flow := make([]float64, len(tp))
	for i := 1; i < len(tp); i++ {
		switch {
		case tp[i] > tp[i-1]:
			flow[i] = tp[i] * volumes[i]
		case tp[i] < tp[i-1]:
			flow[i] = -tp[i] * volumes[i]
		}
	}

	out := nanSlice(len(tp))
	for i := period - 1; i < len(tp); i++ {
		var pos, neg float64
		for _, f := range flow[i-period+1 : i+1] {
			if f >= 0 {
				pos += f
			} else {
				neg -= f
			}
		}
		switch {
		case neg == 0 && pos == 0:
			out[i] = NaN
		case neg == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+pos/neg)
		}
	}
	return out
}

// CalculateVWAP computes a rolling volume-weighted average of the typical
// price over the trailing period.
func CalculateVWAP(highs, lows, closes, volumes []float64, period int) []float64 {
	tp := typicalPrice(highs, lows, closes)
	pv := make([]float64, len(tp))
	for i := range tp {
		pv[i] = tp[i] * volumes[i]
	}
	num := RollingSum(pv, period)
	den := RollingSum(volumes, period)
	out := make([]float64, len(tp))
	for i := range out {
		out[i] = div(num[i], den[i])
	}
	return out
}

// CalculateRVOL is volume relative to its trailing mean.
func CalculateRVOL(volumes []float64, period int) []float64 {
	mean := RollingMean(volumes, period)
	out := make([]float64, len(volumes))
	for i := range out {
		out[i] = div(volumes[i], mean[i])
	}
	return out
}

// CalculateForceIndex is the one-bar close change times volume.
func CalculateForceIndex(closes, volumes []float64) []float64 {
	d := Diff(closes, 1)
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = d[i] * volumes[i]
	}
	return out
}

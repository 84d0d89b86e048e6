package indicator

// EMA calculates the Exponential Moving Average.
// The result is aligned index-for-index with prices and seeded with prices[0].
func EMA(prices []float64, window int) []float64 {
	if len(prices) == 0 || window <= 0 {
		return []float64{}
	}

	result := make([]float64, len(prices))
	k := 2.0 / float64(window+1)

	result[0] = prices[0]
	for i := 1; i < len(prices); i++ {
		result[i] = prices[i]*k + result[i-1]*(1-k)
	}

	return result
}

// Last returns the final element of an indicator series
func Last(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return values[len(values)-1], true
}

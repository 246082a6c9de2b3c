package utils

type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Calculate mean of numeric values
func CalculateMean[T Numeric](values []T) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// Calculate both population variance and mean in one pass
func CalculateVarianceWithMean[T Numeric](values []T) (variance float64, mean float64) {
	if len(values) < 2 {
		return 0, CalculateMean(values)
	}

	mean = CalculateMean(values)
	for _, v := range values {
		diff := float64(v) - mean
		variance += diff * diff
	}
	return variance / float64(len(values)), mean
}

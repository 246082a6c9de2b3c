package utils

import "math"

// LinearRegression fits y = a + b*x over paired series and returns the
// slope together with the Pearson correlation coefficient. Mismatched or
// too-short inputs yield (0, 0).
func LinearRegression(x, y []float64) (slope, correlation float64) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, 0
	}

	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX, sumYY float64

	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0, 0
	}

	slope = (n*sumXY - sumX*sumY) / denominator

	numerator := n*sumXY - sumX*sumY
	denominatorCorr := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denominatorCorr == 0 {
		correlation = 0
	} else {
		correlation = numerator / denominatorCorr
	}

	return slope, correlation
}

// PearsonCorrelation returns the correlation coefficient of paired series,
// always within [-1, 1]. Empty, mismatched, or zero-variance inputs
// return 0.
func PearsonCorrelation(x, y []float64) float64 {
	_, correlation := LinearRegression(x, y)
	return correlation
}

package facematch

import (
	"math"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// FaceDistance computes the euclidean distance between two encodings.
// Encodings of different or zero length never match, so +Inf is returned.
func FaceDistance(a, b Encoding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// FaceDistances returns the distance from candidate to every known encoding, in order.
func FaceDistances(known []Encoding, candidate Encoding) []float64 {
	distances := make([]float64, len(known))
	for i, enc := range known {
		distances[i] = FaceDistance(enc, candidate)
	}
	return distances
}

// CompareFaces reports, for each known encoding, whether candidate is within tolerance.
// A non-positive tolerance falls back to constants.DefaultTolerance.
func CompareFaces(known []Encoding, candidate Encoding, tolerance float64) []bool {
	if tolerance <= 0 {
		tolerance = constants.DefaultTolerance
	}

	distances := FaceDistances(known, candidate)
	matches := make([]bool, len(distances))
	for i, d := range distances {
		matches[i] = d <= tolerance
	}
	return matches
}

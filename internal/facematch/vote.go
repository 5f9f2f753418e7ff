package facematch

import (
	"math"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Vote compares candidate against every encoding in known and returns the
// name with the most matches within tolerance. Ties go to the name whose
// first match appears earliest in the set. No matches yields Matched=false.
func Vote(known *KnownFaces, candidate Encoding, tolerance float64) Match {
	if tolerance <= 0 {
		tolerance = constants.DefaultTolerance
	}
	result := Match{BestDistance: math.Inf(1)}
	if known.Len() == 0 {
		return result
	}

	distances := FaceDistances(known.Encodings, candidate)

	votes := make(map[string]int)
	var order []string
	for i, d := range distances {
		if d < result.BestDistance {
			result.BestDistance = d
		}
		if d > tolerance || i >= len(known.Names) {
			continue
		}
		name := known.Names[i]
		if _, ok := votes[name]; !ok {
			order = append(order, name)
		}
		votes[name]++
	}

	for _, name := range order {
		if votes[name] > result.Votes {
			result.Name = name
			result.Votes = votes[name]
			result.Matched = true
		}
	}
	return result
}

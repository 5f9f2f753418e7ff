// Package facematch compares face encodings and picks a name by majority vote.
// It is shared between the CLI commands and the web handlers.
package facematch

import (
	"errors"
	"fmt"
)

// Encoding is a face descriptor produced by the recognition model.
type Encoding []float32

// KnownFaces is the labelled encoding set built from training images.
// Names[i] belongs to Encodings[i]; a person usually appears many times.
type KnownFaces struct {
	Names     []string
	Encodings []Encoding
}

// ErrMismatchedSet is returned when names and encodings are out of step.
var ErrMismatchedSet = errors.New("known faces: names and encodings differ in length")

// Add appends one labelled encoding.
func (k *KnownFaces) Add(name string, enc Encoding) {
	k.Names = append(k.Names, name)
	k.Encodings = append(k.Encodings, enc)
}

// Len returns the number of labelled encodings.
func (k *KnownFaces) Len() int {
	if k == nil {
		return 0
	}
	return len(k.Encodings)
}

// People returns the distinct names in first-seen order.
func (k *KnownFaces) People() []string {
	if k == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(k.Names))
	var people []string
	for _, name := range k.Names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		people = append(people, name)
	}
	return people
}

// Validate checks the set is internally consistent.
func (k *KnownFaces) Validate() error {
	if k == nil {
		return nil
	}
	if len(k.Names) != len(k.Encodings) {
		return fmt.Errorf("%w: %d names, %d encodings", ErrMismatchedSet, len(k.Names), len(k.Encodings))
	}
	return nil
}

// Match is the outcome of voting for a single unknown face.
type Match struct {
	Name         string // empty when Matched is false
	Matched      bool
	Votes        int     // number of known encodings within tolerance for Name
	BestDistance float64 // smallest distance to any known encoding
}

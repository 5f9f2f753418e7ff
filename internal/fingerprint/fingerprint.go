// Package fingerprint computes perceptual difference hashes so that
// near-identical training photos can be spotted. A photo copied into a
// person's folder twice counts twice in every vote.
package fingerprint

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/disintegration/imaging"
)

// Hash is a 64-bit difference hash.
type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// Compute returns the dHash of img: the image is shrunk to 9x8 grey pixels
// and each bit records whether a pixel is brighter than its right neighbour.
func Compute(img image.Image) Hash {
	small := imaging.Grayscale(imaging.Resize(img, 9, 8, imaging.Box))

	var h Hash
	bit := 63
	for y := range 8 {
		for x := range 8 {
			left := small.NRGBAAt(x, y).R
			right := small.NRGBAAt(x+1, y).R
			if left > right {
				h |= 1 << bit
			}
			bit--
		}
	}
	return h
}

// Distance is the Hamming distance between two hashes.
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Index remembers hashes and reports near duplicates.
type Index struct {
	threshold int
	keys      []string
	hashes    []Hash
}

// NewIndex creates an index treating hashes at most threshold bits apart
// as the same picture.
func NewIndex(threshold int) *Index {
	return &Index{threshold: threshold}
}

// Add records h under key. When an earlier entry is within the threshold
// its key is returned with ok=true.
func (i *Index) Add(key string, h Hash) (duplicateOf string, ok bool) {
	for n, existing := range i.hashes {
		if Distance(existing, h) <= i.threshold {
			duplicateOf, ok = i.keys[n], true
			break
		}
	}
	i.keys = append(i.keys, key)
	i.hashes = append(i.hashes, h)
	return duplicateOf, ok
}

// Len returns the number of recorded hashes.
func (i *Index) Len() int {
	return len(i.hashes)
}

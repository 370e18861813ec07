package adjacency

import "tilephase/internal/profile"

const (
	// alphaFloor is the normalized alpha below which a sample pair carries
	// no adjacency signal and is excluded from the denominator.
	alphaFloor = 0.1
	// alphaTolerance is the max normalized alpha difference for a pair of
	// samples to still count as matching.
	alphaTolerance = 0.35
)

// alphaScore compares two border strips sample by sample. It returns the
// fraction of considered pairs (either sample above alphaFloor) whose
// difference stays under alphaTolerance. Nil or empty strips score 0.
// The comparison is symmetric in its arguments.
func alphaScore(a, b []byte) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	considered := 0
	matches := 0
	for i := 0; i < n; i++ {
		na := float64(a[i]) / 255
		nb := float64(b[i]) / 255
		if na <= alphaFloor && nb <= alphaFloor {
			continue
		}
		considered++
		d := na - nb
		if d < 0 {
			d = -d
		}
		if d < alphaTolerance {
			matches++
		}
	}
	if considered == 0 {
		return 0
	}
	return float64(matches) / float64(considered)
}

// chromaScore is 1 minus the circular hue distance between two edges.
// Identical hues score 1, opposite hues 0.5.
func chromaScore(a, b profile.HSL) float64 {
	return 1 - profile.HueDistance(a.H, b.H)
}

package adjacency

import (
	"math"
	"testing"

	"tilephase/internal/profile"
)

func TestAlphaScore_Symmetric(t *testing.T) {
	a := []byte{0, 40, 200, 255, 10, 130}
	b := []byte{5, 250, 190, 255, 0, 20}
	if got, want := alphaScore(a, b), alphaScore(b, a); got != want {
		t.Fatalf("alphaScore not symmetric: %v vs %v", got, want)
	}
}

func TestChromaScore_Symmetric(t *testing.T) {
	x := profile.HSL{H: 0.9, S: 1, L: 0.5}
	y := profile.HSL{H: 0.1, S: 1, L: 0.5}
	if got, want := chromaScore(x, y), chromaScore(y, x); got != want {
		t.Fatalf("chromaScore not symmetric: %v vs %v", got, want)
	}
	// 0.9 vs 0.1 wraps to distance 0.2.
	if got := chromaScore(x, y); math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("wrap-around chroma: got %v want 0.8", got)
	}
}

func TestAlphaScore_TransparentPairsExcluded(t *testing.T) {
	// All pairs below the alpha floor: no signal, score 0.
	a := []byte{0, 0, 10, 5}
	b := []byte{0, 12, 0, 8}
	if got := alphaScore(a, b); got != 0 {
		t.Fatalf("near-zero strips: got %v want 0", got)
	}
}

func TestAlphaScore_Matching(t *testing.T) {
	a := []byte{255, 255, 255, 255}
	b := []byte{255, 250, 240, 255}
	if got := alphaScore(a, b); got != 1 {
		t.Fatalf("identical-ish strips: got %v want 1", got)
	}
}

func TestAlphaScore_EmptyStrips(t *testing.T) {
	if got := alphaScore(nil, []byte{1, 2}); got != 0 {
		t.Fatalf("nil strip: got %v want 0", got)
	}
	if got := alphaScore([]byte{}, []byte{1, 2}); got != 0 {
		t.Fatalf("empty strip: got %v want 0", got)
	}
}

func TestAlphaScore_ToleranceBoundary(t *testing.T) {
	// Normalized difference just under / well over the tolerance.
	under := []byte{255}
	underB := []byte{byte(255 - int(math.Floor(0.3*255)))}
	if got := alphaScore(under, underB); got != 1 {
		t.Fatalf("under tolerance: got %v want 1", got)
	}
	over := []byte{255}
	overB := []byte{0}
	if got := alphaScore(over, overB); got != 0 {
		t.Fatalf("over tolerance: got %v want 0", got)
	}
}

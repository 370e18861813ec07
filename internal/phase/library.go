package phase

import (
	"sync/atomic"

	"tilephase/internal/catalog"
)

// Library is the immutable (family, phase) → variant table. Build once,
// read from anywhere; a re-import or re-authoring builds a fresh table and
// publishes it through a Holder, never edits this one.
type Library struct {
	numPhases int
	byFamily  map[int][]catalog.Variant
	digest    string
}

// BuildLibrary copies the authored catalog into a lookup table. The catalog
// slices are copied so later authoring-side mutation cannot leak in.
func BuildLibrary(c *catalog.Catalog) *Library {
	l := &Library{
		numPhases: c.NumPhases,
		byFamily:  make(map[int][]catalog.Variant, len(c.ByFamily)),
		digest:    c.Digest,
	}
	for fam, variants := range c.ByFamily {
		vs := make([]catalog.Variant, len(variants))
		copy(vs, variants)
		l.byFamily[fam] = vs
	}
	return l
}

// NumPhases is the library-wide phase count.
func (l *Library) NumPhases() int { return l.numPhases }

// Digest identifies the authored input this table was built from.
func (l *Library) Digest() string { return l.digest }

// Variant resolves (family, phase). The phase index is clamped into the
// family's own variant range, so partially-authored families degrade to
// their last available phase. The second return is false when the family
// is unknown or has no variants at all.
func (l *Library) Variant(family, phase int) (catalog.Variant, int, bool) {
	variants, ok := l.byFamily[family]
	if !ok || len(variants) == 0 {
		return catalog.Variant{}, 0, false
	}
	if phase < 0 {
		phase = 0
	}
	if phase >= len(variants) {
		phase = len(variants) - 1
	}
	return variants[phase], phase, true
}

// Holder publishes the active library by atomic reference replacement.
// Readers mid-sweep keep whatever table they grabbed; they never observe a
// partially-built one.
type Holder struct {
	cur atomic.Pointer[Library]
}

func (h *Holder) Publish(l *Library) { h.cur.Store(l) }

// Current returns the active library, or nil when none is loaded.
func (h *Holder) Current() *Library { return h.cur.Load() }

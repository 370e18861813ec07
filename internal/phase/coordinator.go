package phase

// Coordinator keeps live render bindings in sync with the phase control.
// It owns the tile-type → family records (fed from the latest resolution
// run) and is, by convention, the only writer of binding variant fields.
type Coordinator struct {
	lib *Holder

	// families maps tile-type ID to family ID. Replaced wholesale when a
	// resolution run finishes; never mutated during a sweep.
	families map[int]int
}

func NewCoordinator(lib *Holder) *Coordinator {
	return &Coordinator{
		lib:      lib,
		families: map[int]int{},
	}
}

// SetFamilies installs the family assignment from a resolution run, where
// slot i holds the family of tile-type i.
func (c *Coordinator) SetFamilies(families []int) {
	m := make(map[int]int, len(families))
	for typeID, fam := range families {
		m[typeID] = fam
	}
	c.families = m
}

// FamilyOf returns the family for a tile type, or -1 when unresolved.
func (c *Coordinator) FamilyOf(typeID int) int {
	fam, ok := c.families[typeID]
	if !ok {
		return -1
	}
	return fam
}

// Apply runs one swap sweep against the control value. It is a no-op when
// the control is clean or no library is loaded. On a dirty control it
// rewrites the binding of every instance whose resolved variant data
// (index, sheet, material or region) changed,
// then clears the dirty flag, so re-running with the same value writes
// nothing. It returns the number of bindings written.
//
// Unresolved instances (unknown family, or a family with no authored
// variants) are skipped with their current binding left intact: stale but
// valid display beats a placeholder.
func (c *Coordinator) Apply(ctl *Control, instances []*TileInstance) int {
	if ctl == nil || !ctl.Dirty() {
		return 0
	}
	lib := c.lib.Current()
	if lib == nil || lib.NumPhases() == 0 {
		// Nothing to do; keep the control dirty so a later library load
		// still applies the pending phase.
		return 0
	}

	phase := clamp(ctl.Phase(), 0, lib.NumPhases()-1)
	writes := c.sweep(lib, phase, instances, nil)
	ctl.clear()
	return writes
}

// ApplyZone runs the same sweep restricted to instances inside region,
// using a local phase override. It neither reads nor clears the global
// control.
func (c *Coordinator) ApplyZone(region Rect, phase int, instances []*TileInstance) int {
	lib := c.lib.Current()
	if lib == nil || lib.NumPhases() == 0 {
		return 0
	}
	phase = clamp(phase, 0, lib.NumPhases()-1)
	return c.sweep(lib, phase, instances, &region)
}

func (c *Coordinator) sweep(lib *Library, phase int, instances []*TileInstance, region *Rect) int {
	writes := 0
	for _, inst := range instances {
		if inst == nil {
			continue
		}
		if region != nil && !region.contains(inst.X, inst.Y) {
			continue
		}
		fam, ok := c.families[inst.TypeID]
		if !ok {
			continue
		}
		v, vi, ok := lib.Variant(fam, phase)
		if !ok {
			continue
		}
		b := &inst.Binding
		if b.Variant == vi && b.Sheet == v.Sheet && b.Material == v.Material && b.Region == v.Region {
			continue
		}
		b.Variant = vi
		b.Sheet = v.Sheet
		b.Material = v.Material
		b.Region = v.Region
		writes++
	}
	return writes
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

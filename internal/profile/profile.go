package profile

// Dir identifies one border of a tile.
type Dir uint8

const (
	DirTop Dir = iota
	DirRight
	DirBottom
	DirLeft
)

func (d Dir) String() string {
	switch d {
	case DirTop:
		return "top"
	case DirRight:
		return "right"
	case DirBottom:
		return "bottom"
	case DirLeft:
		return "left"
	}
	return "?"
}

// Opposite returns the border that touches d on the neighboring tile.
func (d Dir) Opposite() Dir { return (d + 2) & 3 }

// HSL is a hue/saturation/lightness triple, each component in [0,1).
// Hue wraps: 0 and 1 are the same angle.
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// EdgeProfile is the sampled border signature of one tile. It is immutable
// once built; a re-import replaces the whole store.
type EdgeProfile struct {
	Index int

	// Strips holds the 1px border alpha samples per edge, values 0..255.
	// Top and bottom run left-to-right, left and right run top-to-bottom.
	// A nil or empty strip means the sampler had nothing for that edge.
	Strips [4][]byte

	// EdgeHSL is the average color of each edge's opaque samples, in HSL.
	EdgeHSL [4]HSL

	// Avg is the average color over the whole tile's opaque pixels.
	Avg Color
}

// Store holds every edge profile for one imported sheet, dense by tile index.
// Tile indices are row-major over the sheet grid: index = row*Cols + col.
type Store struct {
	Cols, Rows   int
	TileW, TileH int

	Profiles []EdgeProfile
}

// Len returns the number of tiles in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Profiles)
}

// At returns the profile for a tile index, or nil when out of range.
func (s *Store) At(idx int) *EdgeProfile {
	if s == nil || idx < 0 || idx >= len(s.Profiles) {
		return nil
	}
	return &s.Profiles[idx]
}

// RightOf returns the tile index to the right of idx, or -1 at the sheet edge.
func (s *Store) RightOf(idx int) int {
	if s == nil || s.Cols <= 0 {
		return -1
	}
	if idx%s.Cols == s.Cols-1 {
		return -1
	}
	n := idx + 1
	if n >= len(s.Profiles) {
		return -1
	}
	return n
}

// BelowOf returns the tile index below idx, or -1 at the sheet edge.
func (s *Store) BelowOf(idx int) int {
	if s == nil || s.Cols <= 0 {
		return -1
	}
	n := idx + s.Cols
	if n >= len(s.Profiles) {
		return -1
	}
	return n
}

package phase

import (
	"tilephase/internal/catalog"
	"tilephase/internal/profile"
)

// RenderBinding is the render-facing descriptor of a placed tile. The swap
// coordinator is the sole writer of the variant fields after the initial
// bind; world and grid data never live here.
type RenderBinding struct {
	Sheet    string
	Material string
	Region   catalog.Region
	Tint     profile.Color

	// Variant is the phase-variant index currently bound, or -1 before the
	// first sweep touches the instance.
	Variant int
}

// TileInstance is a live placed tile. Position and type belong to the
// placement layer; this package only reads them and rewrites Binding.
type TileInstance struct {
	X, Y   int
	TypeID int

	Binding RenderBinding
}

// NewTileInstance returns an instance with an unbound render binding.
func NewTileInstance(x, y, typeID int) *TileInstance {
	return &TileInstance{
		X:      x,
		Y:      y,
		TypeID: typeID,
		Binding: RenderBinding{
			Variant: -1,
		},
	}
}

// Rect is an inclusive grid region for zone-scoped sweeps.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

func (r Rect) contains(x, y int) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

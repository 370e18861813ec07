package profile

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// LoadSheet reads a PNG sprite sheet and samples edge profiles for every
// tileW×tileH cell in it.
func LoadSheet(path string, tileW, tileH int) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return SampleSheet(img, tileW, tileH)
}

// SampleSheet slices an image into a tile grid (row-major) and builds the
// edge-profile store for it: per-edge 1px alpha strips, per-edge average
// color in HSL, and the whole-tile average color.
func SampleSheet(img image.Image, tileW, tileH int) (*Store, error) {
	if tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("bad tile size %dx%d", tileW, tileH)
	}
	b := img.Bounds()
	if b.Dx()%tileW != 0 || b.Dy()%tileH != 0 {
		return nil, fmt.Errorf("sheet %dx%d not divisible by tile %dx%d", b.Dx(), b.Dy(), tileW, tileH)
	}

	cols := b.Dx() / tileW
	rows := b.Dy() / tileH
	st := &Store{
		Cols:     cols,
		Rows:     rows,
		TileW:    tileW,
		TileH:    tileH,
		Profiles: make([]EdgeProfile, 0, cols*rows),
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			p := sampleTile(img, b.Min.X+col*tileW, b.Min.Y+row*tileH, tileW, tileH)
			p.Index = len(st.Profiles)
			st.Profiles = append(st.Profiles, p)
		}
	}
	return st, nil
}

func sampleTile(img image.Image, ox, oy, w, h int) EdgeProfile {
	var p EdgeProfile

	p.Strips[DirTop] = make([]byte, w)
	p.Strips[DirBottom] = make([]byte, w)
	p.Strips[DirLeft] = make([]byte, h)
	p.Strips[DirRight] = make([]byte, h)

	var acc [4]colorAcc
	var tile colorAcc

	for x := 0; x < w; x++ {
		c, a := pixelAt(img, ox+x, oy)
		p.Strips[DirTop][x] = a
		acc[DirTop].add(c, a)

		c, a = pixelAt(img, ox+x, oy+h-1)
		p.Strips[DirBottom][x] = a
		acc[DirBottom].add(c, a)
	}
	for y := 0; y < h; y++ {
		c, a := pixelAt(img, ox, oy+y)
		p.Strips[DirLeft][y] = a
		acc[DirLeft].add(c, a)

		c, a = pixelAt(img, ox+w-1, oy+y)
		p.Strips[DirRight][y] = a
		acc[DirRight].add(c, a)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c, a := pixelAt(img, ox+x, oy+y)
			tile.add(c, a)
		}
	}

	for d := 0; d < 4; d++ {
		p.EdgeHSL[d] = RGBToHSL(acc[d].mean())
	}
	p.Avg = tile.mean()
	return p
}

func pixelAt(img image.Image, x, y int) (Color, byte) {
	r, g, b, a := img.At(x, y).RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}, uint8(a >> 8)
}

// colorAcc averages the colors of opaque-enough pixels. Fully transparent
// pixels carry no chroma signal and are excluded.
type colorAcc struct {
	r, g, b uint64
	n       uint64
}

func (c *colorAcc) add(px Color, a byte) {
	if a < 26 { // ~0.1 normalized alpha
		return
	}
	c.r += uint64(px.R)
	c.g += uint64(px.G)
	c.b += uint64(px.B)
	c.n++
}

func (c *colorAcc) mean() Color {
	if c.n == 0 {
		return Color{}
	}
	return Color{
		R: uint8(c.r / c.n),
		G: uint8(c.g / c.n),
		B: uint8(c.b / c.n),
	}
}

package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"tilephase/internal/encoding"
)

// Snapshot format: zstd-compressed JSONL. First line is a header, then one
// line per tile profile with RLE-compacted alpha strips. A malformed profile
// line is skipped on read; it never fails the whole import.

// maxSnapshotTiles bounds the allocation a snapshot header can demand.
const maxSnapshotTiles = 1 << 20

type snapshotHeader struct {
	Cols  int `json:"cols"`
	Rows  int `json:"rows"`
	TileW int `json:"tile_w"`
	TileH int `json:"tile_h"`
}

type snapshotProfile struct {
	Index  int       `json:"index"`
	Strips [4]string `json:"strips"` // RLE, order top/right/bottom/left
	Edges  [4]HSL    `json:"edges"`
	Avg    Color     `json:"avg"`
}

// WriteSnapshot writes the store to path, creating parent directories.
func WriteSnapshot(path string, st *Store) error {
	if st == nil {
		return fmt.Errorf("nil store")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(enc)

	writeLine := func(v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}

	hdr := snapshotHeader{Cols: st.Cols, Rows: st.Rows, TileW: st.TileW, TileH: st.TileH}
	if err := writeLine(hdr); err != nil {
		return err
	}
	for i := range st.Profiles {
		p := &st.Profiles[i]
		row := snapshotProfile{Index: p.Index, Edges: p.EdgeHSL, Avg: p.Avg}
		for d := 0; d < 4; d++ {
			row.Strips[d] = encoding.EncodeAlphaRLE(p.Strips[d])
		}
		if err := writeLine(row); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

// ReadSnapshot loads a store written by WriteSnapshot. Corrupt profile lines
// are dropped (the tile keeps a zero profile); a corrupt header is fatal.
func ReadSnapshot(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: empty snapshot", path)
	}
	var hdr snapshotHeader
	if err := json.Unmarshal(sc.Bytes(), &hdr); err != nil {
		return nil, fmt.Errorf("%s: bad header: %w", path, err)
	}
	if hdr.Cols <= 0 || hdr.Rows <= 0 || hdr.TileW <= 0 || hdr.TileH <= 0 {
		return nil, fmt.Errorf("%s: bad header: dims %dx%d tile %dx%d",
			path, hdr.Cols, hdr.Rows, hdr.TileW, hdr.TileH)
	}
	if hdr.Cols*hdr.Rows > maxSnapshotTiles {
		return nil, fmt.Errorf("%s: bad header: %d tiles exceeds limit %d",
			path, hdr.Cols*hdr.Rows, maxSnapshotTiles)
	}

	st := &Store{
		Cols:     hdr.Cols,
		Rows:     hdr.Rows,
		TileW:    hdr.TileW,
		TileH:    hdr.TileH,
		Profiles: make([]EdgeProfile, hdr.Cols*hdr.Rows),
	}
	for i := range st.Profiles {
		st.Profiles[i].Index = i
	}

	for sc.Scan() {
		var row snapshotProfile
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			continue
		}
		if row.Index < 0 || row.Index >= len(st.Profiles) {
			continue
		}
		p := &st.Profiles[row.Index]
		ok := true
		var strips [4][]byte
		for d := 0; d < 4; d++ {
			s, err := encoding.DecodeAlphaRLE(row.Strips[d])
			if err != nil {
				ok = false
				break
			}
			strips[d] = s
		}
		if !ok {
			continue
		}
		p.Strips = strips
		p.EdgeHSL = row.Edges
		p.Avg = row.Avg
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return st, nil
}

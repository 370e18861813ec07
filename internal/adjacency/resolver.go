package adjacency

import "tilephase/internal/profile"

// Config controls how edge compatibility is scored and merged into families.
type Config struct {
	ChromaWeight float64
	AlphaWeight  float64

	// MatchThreshold gates the union-find merge passes.
	MatchThreshold float64

	// ReportThreshold gates the neighbor report only. Clustering never
	// depends on it.
	ReportThreshold float64

	// ChromaFirst selects which single criterion drives the primary merge
	// pass before the combined-score pass: hue likeness when true,
	// silhouette likeness when false.
	ChromaFirst bool
}

// PairScore is one scored candidate edge between grid-adjacent tiles.
// A is always the lower tile index; Dir is the border of A that touches B
// (right or bottom, the only candidate directions).
type PairScore struct {
	A, B   int
	Dir    profile.Dir
	Alpha  float64
	Chroma float64
	Total  float64
}

// NeighborEntry records one neighbor of a tile that cleared the reporting
// threshold, for visualization and downstream heuristics.
type NeighborEntry struct {
	Neighbor int
	Score    float64
}

// Result is the output of one resolution run over a profile store.
type Result struct {
	// Families maps tile index to its dense family ID, assigned in
	// first-discovery order over ascending tile index.
	Families []int

	FamilyCount int

	// Neighbors lists, per tile, the neighbors whose total score cleared
	// Config.ReportThreshold.
	Neighbors [][]NeighborEntry

	// Pairs holds every scored candidate edge, for the debug surface.
	Pairs []PairScore
}

// FamilyOf returns the family for a tile index, or -1 when out of range.
func (r *Result) FamilyOf(tile int) int {
	if r == nil || tile < 0 || tile >= len(r.Families) {
		return -1
	}
	return r.Families[tile]
}

// Resolve scores every right/bottom grid-adjacent tile pair and partitions
// the tiles into families. The run is deterministic: identical inputs give
// identical family arrays, including the ID numbering.
func Resolve(st *profile.Store, cfg Config) *Result {
	n := st.Len()
	res := &Result{
		Families:  make([]int, n),
		Neighbors: make([][]NeighborEntry, n),
	}
	if n == 0 {
		return res
	}

	res.Pairs = scorePairs(st, cfg)

	uf := newUnionFind(n)

	// Primary pass by the single selected criterion, then the combined
	// score. Folding both into one predicate would change which borderline
	// pairs merge first and therefore the resulting partition.
	for _, p := range res.Pairs {
		primary := p.Alpha
		if cfg.ChromaFirst {
			primary = p.Chroma
		}
		if primary >= cfg.MatchThreshold {
			uf.union(p.A, p.B)
		}
	}
	for _, p := range res.Pairs {
		if p.Total >= cfg.MatchThreshold {
			uf.union(p.A, p.B)
		}
	}

	// Dense family IDs in first-discovery order over ascending tile index.
	// This numbering is part of the determinism contract.
	next := 0
	byRoot := make(map[int]int, n)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		id, ok := byRoot[root]
		if !ok {
			id = next
			next++
			byRoot[root] = id
		}
		res.Families[i] = id
	}
	res.FamilyCount = next

	for _, p := range res.Pairs {
		if p.Total >= cfg.ReportThreshold {
			res.Neighbors[p.A] = append(res.Neighbors[p.A], NeighborEntry{Neighbor: p.B, Score: p.Total})
			res.Neighbors[p.B] = append(res.Neighbors[p.B], NeighborEntry{Neighbor: p.A, Score: p.Total})
		}
	}

	return res
}

// scorePairs builds the candidate edges: each tile against its immediate
// right and bottom sheet neighbors only, keeping the edge count linear in
// the tile count.
func scorePairs(st *profile.Store, cfg Config) []PairScore {
	pairs := make([]PairScore, 0, 2*st.Len())
	for i := 0; i < st.Len(); i++ {
		if r := st.RightOf(i); r >= 0 {
			pairs = append(pairs, scorePair(st, cfg, i, r, profile.DirRight))
		}
		if b := st.BelowOf(i); b >= 0 {
			pairs = append(pairs, scorePair(st, cfg, i, b, profile.DirBottom))
		}
	}
	return pairs
}

func scorePair(st *profile.Store, cfg Config, a, b int, dir profile.Dir) PairScore {
	pa, pb := st.At(a), st.At(b)
	opp := dir.Opposite()

	p := PairScore{A: a, B: b, Dir: dir}
	p.Alpha = alphaScore(pa.Strips[dir], pb.Strips[opp])
	p.Chroma = chromaScore(pa.EdgeHSL[dir], pb.EdgeHSL[opp])
	p.Total = cfg.ChromaWeight*p.Chroma + cfg.AlphaWeight*p.Alpha
	return p
}

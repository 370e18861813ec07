package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"tilephase/internal/adjacency"
	"tilephase/internal/profile"
	"tilephase/internal/tuning"
)

// resolve is the batch import tool: sample a sheet, cluster its tiles into
// families and print the result. Useful for tuning thresholds without
// running the server.
func main() {
	var (
		sheetPath  = flag.String("sheet", "", "tile sheet PNG (required)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		snapPath   = flag.String("snapshot", "", "write a profile snapshot here (optional)")
		asJSON     = flag.Bool("json", false, "emit the result as JSON")
		neighbors  = flag.Bool("neighbors", false, "print per-tile neighbor reports")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[resolve] ", log.LstdFlags)

	if strings.TrimSpace(*sheetPath) == "" {
		logger.Fatalf("missing -sheet")
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	store, err := profile.LoadSheet(*sheetPath, tune.TileW, tune.TileH)
	if err != nil {
		logger.Fatalf("import sheet: %v", err)
	}

	res := adjacency.Resolve(store, tune.ResolverConfig())

	if *snapPath != "" {
		if err := profile.WriteSnapshot(*snapPath, store); err != nil {
			logger.Fatalf("snapshot: %v", err)
		}
	}

	if *asJSON {
		out := struct {
			Tiles    int   `json:"tiles"`
			Families []int `json:"families"`
			Count    int   `json:"family_count"`
		}{store.Len(), res.Families, res.FamilyCount}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			logger.Fatalf("encode: %v", err)
		}
		return
	}

	fmt.Printf("%s: %d tiles (%dx%d grid), %d families\n",
		*sheetPath, store.Len(), store.Cols, store.Rows, res.FamilyCount)

	members := make(map[int][]int)
	for tile, fam := range res.Families {
		members[fam] = append(members[fam], tile)
	}
	for fam := 0; fam < res.FamilyCount; fam++ {
		fmt.Printf("  family %d: %v\n", fam, members[fam])
	}

	if *neighbors {
		for tile, list := range res.Neighbors {
			if len(list) == 0 {
				continue
			}
			fmt.Printf("  tile %d (family %d):", tile, res.FamilyOf(tile))
			for _, n := range list {
				fmt.Printf(" %d(%.2f)", n.Neighbor, n.Score)
			}
			fmt.Println()
		}
	}
}

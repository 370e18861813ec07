package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tilephase/internal/adjacency"
)

type Tuning struct {
	TileW int `yaml:"tile_w"`
	TileH int `yaml:"tile_h"`

	Resolver Resolver `yaml:"resolver"`
}

type Resolver struct {
	ChromaWeight    float64 `yaml:"chroma_weight"`
	AlphaWeight     float64 `yaml:"alpha_weight"`
	MatchThreshold  float64 `yaml:"match_threshold"`
	ReportThreshold float64 `yaml:"report_threshold"`
	ChromaFirst     bool    `yaml:"chroma_first"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		TileW: 16,
		TileH: 16,
		Resolver: Resolver{
			ChromaWeight:    0.5,
			AlphaWeight:     0.5,
			MatchThreshold:  0.8,
			ReportThreshold: 0.6,
			ChromaFirst:     false,
		},
	}
}

// ResolverConfig maps the tuning block onto the resolver's config.
func (t Tuning) ResolverConfig() adjacency.Config {
	return adjacency.Config{
		ChromaWeight:    t.Resolver.ChromaWeight,
		AlphaWeight:     t.Resolver.AlphaWeight,
		MatchThreshold:  t.Resolver.MatchThreshold,
		ReportThreshold: t.Resolver.ReportThreshold,
		ChromaFirst:     t.Resolver.ChromaFirst,
	}
}

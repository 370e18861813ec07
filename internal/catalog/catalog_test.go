package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `{
  "num_phases": 3,
  "families": [
    {
      "family_id": 0,
      "variants": [
        {"sheet": "tiles_a.png", "region": {"x": 0, "y": 0, "w": 16, "h": 16}, "material": "default"},
        {"sheet": "tiles_a.png", "region": {"x": 16, "y": 0, "w": 16, "h": 16}, "material": "default"},
        {"sheet": "tiles_a.png", "region": {"x": 32, "y": 0, "w": 16, "h": 16}, "material": "default"}
      ]
    },
    {
      "family_id": 1,
      "variants": [
        {"sheet": "tiles_b.png", "region": {"x": 0, "y": 0, "w": 16, "h": 16}, "material": "default"}
      ]
    }
  ]
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func schemaPath(t *testing.T) string {
	t.Helper()
	return filepath.Join("..", "..", "schemas", "variants.schema.json")
}

func TestLoad_Sample(t *testing.T) {
	p := writeTemp(t, "variants.json", sampleCatalog)
	c, err := Load(p, schemaPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.NumPhases != 3 {
		t.Fatalf("num phases: got %d want 3", c.NumPhases)
	}
	if len(c.ByFamily[0]) != 3 || len(c.ByFamily[1]) != 1 {
		t.Fatalf("variant counts: %d / %d", len(c.ByFamily[0]), len(c.ByFamily[1]))
	}
	if c.Digest == "" {
		t.Fatalf("empty digest")
	}
	if c.ByFamily[0][1].Region.X != 16 {
		t.Fatalf("region: %+v", c.ByFamily[0][1].Region)
	}
}

func TestLoad_NumPhasesDefaultsToLongestList(t *testing.T) {
	p := writeTemp(t, "variants.json", `{
	  "families": [
	    {"family_id": 0, "variants": [
	      {"sheet": "a.png", "region": {"x":0,"y":0,"w":8,"h":8}, "material": "m"},
	      {"sheet": "a.png", "region": {"x":8,"y":0,"w":8,"h":8}, "material": "m"}
	    ]},
	    {"family_id": 1, "variants": []}
	  ]
	}`)
	c, err := Load(p, schemaPath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.NumPhases != 2 {
		t.Fatalf("num phases: got %d want 2", c.NumPhases)
	}
}

func TestLoad_SchemaRejectsMalformed(t *testing.T) {
	p := writeTemp(t, "variants.json", `{
	  "families": [
	    {"family_id": "zero", "variants": []}
	  ]
	}`)
	if _, err := Load(p, schemaPath(t)); err == nil {
		t.Fatalf("want schema validation error")
	}
}

func TestLoad_DuplicateFamily(t *testing.T) {
	p := writeTemp(t, "variants.json", `{
	  "families": [
	    {"family_id": 0, "variants": []},
	    {"family_id": 0, "variants": []}
	  ]
	}`)
	if _, err := Load(p, schemaPath(t)); err == nil {
		t.Fatalf("want duplicate-family error")
	}
}

func TestLoad_DigestStable(t *testing.T) {
	p := writeTemp(t, "variants.json", sampleCatalog)
	a, err := Load(p, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, err := Load(p, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Digest != b.Digest {
		t.Fatalf("digest not stable: %s vs %s", a.Digest, b.Digest)
	}
}

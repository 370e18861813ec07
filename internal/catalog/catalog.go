package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Region is an atlas rectangle in sheet pixels.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Variant is one authored visual skin: a sprite sheet, an atlas region in it
// and a material reference.
type Variant struct {
	Sheet    string `json:"sheet"`
	Region   Region `json:"region"`
	Material string `json:"material"`
}

// FamilyVariants is the authored phase list for one family. Lists may have
// different lengths per family; short lists clamp at swap time.
type FamilyVariants struct {
	FamilyID int       `json:"family_id"`
	Variants []Variant `json:"variants"`
}

// Catalog is the parsed authored phase-variant input.
type Catalog struct {
	// NumPhases is the library-wide phase count: the authored value when
	// present, otherwise the longest variant list.
	NumPhases int
	Families  []FamilyVariants
	ByFamily  map[int][]Variant
	Digest    string
}

type catalogFile struct {
	NumPhases int              `json:"num_phases"`
	Families  []FamilyVariants `json:"families"`
}

// Load reads and parses an authored variant catalog. When schemaPath is
// non-empty the raw document is validated against it first, so authoring
// mistakes fail at load rather than as odd swap behavior later.
func Load(path, schemaPath string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if schemaPath != "" {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", schemaPath, err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	var cf catalogFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c := &Catalog{
		NumPhases: cf.NumPhases,
		Families:  cf.Families,
		ByFamily:  make(map[int][]Variant, len(cf.Families)),
	}
	for _, fv := range cf.Families {
		if fv.FamilyID < 0 {
			return nil, fmt.Errorf("%s: negative family id %d", path, fv.FamilyID)
		}
		if _, dup := c.ByFamily[fv.FamilyID]; dup {
			return nil, fmt.Errorf("%s: duplicate family id %d", path, fv.FamilyID)
		}
		c.ByFamily[fv.FamilyID] = fv.Variants
	}
	if c.NumPhases <= 0 {
		for _, fv := range cf.Families {
			if len(fv.Variants) > c.NumPhases {
				c.NumPhases = len(fv.Variants)
			}
		}
	}

	sum := sha256.Sum256(raw)
	c.Digest = hex.EncodeToString(sum[:])
	return c, nil
}

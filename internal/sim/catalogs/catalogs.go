package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"imperialism.ai/internal/sim/goods"
)

type Catalogs struct {
	Goods     GoodsCatalog
	Buildings BuildingCatalog
}

// GoodsCatalog is the static goods palette. Its digest lets clients
// detect a palette change without reloading it.
type GoodsCatalog struct {
	Palette []goods.Good
	Digest  string
}

type BuildingKind string

const (
	TextileMill      BuildingKind = "TEXTILE_MILL"
	LumberMill       BuildingKind = "LUMBER_MILL"
	SteelMill        BuildingKind = "STEEL_MILL"
	FoodProcessing   BuildingKind = "FOOD_PROCESSING"
	ClothingFactory  BuildingKind = "CLOTHING_FACTORY"
	FurnitureFactory BuildingKind = "FURNITURE_FACTORY"
	MetalWorks       BuildingKind = "METAL_WORKS"
	Refinery         BuildingKind = "REFINERY"
	Railyard         BuildingKind = "RAILYARD"
)

type BuildingCatalog struct {
	// Order is the declaration order of buildings in the catalog file.
	Order  []BuildingKind
	ByKind map[BuildingKind]BuildingDef
	Digest string
}

type BuildingDef struct {
	Kind BuildingKind `json:"kind"`
	// Capacity is the maximum primary output per turn; 0 means unlimited.
	Capacity uint32          `json:"capacity"`
	Variants []RecipeVariant `json:"variants"`
}

type RecipeVariant struct {
	// Tag names the production choice selecting this variant. Empty for
	// buildings with a single way of producing an output.
	Tag     string       `json:"tag,omitempty"`
	Inputs  []GoodAmount `json:"inputs"`
	Outputs []GoodAmount `json:"outputs"`
}

type GoodAmount struct {
	Good   goods.Good `json:"good"`
	Amount uint32     `json:"amount"`
}

// Primary is the first declared output.
func (v RecipeVariant) Primary() GoodAmount {
	if len(v.Outputs) == 0 {
		return GoodAmount{}
	}
	return v.Outputs[0]
}

// Outputs lists the distinct primary outputs of a building in variant
// declaration order.
func (d BuildingDef) Outputs() []goods.Good {
	var out []goods.Good
	seen := map[goods.Good]bool{}
	for _, v := range d.Variants {
		p := v.Primary().Good
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// VariantsFor returns the variants whose primary output is g.
func (d BuildingDef) VariantsFor(g goods.Good) []RecipeVariant {
	var out []RecipeVariant
	for _, v := range d.Variants {
		if v.Primary().Good == g {
			out = append(out, v)
		}
	}
	return out
}

func (d BuildingDef) Produces(g goods.Good) bool { return len(d.VariantsFor(g)) > 0 }

func (c *BuildingCatalog) Get(kind BuildingKind) (BuildingDef, bool) {
	d, ok := c.ByKind[kind]
	return d, ok
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	loadGoods(&c.Goods)
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromBuildingsJSON builds catalogs from raw buildings.json content.
func FromBuildingsJSON(raw []byte) (*Catalogs, error) {
	var c Catalogs
	loadGoods(&c.Goods)
	if err := parseBuildings(raw, &c.Buildings); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadGoods(out *GoodsCatalog) {
	out.Palette = goods.All()
	palJSON, _ := json.Marshal(out.Palette)
	out.Digest = sha256Hex(palJSON)
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return parseBuildings(raw, out)
}

func parseBuildings(raw []byte, out *BuildingCatalog) error {
	out.Digest = sha256Hex(raw)

	var defs []BuildingDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	out.ByKind = map[BuildingKind]BuildingDef{}
	out.Order = out.Order[:0]
	for _, d := range defs {
		if d.Kind == "" {
			return fmt.Errorf("buildings.json: empty kind")
		}
		if _, dup := out.ByKind[d.Kind]; dup {
			return fmt.Errorf("buildings.json: duplicate kind %s", d.Kind)
		}
		if len(d.Variants) == 0 {
			return fmt.Errorf("buildings.json: %s has no variants", d.Kind)
		}
		tags := map[string]bool{}
		for i, v := range d.Variants {
			if len(v.Outputs) == 0 {
				return fmt.Errorf("buildings.json: %s variant %d has no outputs", d.Kind, i)
			}
			if v.Tag != "" {
				if tags[v.Tag] {
					return fmt.Errorf("buildings.json: %s duplicate tag %q", d.Kind, v.Tag)
				}
				tags[v.Tag] = true
			}
			for _, ga := range append(append([]GoodAmount(nil), v.Inputs...), v.Outputs...) {
				if !ga.Good.Valid() {
					return fmt.Errorf("buildings.json: %s unknown good %q", d.Kind, ga.Good)
				}
			}
		}
		out.ByKind[d.Kind] = d
		out.Order = append(out.Order, d.Kind)
	}
	return nil
}

// Kinds returns building kinds sorted by name.
func (c *BuildingCatalog) Kinds() []BuildingKind {
	out := make([]BuildingKind, 0, len(c.ByKind))
	for k := range c.ByKind {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

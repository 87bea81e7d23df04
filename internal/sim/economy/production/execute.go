package production

import (
	"fmt"
	"strings"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/goods"
)

type IngredientUse struct {
	Good     goods.Good `json:"good"`
	Required uint32     `json:"required"`
	Consumed uint32     `json:"consumed"`
}

// Shortfall is a non-fatal diagnostic: a building produced less than it
// was asked to because reserved inputs ran short.
type Shortfall struct {
	Building    catalogs.BuildingKind `json:"building"`
	Output      goods.Good            `json:"output"`
	Desired     uint32                `json:"desired"`
	Produced    uint32                `json:"produced"`
	Ingredients []IngredientUse       `json:"ingredients"`
}

func (s Shortfall) String() string {
	parts := make([]string, 0, len(s.Ingredients))
	for _, in := range s.Ingredients {
		parts = append(parts, fmt.Sprintf("%s %d/%d", in.Good, in.Consumed, in.Required))
	}
	return fmt.Sprintf("%s %s produced %d of %d (%s)", s.Building, s.Output, s.Produced, s.Desired, strings.Join(parts, ", "))
}

type Report struct {
	Building catalogs.BuildingKind `json:"building"`
	Output   goods.Good            `json:"output"`
	Variant  string                `json:"variant,omitempty"`
	Desired  uint32                `json:"desired"`
	Batches  uint32                `json:"batches"`
	Produced uint32                `json:"produced"`
	// Consumed is what left the stockpile per input good.
	Consumed  map[goods.Good]uint32 `json:"consumed,omitempty"`
	Shortfall *Shortfall            `json:"shortfall,omitempty"`
	Err       error                 `json:"-"`
}

// Execute runs one output of a building for the turn. Inputs come only
// from reserved stock. The produced primary quantity is written back to
// the setting's TargetOutput so the order carries into the next turn.
func Execute(def catalogs.BuildingDef, output goods.Good, s *Setting, labor, capacity uint32, stock *pool.Stockpile) Report {
	r := Report{Building: def.Kind, Output: output}

	desired := minU32(s.TargetOutput, minU32(labor, capacity))
	r.Desired = desired
	if desired == 0 {
		s.TargetOutput = 0
		return r
	}

	v, err := ResolveVariant(def, output, s.Choice)
	if err != nil {
		s.TargetOutput = 0
		r.Err = fmt.Errorf("%s %s choice %q: %w", def.Kind, output, s.Choice, err)
		return r
	}
	r.Variant = v.Tag

	perBatch := v.Primary().Amount
	if perBatch == 0 {
		s.TargetOutput = 0
		return r
	}
	batchesNeeded := (desired + perBatch - 1) / perBatch

	actual := batchesNeeded
	uses := make([]IngredientUse, 0, len(v.Inputs))
	r.Consumed = map[goods.Good]uint32{}
	for _, in := range v.Inputs {
		required := in.Amount * batchesNeeded
		consumed := stock.ConsumeReserved(in.Good, required)
		r.Consumed[in.Good] += consumed
		uses = append(uses, IngredientUse{Good: in.Good, Required: required, Consumed: consumed})
		if in.Amount == 0 {
			continue
		}
		if b := consumed / in.Amount; b < actual {
			actual = b
		}
	}
	r.Batches = actual

	for _, out := range v.Outputs {
		if n := actual * out.Amount; n > 0 {
			stock.Add(out.Good, n)
		}
	}
	produced := actual * perBatch
	r.Produced = produced
	if produced < desired {
		r.Shortfall = &Shortfall{
			Building:    def.Kind,
			Output:      output,
			Desired:     desired,
			Produced:    produced,
			Ingredients: uses,
		}
	}
	s.TargetOutput = produced
	return r
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

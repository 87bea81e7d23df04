package production

import (
	"math"

	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/goods"
)

// Setting is the persisted production order for one output of a building.
type Setting struct {
	TargetOutput uint32 `json:"target_output"`
	Choice       string `json:"choice,omitempty"`
}

type Building struct {
	Kind     catalogs.BuildingKind   `json:"kind"`
	Capacity uint32                  `json:"capacity"`
	Outputs  map[goods.Good]*Setting `json:"outputs,omitempty"`
}

func NewBuilding(def catalogs.BuildingDef) *Building {
	return &Building{Kind: def.Kind, Capacity: def.Capacity, Outputs: map[goods.Good]*Setting{}}
}

// Limit is the per-turn output ceiling; unlimited buildings report MaxUint32.
func (b *Building) Limit() uint32 {
	if b.Capacity == 0 {
		return math.MaxUint32
	}
	return b.Capacity
}

func (b *Building) Setting(g goods.Good) *Setting {
	if b.Outputs == nil {
		b.Outputs = map[goods.Good]*Setting{}
	}
	s := b.Outputs[g]
	if s == nil {
		s = &Setting{}
		b.Outputs[g] = s
	}
	return s
}

func (b *Building) Target(g goods.Good) uint32 {
	if s := b.Outputs[g]; s != nil {
		return s.TargetOutput
	}
	return 0
}

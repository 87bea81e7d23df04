// Package scenario loads YAML game setups: nations, rails, structures and
// an optional script of orders per turn. The server seeds fresh games from
// a scenario and econsim replays one to completion.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"imperialism.ai/internal/protocol"
	"imperialism.ai/internal/sim/catalogs"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/engine"
	"imperialism.ai/internal/sim/goods"
)

type Scenario struct {
	Name  string `yaml:"name"`
	Turns int    `yaml:"turns"`

	Nations    []Nation                     `yaml:"nations"`
	Structures []Structure                  `yaml:"structures"`
	Rails      []Rail                       `yaml:"rails"`
	Supply     map[string]map[string]uint32 `yaml:"supply"`
	Orders     []TurnOrders                 `yaml:"orders"`
}

type Tile struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (t Tile) tile() transport.Tile { return transport.Tile{X: t.X, Y: t.Y} }

type Nation struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Capital Tile   `yaml:"capital"`

	// Treasury replaces the tuning's starting treasury when set.
	Treasury     *uint32           `yaml:"treasury"`
	ExtraWorkers uint32            `yaml:"extra_workers"`
	Buildings    []string          `yaml:"buildings"`
	Stock        map[string]uint32 `yaml:"stock"`
}

type Structure struct {
	Kind  string `yaml:"kind"`
	Owner string `yaml:"owner"`
	Tile  Tile   `yaml:"tile"`
}

type Rail struct {
	A Tile `yaml:"a"`
	B Tile `yaml:"b"`
}

// TurnOrders is submitted by one nation during the player turn of Turn.
type TurnOrders struct {
	Turn   uint64  `yaml:"turn"`
	Nation string  `yaml:"nation"`
	Items  []Order `yaml:"items"`
}

type Order struct {
	Kind      string `yaml:"kind"`
	Building  string `yaml:"building"`
	Output    string `yaml:"output"`
	Choice    string `yaml:"choice"`
	Target    uint32 `yaml:"target"`
	Requested uint32 `yaml:"requested"`
	FromSkill string `yaml:"from_skill"`
	Good      string `yaml:"good"`
	Side      string `yaml:"side"`
	Commodity string `yaml:"commodity"`
}

func (o Order) item() protocol.OrderItem {
	return protocol.OrderItem{
		Kind:      strings.ToUpper(strings.TrimSpace(o.Kind)),
		Building:  o.Building,
		Output:    o.Output,
		Choice:    o.Choice,
		Target:    o.Target,
		Requested: o.Requested,
		FromSkill: strings.ToUpper(strings.TrimSpace(o.FromSkill)),
		Good:      o.Good,
		Side:      o.Side,
		Commodity: o.Commodity,
	}
}

func Load(path string) (Scenario, error) {
	var s Scenario
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s Scenario) Validate() error {
	if len(s.Nations) == 0 {
		return fmt.Errorf("scenario has no nations")
	}
	if s.Turns < 0 {
		return fmt.Errorf("turns must be >= 0")
	}
	seen := map[string]bool{}
	for _, n := range s.Nations {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("nation with empty id")
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate nation %s", n.ID)
		}
		seen[n.ID] = true
	}
	for _, st := range s.Structures {
		k := transport.StructureKind(strings.ToUpper(st.Kind))
		if k != transport.Depot && k != transport.Port {
			return fmt.Errorf("structure kind %q", st.Kind)
		}
		if !seen[st.Owner] {
			return fmt.Errorf("structure owner %q is not a nation", st.Owner)
		}
	}
	for _, to := range s.Orders {
		if !seen[to.Nation] {
			return fmt.Errorf("orders for unknown nation %q", to.Nation)
		}
		if to.Turn == 0 {
			return fmt.Errorf("orders for nation %s: turn must be >= 1", to.Nation)
		}
	}
	return nil
}

// Apply creates the scenario's nations and rail network in e. It must run
// before the first player turn.
func (s Scenario) Apply(e *engine.Engine) error {
	for _, spec := range s.Nations {
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		n, err := e.AddNation(spec.ID, name, spec.Capital.tile())
		if err != nil {
			return err
		}
		if spec.Treasury != nil {
			n.Treasury.Total = *spec.Treasury
		}
		if spec.ExtraWorkers > 0 {
			n.Workforce.AddUntrained(spec.ExtraWorkers)
			n.Workforce.RefreshLabor(n.Labor)
		}
		for _, b := range spec.Buildings {
			if err := n.AddBuilding(catalogs.BuildingKind(strings.ToUpper(b))); err != nil {
				return fmt.Errorf("nation %s: building %s: %w", spec.ID, b, err)
			}
		}
		for _, name := range sortedNames(spec.Stock) {
			g, err := goods.Parse(name)
			if err != nil {
				return fmt.Errorf("nation %s: stock: %w", spec.ID, err)
			}
			n.Stockpile.Add(g, spec.Stock[name])
		}
	}
	for _, st := range s.Structures {
		e.AddStructure(transport.Structure{
			Kind:  transport.StructureKind(strings.ToUpper(st.Kind)),
			Owner: st.Owner,
			Tile:  st.Tile.tile(),
		})
	}
	for _, r := range s.Rails {
		e.AddRail(transport.Rail{A: r.A.tile(), B: r.B.tile()})
	}
	for _, id := range sortedNames(s.Supply) {
		supply := map[goods.Good]uint32{}
		for _, name := range sortedNames(s.Supply[id]) {
			g, err := goods.Parse(name)
			if err != nil {
				return fmt.Errorf("supply %s: %w", id, err)
			}
			supply[g] += s.Supply[id][name]
		}
		e.SetConnectedSupply(id, supply)
	}
	return nil
}

// OrdersFor returns the scripted order batches for turn, in file order.
func (s Scenario) OrdersFor(turn uint64) []engine.NationOrder {
	var out []engine.NationOrder
	for i, to := range s.Orders {
		if to.Turn != turn {
			continue
		}
		msg := protocol.OrderMsg{
			Type:            protocol.TypeOrder,
			ProtocolVersion: protocol.Version,
			OrderID:         fmt.Sprintf("scenario-%d-%d", turn, i),
		}
		for _, it := range to.Items {
			msg.Orders = append(msg.Orders, it.item())
		}
		out = append(out, engine.NationOrder{Nation: to.Nation, Order: msg})
	}
	return out
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

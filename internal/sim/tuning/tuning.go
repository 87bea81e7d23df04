package tuning

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"imperialism.ai/internal/sim/goods"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" json:"protocol_version"`

	StartingTreasury  uint32   `yaml:"starting_treasury" json:"starting_treasury"`
	StartingWorkers   uint32   `yaml:"starting_workers" json:"starting_workers"`
	StartingProvinces uint32   `yaml:"starting_provinces" json:"starting_provinces"`
	StartingBuildings []string `yaml:"starting_buildings" json:"starting_buildings"`

	// ProcessingWorkers bounds how many nations run their processing step
	// concurrently. 1 runs nations serially.
	ProcessingWorkers  int `yaml:"processing_workers" json:"processing_workers"`
	SnapshotEveryTurns int `yaml:"snapshot_every_turns" json:"snapshot_every_turns"`
	TurnSeconds        int `yaml:"turn_seconds" json:"turn_seconds"`

	Transport   Transport   `yaml:"transport" json:"transport"`
	Recruitment Recruitment `yaml:"recruitment" json:"recruitment"`
	Training    Training    `yaml:"training" json:"training"`
	Market      Market      `yaml:"market" json:"market"`
}

type Transport struct {
	DepotCapacity uint32 `yaml:"depot_capacity" json:"depot_capacity"`
	PortCapacity  uint32 `yaml:"port_capacity" json:"port_capacity"`
}

type Recruitment struct {
	Cost                        map[string]uint32 `yaml:"cost" json:"cost"`
	ProvincesPerRecruit         uint32            `yaml:"provinces_per_recruit" json:"provinces_per_recruit"`
	UpgradedProvincesPerRecruit uint32            `yaml:"upgraded_provinces_per_recruit" json:"upgraded_provinces_per_recruit"`
}

type Training struct {
	Paper uint32 `yaml:"paper" json:"paper"`
	Money uint32 `yaml:"money" json:"money"`
}

type Market struct {
	BasePrices map[string]uint32 `yaml:"base_prices" json:"base_prices"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		StartingTreasury:   50_000,
		StartingWorkers:    6,
		StartingProvinces:  8,
		StartingBuildings:  []string{"TEXTILE_MILL", "LUMBER_MILL", "STEEL_MILL", "FOOD_PROCESSING"},
		ProcessingWorkers:  4,
		SnapshotEveryTurns: 10,
		TurnSeconds:        30,
		Transport: Transport{
			DepotCapacity: 6,
			PortCapacity:  8,
		},
		Recruitment: Recruitment{
			Cost: map[string]uint32{
				"CANNED_FOOD": 1,
				"CLOTHING":    1,
				"FURNITURE":   1,
			},
			ProvincesPerRecruit:         4,
			UpgradedProvincesPerRecruit: 3,
		},
		Training: Training{Paper: 1, Money: 100},
		Market: Market{
			BasePrices: map[string]uint32{
				"GRAIN":     60,
				"FRUIT":     60,
				"LIVESTOCK": 80,
				"FISH":      80,
				"COTTON":    90,
				"WOOL":      90,
				"TIMBER":    70,
				"COAL":      100,
				"IRON":      100,
				"OIL":       110,
			},
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize upper-cases good keys so config files may use any case.
func (t *Tuning) Normalize() {
	t.ProtocolVersion = strings.TrimSpace(t.ProtocolVersion)
	if t.ProcessingWorkers <= 0 {
		t.ProcessingWorkers = 1
	}
	t.Recruitment.Cost = upperKeys(t.Recruitment.Cost)
	t.Market.BasePrices = upperKeys(t.Market.BasePrices)
	for i, b := range t.StartingBuildings {
		t.StartingBuildings[i] = strings.ToUpper(strings.TrimSpace(b))
	}
}

func upperKeys(in map[string]uint32) map[string]uint32 {
	if in == nil {
		return nil
	}
	out := make(map[string]uint32, len(in))
	for k, v := range in {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

func (t Tuning) Validate() error {
	if t.ProtocolVersion == "" {
		return fmt.Errorf("protocol_version is required")
	}
	if t.SnapshotEveryTurns < 0 {
		return fmt.Errorf("snapshot_every_turns must be >= 0")
	}
	if t.TurnSeconds < 0 {
		return fmt.Errorf("turn_seconds must be >= 0")
	}
	if t.Recruitment.ProvincesPerRecruit == 0 || t.Recruitment.UpgradedProvincesPerRecruit == 0 {
		return fmt.Errorf("recruitment provinces per recruit must be > 0")
	}
	for k := range t.Recruitment.Cost {
		if !goods.Good(k).Valid() {
			return fmt.Errorf("recruitment cost: unknown good %s", k)
		}
	}
	for k, v := range t.Market.BasePrices {
		g := goods.Good(k)
		if !g.Valid() {
			return fmt.Errorf("market base_prices: unknown good %s", k)
		}
		if v == 0 {
			return fmt.Errorf("market base_prices: %s must be > 0", k)
		}
	}
	return nil
}

// RecruitmentCost returns the per-recruit goods cost in goods order.
func (t Tuning) RecruitmentCost() []GoodCost {
	out := make([]GoodCost, 0, len(t.Recruitment.Cost))
	for k, v := range t.Recruitment.Cost {
		if v == 0 {
			continue
		}
		out = append(out, GoodCost{Good: goods.Good(k), Amount: v})
	}
	sort.Slice(out, func(i, j int) bool { return goods.Less(out[i].Good, out[j].Good) })
	return out
}

type GoodCost struct {
	Good   goods.Good
	Amount uint32
}

// BasePrices returns the configured price table keyed by good.
func (t Tuning) BasePrices() map[goods.Good]uint32 {
	out := make(map[goods.Good]uint32, len(t.Market.BasePrices))
	for k, v := range t.Market.BasePrices {
		out[goods.Good(k)] = v
	}
	return out
}

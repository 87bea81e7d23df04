package workforce

import (
	"fmt"
	"strings"

	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/goods"
)

type Skill string

const (
	Untrained Skill = "UNTRAINED"
	Trained   Skill = "TRAINED"
	Expert    Skill = "EXPERT"
)

var Skills = []Skill{Untrained, Trained, Expert}

func ParseSkill(s string) (Skill, error) {
	switch Skill(strings.ToUpper(strings.TrimSpace(s))) {
	case Untrained:
		return Untrained, nil
	case Trained:
		return Trained, nil
	case Expert:
		return Expert, nil
	}
	return "", fmt.Errorf("unknown skill %q", s)
}

func (s Skill) LaborPoints() uint32 {
	switch s {
	case Untrained:
		return 1
	case Trained:
		return 2
	case Expert:
		return 4
	}
	return 0
}

func (s Skill) Next() Skill {
	switch s {
	case Untrained:
		return Trained
	default:
		return Expert
	}
}

type Health string

const (
	Healthy Health = "HEALTHY"
	Sick    Health = "SICK"
	Dead    Health = "DEAD"
)

type Worker struct {
	Skill  Skill  `json:"skill"`
	Health Health `json:"health"`
}

// Workforce is the set of workers a nation employs.
type Workforce struct {
	Workers []Worker `json:"workers"`
}

func (w *Workforce) AddUntrained(n uint32) {
	for i := uint32(0); i < n; i++ {
		w.Workers = append(w.Workers, Worker{Skill: Untrained, Health: Healthy})
	}
}

func (w *Workforce) CountBySkill(s Skill) uint32 {
	var n uint32
	for _, wk := range w.Workers {
		if wk.Skill == s {
			n++
		}
	}
	return n
}

func (w *Workforce) Len() int { return len(w.Workers) }

// AvailableLabor sums labor points of healthy workers.
func (w *Workforce) AvailableLabor() uint32 {
	var n uint32
	for _, wk := range w.Workers {
		if wk.Health == Healthy {
			n += wk.Skill.LaborPoints()
		}
	}
	return n
}

// RefreshLabor resets the labor pool to this turn's available labor.
func (w *Workforce) RefreshLabor(p *pool.LaborPool) {
	*p = pool.ResourcePool{Total: w.AvailableLabor()}
}

// Train promotes the first healthy worker at from. Experts stay experts.
func (w *Workforce) Train(from Skill) bool {
	if from == Expert {
		return false
	}
	for i := range w.Workers {
		if w.Workers[i].Skill == from && w.Workers[i].Health == Healthy {
			w.Workers[i].Skill = from.Next()
			return true
		}
	}
	return false
}

func (w *Workforce) RemoveDead() int {
	kept := w.Workers[:0]
	removed := 0
	for _, wk := range w.Workers {
		if wk.Health == Dead {
			removed++
			continue
		}
		kept = append(kept, wk)
	}
	w.Workers = kept
	return removed
}

// PreferredFood is the raw food worker i asks for first:
// Grain, Grain, Fruit, then meat.
func PreferredFood(i int) goods.Good {
	switch i % 4 {
	case 0, 1:
		return goods.Grain
	case 2:
		return goods.Fruit
	default:
		return goods.Livestock
	}
}

type FeedReport struct {
	Fed  int `json:"fed"`
	Sick int `json:"sick"`
	Dead int `json:"dead"`
}

var rawFoods = []goods.Good{goods.Grain, goods.Fruit, goods.Livestock, goods.Fish}

// Feed gives each worker one unit of food from stock. Preferred food or
// canned food keeps a worker healthy, any other raw food makes it sick,
// and no food kills it. Dead workers are removed.
func (w *Workforce) Feed(stock *pool.Stockpile) FeedReport {
	var r FeedReport
	for i := range w.Workers {
		wk := &w.Workers[i]
		pref := PreferredFood(i)
		switch {
		case takeOne(stock, pref):
			wk.Health = Healthy
			r.Fed++
		case pref == goods.Livestock && takeOne(stock, goods.Fish):
			wk.Health = Healthy
			r.Fed++
		case takeOne(stock, goods.CannedFood):
			wk.Health = Healthy
			r.Fed++
		default:
			ate := false
			for _, alt := range rawFoods {
				if alt == pref || (pref == goods.Livestock && alt == goods.Fish) {
					continue
				}
				if takeOne(stock, alt) {
					ate = true
					break
				}
			}
			if ate {
				wk.Health = Sick
				r.Sick++
			} else {
				wk.Health = Dead
				r.Dead++
			}
		}
	}
	w.RemoveDead()
	return r
}

// takeOne uses only unreserved stock so feeding never eats goods already
// promised elsewhere.
func takeOne(stock *pool.Stockpile, g goods.Good) bool {
	if !stock.HasAvailable(g, 1) {
		return false
	}
	return stock.TakeUpTo(g, 1) == 1
}

// RecruitCap is the per-turn recruitment limit for a nation.
func RecruitCap(provinces uint32, upgraded bool, perRecruit, upgradedPerRecruit uint32) uint32 {
	div := perRecruit
	if upgraded {
		div = upgradedPerRecruit
	}
	if div == 0 {
		return 0
	}
	return provinces / div
}

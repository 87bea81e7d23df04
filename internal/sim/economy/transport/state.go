package transport

import "sort"

type Capacity struct {
	Total uint32 `json:"total"`
	Used  uint32 `json:"used"`
}

type Slot struct {
	Requested uint32 `json:"requested"`
	Granted   uint32 `json:"granted"`
}

type DemandEntry struct {
	Supply uint32 `json:"supply"`
	Demand uint32 `json:"demand"`
}

// Grant hands out total capacity to requests in canonical commodity
// order. Each commodity gets min(requested, remaining).
func Grant(total uint32, requests map[Commodity]uint32) (granted map[Commodity]uint32, used uint32) {
	granted = make(map[Commodity]uint32, len(requests))
	remaining := total
	for _, c := range ordered {
		req, ok := requests[c]
		if !ok {
			continue
		}
		g := req
		if g > remaining {
			g = remaining
		}
		granted[c] = g
		remaining -= g
	}
	return granted, total - remaining
}

// State is the transport bookkeeping for every nation.
type State struct {
	DepotCapacity uint32
	PortCapacity  uint32

	capacity map[string]*Capacity
	// bonus is permanent capacity built from Transport goods.
	bonus  map[string]uint32
	slots  map[string]map[Commodity]*Slot
	demand map[string]map[Commodity]DemandEntry
}

func NewState(depotCapacity, portCapacity uint32) *State {
	return &State{
		DepotCapacity: depotCapacity,
		PortCapacity:  portCapacity,
		capacity:      map[string]*Capacity{},
		bonus:         map[string]uint32{},
		slots:         map[string]map[Commodity]*Slot{},
		demand:        map[string]map[Commodity]DemandEntry{},
	}
}

func (s *State) contribution(k StructureKind) uint32 {
	switch k {
	case Depot:
		return s.DepotCapacity
	case Port:
		return s.PortCapacity
	default:
		return 0
	}
}

// RecomputeCapacity rebuilds every nation's total from connected
// structures. Nations left with no capacity are dropped. Used is reset;
// call Apply to regrant.
func (s *State) RecomputeCapacity(structures []Structure) {
	totals := map[string]uint32{}
	for _, st := range structures {
		if !st.Connected {
			continue
		}
		totals[st.Owner] += s.contribution(st.Kind)
	}
	for nation, b := range s.bonus {
		totals[nation] += b
	}
	next := make(map[string]*Capacity, len(totals))
	for nation, t := range totals {
		if t == 0 {
			continue
		}
		next[nation] = &Capacity{Total: t}
	}
	s.capacity = next
}

// AddBonus grants nation permanent extra capacity.
func (s *State) AddBonus(nation string, n uint32) {
	if n == 0 {
		return
	}
	s.bonus[nation] += n
	if c := s.capacity[nation]; c != nil {
		c.Total += n
		return
	}
	s.capacity[nation] = &Capacity{Total: n}
}

func (s *State) Bonus(nation string) uint32 { return s.bonus[nation] }

func (s *State) SetBonus(nation string, n uint32) {
	if n == 0 {
		delete(s.bonus, nation)
		return
	}
	s.bonus[nation] = n
}

func (s *State) Capacity(nation string) Capacity {
	if c := s.capacity[nation]; c != nil {
		return *c
	}
	return Capacity{}
}

// SetCapacityTotal overrides a nation's total, for hosts that compute
// capacity themselves.
func (s *State) SetCapacityTotal(nation string, total uint32) {
	s.capacity[nation] = &Capacity{Total: total}
}

func (s *State) Slot(nation string, c Commodity) Slot {
	if m := s.slots[nation]; m != nil {
		if sl := m[c]; sl != nil {
			return *sl
		}
	}
	return Slot{}
}

func (s *State) Demand(nation string, c Commodity) DemandEntry {
	return s.demand[nation][c]
}

// SetDemandSnapshot replaces the supply/demand hints of every nation.
func (s *State) SetDemandSnapshot(snap map[string]map[Commodity]DemandEntry) {
	s.demand = snap
	if s.demand == nil {
		s.demand = map[string]map[Commodity]DemandEntry{}
	}
}

// SetRequest records a request clamped to the nation's snapshot supply
// for the commodity and regrants that nation. It returns the stored
// request.
func (s *State) SetRequest(nation string, c Commodity, requested uint32) uint32 {
	if supply := s.demand[nation][c].Supply; requested > supply {
		requested = supply
	}
	m := s.slots[nation]
	if m == nil {
		m = map[Commodity]*Slot{}
		s.slots[nation] = m
	}
	sl := m[c]
	if sl == nil {
		sl = &Slot{}
		m[c] = sl
	}
	sl.Requested = requested
	s.applyNation(nation)
	return requested
}

// Apply regrants every nation with requests.
func (s *State) Apply() {
	for _, nation := range s.Nations() {
		s.applyNation(nation)
	}
}

func (s *State) applyNation(nation string) {
	m := s.slots[nation]
	reqs := make(map[Commodity]uint32, len(m))
	for c, sl := range m {
		reqs[c] = sl.Requested
	}
	capacity := s.capacity[nation]
	var total uint32
	if capacity != nil {
		total = capacity.Total
	}
	granted, used := Grant(total, reqs)
	for c, sl := range m {
		sl.Granted = granted[c]
	}
	if capacity != nil {
		capacity.Used = used
	}
}

// Nations lists nations with capacity or requests, sorted.
func (s *State) Nations() []string {
	set := map[string]bool{}
	for n := range s.capacity {
		set[n] = true
	}
	for n := range s.slots {
		set[n] = true
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type NationView struct {
	Capacity Capacity                  `json:"capacity"`
	Slots    map[Commodity]Slot        `json:"slots,omitempty"`
	Demand   map[Commodity]DemandEntry `json:"demand,omitempty"`
}

// View is the outbound snapshot for one nation.
func (s *State) View(nation string) NationView {
	v := NationView{
		Capacity: s.Capacity(nation),
		Slots:    map[Commodity]Slot{},
		Demand:   map[Commodity]DemandEntry{},
	}
	for c, sl := range s.slots[nation] {
		v.Slots[c] = *sl
	}
	for c, d := range s.demand[nation] {
		v.Demand[c] = d
	}
	return v
}

// Requests returns the stored requests for nation.
func (s *State) Requests(nation string) map[Commodity]uint32 {
	out := map[Commodity]uint32{}
	for c, sl := range s.slots[nation] {
		if sl.Requested > 0 {
			out[c] = sl.Requested
		}
	}
	return out
}

// RestoreRequests loads requests without clamping; used on snapshot load
// before a demand snapshot exists.
func (s *State) RestoreRequests(nation string, reqs map[Commodity]uint32) {
	m := map[Commodity]*Slot{}
	for c, r := range reqs {
		m[c] = &Slot{Requested: r}
	}
	s.slots[nation] = m
}

// Forget drops all requests and bonus capacity for nation.
func (s *State) Forget(nation string) {
	delete(s.slots, nation)
	delete(s.capacity, nation)
	delete(s.bonus, nation)
	delete(s.demand, nation)
}

package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"imperialism.ai/internal/persistence/snapshot"
	"imperialism.ai/internal/sim/economy/market"
	"imperialism.ai/internal/sim/economy/transport"
	"imperialism.ai/internal/sim/goods"
	"imperialism.ai/internal/sim/nation"
)

// StateDigest hashes the turn, phase, every nation's persisted state,
// prices and transport capacity. Reservations are not part of it.
func (e *Engine) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], e.turn.Load())
	h.Write(tmp[:])
	h.Write([]byte(e.phase))

	// encoding/json sorts map keys, which keeps the encoding canonical.
	enc := json.NewEncoder(h)
	for _, id := range e.NationIDs() {
		_ = enc.Encode(e.nations[id].Export())
	}
	_ = enc.Encode(e.prices.Table())
	for _, id := range e.transport.Nations() {
		_ = enc.Encode(struct {
			Nation   string             `json:"nation"`
			Capacity transport.Capacity `json:"capacity"`
			Bonus    uint32             `json:"bonus"`
		}{id, e.transport.Capacity(id), e.transport.Bonus(id)})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (e *Engine) ExportSnapshot() snapshot.SnapshotV1 {
	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:  snapshot.Version,
			EngineID: e.cfg.ID,
			Turn:     e.turn.Load(),
		},
		Phase:           string(e.phase),
		BuildingsDigest: e.catalogs.Buildings.Digest,
		TuningDigest:    e.tuningDigest,
		Structures:      append([]transport.Structure(nil), e.structures...),
		Rails:           append([]transport.Rail(nil), e.rails...),
		Prices:          e.prices.Table(),
		LastVolumes:     map[goods.Good]snapshot.VolumeV1{},
		Supply:          map[string]map[goods.Good]uint32{},
	}
	for _, id := range e.NationIDs() {
		s.Nations = append(s.Nations, e.nations[id].Export())
	}
	for _, id := range e.transport.Nations() {
		t := snapshot.TransportV1{Nation: id, Bonus: e.transport.Bonus(id), Requests: e.transport.Requests(id)}
		if t.Bonus == 0 && len(t.Requests) == 0 {
			continue
		}
		s.Transport = append(s.Transport, t)
	}
	for g, v := range e.prices.Volumes() {
		s.LastVolumes[g] = snapshot.VolumeV1{Supply: v.Supply, Demand: v.Demand}
	}
	for id, m := range e.supply {
		cp := make(map[goods.Good]uint32, len(m))
		for g, q := range m {
			cp[g] = q
		}
		s.Supply[id] = cp
	}
	return s
}

// ImportSnapshot replaces the engine state. Nations come back with empty
// reservation ledgers; when the snapshot was taken during a player turn
// their persisted production orders are reserved again.
func (e *Engine) ImportSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d", s.Header.Version)
	}
	phase := Phase(s.Phase)
	if !phase.Valid() {
		return fmt.Errorf("snapshot: bad phase %q", s.Phase)
	}
	if s.BuildingsDigest != "" && s.BuildingsDigest != e.catalogs.Buildings.Digest {
		e.logger.Printf("snapshot turn %d: buildings catalog changed since it was taken", s.Header.Turn)
	}

	nations := make(map[string]*nation.Nation, len(s.Nations))
	for _, ns := range s.Nations {
		n, err := nation.Restore(ns, &e.catalogs.Buildings, e.rules)
		if err != nil {
			return fmt.Errorf("snapshot: nation %s: %w", ns.ID, err)
		}
		nations[ns.ID] = n
	}

	ts := transport.NewState(e.tuning.Transport.DepotCapacity, e.tuning.Transport.PortCapacity)
	for _, t := range s.Transport {
		ts.SetBonus(t.Nation, t.Bonus)
		if len(t.Requests) > 0 {
			ts.RestoreRequests(t.Nation, t.Requests)
		}
	}

	prices := market.NewPrices(e.tuning.BasePrices())
	for g, p := range s.Prices {
		prices.SetBase(g, p)
	}
	for g, v := range s.LastVolumes {
		prices.SetLastVolume(g, market.Volume{Supply: v.Supply, Demand: v.Demand})
	}

	supply := map[string]map[goods.Good]uint32{}
	for id, m := range s.Supply {
		cp := make(map[goods.Good]uint32, len(m))
		for g, q := range m {
			cp[g] = q
		}
		supply[id] = cp
	}

	e.nations = nations
	e.structures = append([]transport.Structure(nil), s.Structures...)
	e.rails = append([]transport.Rail(nil), s.Rails...)
	e.transport = ts
	e.prices = prices
	e.supply = supply
	e.startReports = map[string]nation.StartTurnReport{}
	e.lastTurn = nil
	e.turn.Store(s.Header.Turn)
	e.phase = phase

	if phase == PlayerTurn {
		for _, id := range e.NationIDs() {
			e.nations[id].RenewProduction()
		}
	}
	e.refreshTransport()
	e.publishStatus()
	return nil
}

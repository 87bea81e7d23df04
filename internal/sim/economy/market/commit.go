package market

import (
	"fmt"
	"log"

	"imperialism.ai/internal/sim/economy/allocation"
	"imperialism.ai/internal/sim/economy/pool"
	"imperialism.ai/internal/sim/economy/reservation"
)

// Ledger is the mutable state of one nation that a trade touches.
type Ledger struct {
	Stockpile    *pool.Stockpile
	Labor        *pool.LaborPool
	Treasury     *pool.Treasury
	Reservations *reservation.System
	Allocations  *allocation.Allocations
}

type Lookup interface {
	Ledger(nation string) (Ledger, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(nation string) (Ledger, bool)

func (f LookupFunc) Ledger(nation string) (Ledger, bool) { return f(nation) }

type FailedTrade struct {
	Trade  PlannedTrade `json:"trade"`
	Reason string       `json:"reason"`
}

type CommitReport struct {
	Committed []PlannedTrade `json:"committed,omitempty"`
	Failed    []FailedTrade  `json:"failed,omitempty"`
}

// Commit applies planned trades in order. Each trade is checked before
// anything is mutated, so a failed trade leaves both nations unchanged and
// earlier commits stand.
func Commit(trades []PlannedTrade, lookup Lookup, logger *log.Logger) CommitReport {
	var rep CommitReport
	for _, t := range trades {
		if err := commitOne(t, lookup); err != nil {
			rep.Failed = append(rep.Failed, FailedTrade{Trade: t, Reason: err.Error()})
			if logger != nil {
				logger.Printf("market: trade %s %s->%s reservation=%d failed: %v", t.Good, t.Seller, t.Buyer, t.Reservation, err)
			}
			continue
		}
		rep.Committed = append(rep.Committed, t)
	}
	return rep
}

func commitOne(t PlannedTrade, lookup Lookup) error {
	if t.Seller == t.Buyer {
		return fmt.Errorf("self trade")
	}
	seller, ok := lookup.Ledger(t.Seller)
	if !ok {
		return fmt.Errorf("unknown seller %s", t.Seller)
	}
	buyer, ok := lookup.Ledger(t.Buyer)
	if !ok {
		return fmt.Errorf("unknown buyer %s", t.Buyer)
	}
	if !hasSell(seller.Allocations, t) || !seller.Reservations.Has(t.Reservation) {
		return fmt.Errorf("seller %s has no sell reservation %d", t.Seller, t.Reservation)
	}
	if buyer.Treasury.Available() < t.Price {
		return fmt.Errorf("%w: buyer %s has %d, price %d", reservation.ErrInsufficientFunds, t.Buyer, buyer.Treasury.Available(), t.Price)
	}

	seller.Allocations.RemoveSell(t.Good, t.Reservation)
	seller.Reservations.Consume(t.Reservation, seller.Stockpile, seller.Labor, seller.Treasury)
	seller.Treasury.Credit(t.Price)
	buyer.Treasury.Debit(t.Price)
	buyer.Stockpile.Add(t.Good, 1)
	return nil
}

func hasSell(a *allocation.Allocations, t PlannedTrade) bool {
	if a == nil {
		return false
	}
	for _, id := range a.MarketSells[t.Good] {
		if id == t.Reservation {
			return true
		}
	}
	return false
}

package pool

const DefaultStartingTreasury uint32 = 50_000

// Treasury is a nation's money pool.
type Treasury struct {
	ResourcePool
}

func NewTreasury(total uint32) *Treasury {
	return &Treasury{ResourcePool: ResourcePool{Total: total}}
}

func (t *Treasury) Credit(amount uint32) { t.Add(amount) }

// Debit removes amount from the unreserved balance. It fails without
// side effects when the available balance is short.
func (t *Treasury) Debit(amount uint32) bool {
	if amount > t.Available() {
		return false
	}
	t.Total -= amount
	return true
}

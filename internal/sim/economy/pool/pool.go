package pool

// ResourcePool is a total/reserved counter for one resource.
// Reserved never exceeds Total.
type ResourcePool struct {
	Total    uint32 `json:"total"`
	Reserved uint32 `json:"reserved"`
}

func New(total uint32) ResourcePool { return ResourcePool{Total: total} }

func (p *ResourcePool) Available() uint32 {
	if p.Reserved >= p.Total {
		return 0
	}
	return p.Total - p.Reserved
}

// TryReserve holds amount if it is available. It either succeeds
// completely or leaves the pool untouched.
func (p *ResourcePool) TryReserve(amount uint32) bool {
	if amount > p.Available() {
		return false
	}
	p.Reserved += amount
	return true
}

// Release returns up to amount reserved units to the available balance.
func (p *ResourcePool) Release(amount uint32) {
	if amount >= p.Reserved {
		p.Reserved = 0
		return
	}
	p.Reserved -= amount
}

// ConsumeReserved commits everything currently reserved in the pool.
func (p *ResourcePool) ConsumeReserved() {
	p.Total -= p.Reserved
	p.Reserved = 0
}

// Commit converts up to amount reserved units into a stock reduction and
// returns how many were committed.
func (p *ResourcePool) Commit(amount uint32) uint32 {
	if amount > p.Reserved {
		amount = p.Reserved
	}
	p.Reserved -= amount
	p.Total -= amount
	return amount
}

func (p *ResourcePool) Add(amount uint32) { p.Total += amount }

// Take removes up to amount from the total without going through a
// reservation. Reserved is clamped so it stays within the new total.
func (p *ResourcePool) Take(amount uint32) uint32 {
	if amount > p.Total {
		amount = p.Total
	}
	p.Total -= amount
	if p.Reserved > p.Total {
		p.Reserved = p.Total
	}
	return amount
}

// LaborPool holds a nation's labor points for the current turn.
type LaborPool = ResourcePool

package allocation

// Line is a candidate destination for scanned quantity. Supply lines
// and demand lines share the walk-in-priority-order allocation loop but
// sort by different keys.
type Line interface {
	// Remaining reports how many units the line can still absorb.
	Remaining() int
	// Label names the destination this line credits in a breakdown.
	Label() string

	take(qty int)
	sortKey() (int64, int64)
}

// SupplyLine is one waybill line: the expected quantity for a
// (waybill, part, subinventory) triple. Scanned is a running counter
// rebuilt from the event ledger, never stored on the line.
type SupplyLine struct {
	ID       int64
	Waybill  string
	Part     string
	Pool     Pool
	Subinv   string // raw subinventory code as imported
	QtyTotal int
	Scanned  int

	seq int // insertion order, breaks priority ties
}

// NewSupplyLines assigns insertion order so ties inside a pool stay
// stable across repeated allocations.
func NewSupplyLines(lines []*SupplyLine) []*SupplyLine {
	for i, l := range lines {
		l.seq = i
	}
	return lines
}

func (l *SupplyLine) Remaining() int {
	if r := l.QtyTotal - l.Scanned; r > 0 {
		return r
	}
	return 0
}

// Label reports the pool name, or the raw subinventory code for
// unmapped pools so nothing is lumped under a generic bucket.
func (l *SupplyLine) Label() string {
	if l.Pool == PoolOther && l.Subinv != "" {
		return l.Subinv
	}
	return l.Pool.String()
}

func (l *SupplyLine) take(qty int)            { l.Scanned += qty }
func (l *SupplyLine) sortKey() (int64, int64) { return int64(l.Pool.order()), int64(l.seq) }

// DemandLine is one open back-order item: required quantity for a
// (go_item, part) pair with its urgency rank.
type DemandLine struct {
	ID           int64
	GoItem       string
	Part         string
	QtyReq       int
	QtyFulfilled int
	RedconStatus int
}

func (l *DemandLine) Remaining() int {
	if r := l.QtyReq - l.QtyFulfilled; r > 0 {
		return r
	}
	return 0
}

// Label is the shared back-order bucket; per-job amounts are visible to
// callers through the mutated line counters.
func (l *DemandLine) Label() string { return BackOrderLabel }

func (l *DemandLine) take(qty int)            { l.QtyFulfilled += qty }
func (l *DemandLine) sortKey() (int64, int64) { return int64(l.RedconStatus), l.ID }

// Supply adapts a supply slice to the generic allocator.
func Supply(lines []*SupplyLine) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l
	}
	return out
}

// Demand adapts a demand slice to the generic allocator.
func Demand(lines []*DemandLine) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l
	}
	return out
}

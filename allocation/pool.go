package allocation

// Pool identifies the subinventory pool a supply line feeds.
type Pool int

const (
	PoolAMO Pool = iota
	PoolKanban
	PoolOther
)

// BackOrderLabel is the breakdown label used for quantity consumed by
// open back-order demand before any pool receives stock.
const BackOrderLabel = "BACK ORDER"

// subinvMap translates raw warehouse subinventory codes to pools.
var subinvMap = map[string]Pool{
	"DRV-AMO": PoolAMO,
	"DRV-RM":  PoolKanban,
	"AMO":     PoolAMO,
	"KANBAN":  PoolKanban,
}

// PoolFromSubinv maps a raw subinventory code to its pool. Unmapped
// codes land in PoolOther and keep their raw label for reporting.
func PoolFromSubinv(code string) Pool {
	if p, ok := subinvMap[code]; ok {
		return p
	}
	return PoolOther
}

func (p Pool) String() string {
	switch p {
	case PoolAMO:
		return "AMO"
	case PoolKanban:
		return "KANBAN"
	default:
		return "OTHER"
	}
}

// order is the fixed allocation priority: AMO drains before KANBAN,
// KANBAN before anything unmapped.
func (p Pool) order() int {
	return int(p)
}

package allocation

import (
	"errors"
	"sort"
)

var (
	// ErrInvalidQuantity rejects zero or negative scan quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrExceedsExpected rejects a quantity larger than the combined
	// remaining capacity of the candidate lines.
	ErrExceedsExpected = errors.New("quantity exceeds expected")
)

// Allocate distributes qty across lines in priority order and returns
// the per-destination breakdown. Lines are walked most-urgent first
// (demand) or AMO first (supply); each takes min(remaining, left).
//
// The check against total remaining happens before any line is
// touched, so a failed allocation mutates nothing.
func Allocate(lines []Line, qty int) (Breakdown, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	total := 0
	for _, l := range lines {
		total += l.Remaining()
	}
	if qty > total {
		return nil, ErrExceedsExpected
	}

	bd := Breakdown{}
	distribute(lines, qty, bd)
	return bd, nil
}

// Distribute is the partial-consumption variant used for the demand
// pass of a scan: it absorbs as much of qty as the lines can take and
// returns the leftover for supply allocation. Never fails.
func Distribute(lines []Line, qty int, bd Breakdown) (left int) {
	if qty <= 0 {
		return qty
	}
	return distribute(lines, qty, bd)
}

func distribute(lines []Line, qty int, bd Breakdown) int {
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		ai, bi := sorted[i].sortKey()
		aj, bj := sorted[j].sortKey()
		if ai != aj {
			return ai < aj
		}
		return bi < bj
	})

	left := qty
	for _, l := range sorted {
		if left == 0 {
			break
		}
		take := l.Remaining()
		if take > left {
			take = left
		}
		if take == 0 {
			continue
		}
		l.take(take)
		left -= take
		bd.Add(l.Label(), take)
	}
	return left
}

package allocation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Breakdown maps destination label to allocated quantity. Labels that
// received nothing are omitted.
type Breakdown map[string]int

// Add credits qty to label, dropping zero entries.
func (b Breakdown) Add(label string, qty int) {
	if qty == 0 {
		return
	}
	b[label] += qty
}

// Merge folds other into b.
func (b Breakdown) Merge(other Breakdown) {
	for label, qty := range other {
		b.Add(label, qty)
	}
}

// Total is the sum of all allocated quantities.
func (b Breakdown) Total() int {
	t := 0
	for _, qty := range b {
		t += qty
	}
	return t
}

// labelRank fixes the display order: pools first in priority order,
// then the back-order bucket, then anything else alphabetically.
func labelRank(label string) int {
	switch label {
	case "AMO":
		return 0
	case "KANBAN":
		return 1
	case BackOrderLabel:
		return 2
	default:
		return 3
	}
}

// Labels returns the destinations in deterministic display order.
func (b Breakdown) Labels() []string {
	labels := make([]string, 0, len(b))
	for label := range b {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		ri, rj := labelRank(labels[i]), labelRank(labels[j])
		if ri != rj {
			return ri < rj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// String renders the human-readable form stored on scan summaries,
// e.g. "AMO:5, KANBAN:1".
func (b Breakdown) String() string {
	parts := make([]string, 0, len(b))
	for _, label := range b.Labels() {
		parts = append(parts, fmt.Sprintf("%s:%d", label, b[label]))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON keeps the structured form on scan events parseable back
// into the same numbers the string form shows.
func (b Breakdown) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int(b))
}

// ParseBreakdown decodes the allocation_details JSON of a scan event.
func ParseBreakdown(data string) (Breakdown, error) {
	if data == "" {
		return Breakdown{}, nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	bd := Breakdown{}
	for label, qty := range m {
		bd.Add(label, qty)
	}
	return bd, nil
}

package model

import "fmt"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	DefaultPriority = PriorityMedium
)

var priorityRanks = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
}

// Rank orders priorities; unknown values rank below low.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// MaxPriority returns the higher of a and b.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

var AllPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

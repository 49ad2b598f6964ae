package model

import "time"

// Viewing is a prospect's recorded room viewing.
type Viewing struct {
	Name  string
	Date  time.Time
	Board string
}

// Snapshot is an immutable copy of every record the analytics read.
// Aggregations never mutate a snapshot; a reload replaces it wholesale.
type Snapshot struct {
	Rooms     []Room
	Contracts []Contract
	Payments  []ScheduledPayment
	Opex      []OpexBudget
	Viewings  []Viewing
	LoadedAt  time.Time
}

// ContractByID indexes contracts by ID.
func (s Snapshot) ContractByID() map[int64]Contract {
	m := make(map[int64]Contract, len(s.Contracts))
	for _, c := range s.Contracts {
		m[c.ID] = c
	}
	return m
}

// TableCounts holds row counts per stored table.
type TableCounts map[string]int

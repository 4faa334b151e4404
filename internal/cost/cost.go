package cost

import (
	"sync"

	"threadcurator/internal/domain"
)

// Rate is the per-million-unit price for one evaluator/tier pairing.
type Rate struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// RateKey identifies one entry of the rate table.
type RateKey struct {
	Evaluator domain.EvaluatorKind
	Tier      domain.ModelTier
}

// RateTable maps evaluator/tier pairs to their per-unit rates. Pairs without
// an entry contribute zero estimated cost; their units are still tallied.
type RateTable map[RateKey]Rate

// BucketTotals aggregates usage for one evaluator/tier pairing.
type BucketTotals struct {
	Calls       int
	InputUnits  int64
	OutputUnits int64
	Cost        float64
}

// Snapshot is an immutable view of the accumulated totals. Taking a snapshot
// never blocks further recording.
type Snapshot struct {
	Buckets   map[RateKey]BucketTotals
	TotalCost float64
}

// Accumulator tallies evaluator usage into a per-run ledger. Record is safe
// for concurrent use; Stage-1 scoring calls may land from multiple goroutines.
type Accumulator struct {
	mu      sync.Mutex
	rates   RateTable
	buckets map[RateKey]BucketTotals
	total   float64
}

// NewAccumulator builds an accumulator priced by the given rate table.
func NewAccumulator(rates RateTable) *Accumulator {
	return &Accumulator{
		rates:   rates,
		buckets: map[RateKey]BucketTotals{},
	}
}

// Record appends a usage event and updates the running totals.
func (a *Accumulator) Record(ev domain.UsageEvent) {
	key := RateKey{Evaluator: ev.Evaluator, Tier: ev.Tier}

	a.mu.Lock()
	defer a.mu.Unlock()

	b := a.buckets[key]
	b.Calls++
	b.InputUnits += ev.InputUnits
	b.OutputUnits += ev.OutputUnits

	rate := a.rates[key]
	callCost := float64(ev.InputUnits)*rate.InputPerMillion/1e6 +
		float64(ev.OutputUnits)*rate.OutputPerMillion/1e6
	b.Cost += callCost
	a.total += callCost

	a.buckets[key] = b
}

// Snapshot returns a copy of the current totals. Two snapshots taken without
// an intervening Record are identical.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := Snapshot{
		Buckets:   make(map[RateKey]BucketTotals, len(a.buckets)),
		TotalCost: a.total,
	}
	for k, v := range a.buckets {
		out.Buckets[k] = v
	}
	return out
}

package metrics

import "sync/atomic"

// Counters keeps process-lifetime totals served by the metrics endpoint
type Counters struct {
	batches         atomic.Int64
	batchFailures   atomic.Int64
	imagesRequested atomic.Int64
	imagesGenerated atomic.Int64
	staleResults    atomic.Int64
	rejected        atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters
type CounterSnapshot struct {
	Batches             int64 `json:"batches"`
	BatchFailures       int64 `json:"batch_failures"`
	ImagesRequested     int64 `json:"images_requested"`
	ImagesGenerated     int64 `json:"images_generated"`
	StaleResults        int64 `json:"stale_results"`
	RejectedRefinements int64 `json:"rejected_refinements"`
}

func NewCounters() *Counters {
	return &Counters{}
}

// RecordBatch implements Reporter
func (c *Counters) RecordBatch(b Batch) {
	c.batches.Add(1)
	c.imagesRequested.Add(int64(b.Requested))
	c.imagesGenerated.Add(int64(b.Succeeded))
	if b.Err != nil {
		c.batchFailures.Add(1)
	}
}

// StaleResult counts a result discarded because the forest moved on
func (c *Counters) StaleResult() {
	c.staleResults.Add(1)
}

// RejectedRefinement counts a refinement refused while another was pending
func (c *Counters) RejectedRefinement() {
	c.rejected.Add(1)
}

func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Batches:             c.batches.Load(),
		BatchFailures:       c.batchFailures.Load(),
		ImagesRequested:     c.imagesRequested.Load(),
		ImagesGenerated:     c.imagesGenerated.Load(),
		StaleResults:        c.staleResults.Load(),
		RejectedRefinements: c.rejected.Load(),
	}
}

package metrics

import "time"

// Batch describes one call to the image provider for metric reporting
type Batch struct {
	Kind      string // initial, refinement or proxy
	Model     string
	Requested int
	Succeeded int
	Duration  time.Duration
	Err       error
}

// Reporter is implemented by every metrics sink the services publish to
type Reporter interface {
	RecordBatch(b Batch)
}

// Reporters fans a batch out to several sinks
type Reporters []Reporter

func (r Reporters) RecordBatch(b Batch) {
	for _, rep := range r {
		if rep != nil {
			rep.RecordBatch(b)
		}
	}
}

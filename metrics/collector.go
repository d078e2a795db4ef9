package metrics

// Recorder receives finished runs. The pipeline depends only on this.
type Recorder interface {
	Record(run Run)
}

// Reader exposes the aggregated view to the page.
type Reader interface {
	Stats() Stats
	Recent(limit int) []Run
	SystemStatus() SystemStatus
}

// Nop discards runs.
type Nop struct{}

func (Nop) Record(Run) {}

// Multi forwards each run to every recorder.
type Multi []Recorder

func (m Multi) Record(run Run) {
	for _, r := range m {
		r.Record(run)
	}
}

package notification

// Status classifies one unit's dispatch result.
type Status string

const (
	// StatusSent means at least the required channels delivered and the
	// idempotency marker was advanced.
	StatusSent Status = "sent"
	// StatusSkipped means the unit needed no work: empty window with
	// suppression, or a marker already present.
	StatusSkipped Status = "skipped"
	// StatusExcluded means the unit left the eligible set between
	// enumeration and dispatch (e.g. tenant deactivated). Counted as
	// neither sent nor failed.
	StatusExcluded Status = "excluded"
	StatusFailed   Status = "failed"
)

// Outcome is the structured per-unit result every layer threads upward;
// batch summaries are folds over outcomes, never shared counters.
type Outcome struct {
	Unit   *Unit
	Status Status
	Err    error
}

// Summary aggregates one tick or manual trigger. Processed counts units
// that went through dispatch (sent + skipped + failed); excluded units
// are reported separately.
type Summary struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Excluded  int      `json:"excluded"`
	Errors    []string `json:"errors,omitempty"`
}

func (s *Summary) Add(o Outcome) {
	switch o.Status {
	case StatusSent:
		s.Processed++
		s.Sent++
	case StatusSkipped:
		s.Processed++
		s.Skipped++
	case StatusFailed:
		s.Processed++
		s.Failed++
		if o.Err != nil {
			s.Errors = append(s.Errors, o.Err.Error())
		}
	case StatusExcluded:
		s.Excluded++
	}
}

func Fold(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		s.Add(o)
	}
	return s
}

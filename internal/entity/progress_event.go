package entity

import "time"

// Phase is a state of one analysis run.
type Phase string

const (
	PhaseIdle       Phase = ""
	PhaseStarting   Phase = "starting"
	PhaseCrawling   Phase = "crawling"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseExtracting Phase = "extracting"
	PhaseCompleted  Phase = "completed"
	PhaseError      Phase = "error"
)

// phaseTransitions lists the only allowed successor of every phase. The
// error phase is handled separately: it is reachable from every
// non-terminal phase after idle.
var phaseTransitions = map[Phase]Phase{
	PhaseIdle:       PhaseStarting,
	PhaseStarting:   PhaseCrawling,
	PhaseCrawling:   PhaseAnalyzing,
	PhaseAnalyzing:  PhaseExtracting,
	PhaseExtracting: PhaseCompleted,
}

// CanTransitionTo reports whether the state machine may move from p to next.
func (p Phase) CanTransitionTo(next Phase) bool {
	if next == PhaseError {
		return p != PhaseIdle && !p.IsTerminal()
	}
	allowed, ok := phaseTransitions[p]
	return ok && allowed == next
}

// IsTerminal reports whether no further transition is possible.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// EventType discriminates events on the progress stream.
type EventType string

const (
	EventProgress EventType = "progress"
	EventLog      EventType = "log"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// ProgressEvent is one entry of a run's append-only progress stream.
type ProgressEvent struct {
	Type              EventType         `json:"type"`
	RunID             string            `json:"runId"`
	Phase             Phase             `json:"phase"`
	PagesCrawled      int               `json:"pagesCrawled"`
	TotalPages        *int              `json:"totalPages,omitempty"`
	CurrentPhaseLabel string            `json:"currentPhaseLabel"`
	Message           string            `json:"message,omitempty"`
	PartialData       *ExtractionRecord `json:"partialData,omitempty"`
	Result            *AnalysisResult   `json:"result,omitempty"`
	Error             string            `json:"error,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
}

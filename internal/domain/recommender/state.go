package recommender

// GenerationState tracks a single generation run through the tool-call
// loop. Terminal states are StateValidated and StateFailed.
type GenerationState string

const (
	StatePending            GenerationState = "pending"
	StateToolCallRequested  GenerationState = "tool_call_requested"
	StateToolResultReceived GenerationState = "tool_result_received"
	StateValidated          GenerationState = "validated"
	StateFailed             GenerationState = "failed"
)

// Terminal reports whether the run is finished.
func (s GenerationState) Terminal() bool {
	return s == StateValidated || s == StateFailed
}

package workflow

// Trigger is an event that moves a validation through its lifecycle
type Trigger string

const (
	// TriggerStart is fired when the engine accepts the call
	TriggerStart Trigger = "START"
	// TriggerFinish is fired once every dispatched validator has reported
	TriggerFinish Trigger = "FINISH"
	// TriggerAbort is fired when orchestration itself breaks
	TriggerAbort Trigger = "ABORT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

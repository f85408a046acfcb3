package workflow

import "context"

// Verdict answers the questions the FINISH guards ask about a finished run
type Verdict interface {
	// HasValidatorError reports whether any validator ended in ERROR
	HasValidatorError() bool
	// NeedsHumanReview reports whether the score fell under the threshold
	// or a CRITICAL finding was raised
	NeedsHumanReview() bool
}

// BuildValidationStateMachine creates the lifecycle of one validation call.
// FINISH guards are evaluated in priority order: ERROR, then
// NEEDS_HUMAN_REVIEW, then COMPLETED.
func BuildValidationStateMachine(v Verdict) StateMachine {
	b := NewBuilder()

	b.Configure(StateNotStarted).
		Permit(TriggerStart, StateInProgress).
		Permit(TriggerAbort, StateError)

	b.Configure(StateInProgress).
		PermitIf(TriggerFinish, StateError, func(ctx context.Context) bool {
			return v.HasValidatorError()
		}).
		PermitIf(TriggerFinish, StateNeedsHumanReview, func(ctx context.Context) bool {
			return v.NeedsHumanReview()
		}).
		Permit(TriggerFinish, StateCompleted).
		Permit(TriggerAbort, StateError)

	return b.Build(StateNotStarted)
}

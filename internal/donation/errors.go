package donation

import "fmt"

// PartialFailure marks a RecordPayment that errored after the campaign's
// raised total was already incremented. The increment is real money on the
// dashboard with no Payment record behind it yet, so callers log these
// separately and the reconciliation worker finishes the commit from the
// intent.
type PartialFailure struct {
	IntentID string
	Step     string
	Err      error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("partial payment failure at %s (intent %s): %v", e.Step, e.IntentID, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }

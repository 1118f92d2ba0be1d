package processor

import "fmt"

// RunError reports the stage a run failed in. The originating error stays
// reachable through errors.Is and errors.As.
type RunError struct {
	Stage State
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

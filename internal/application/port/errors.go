package port

import "fmt"

// ResourceError reports a failure of the surrounding workspace (database,
// files) rather than of validation itself
type ResourceError struct {
	Resource string
	Op       string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource error: %s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

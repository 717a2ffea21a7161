package audit

import "fmt"

// ProviderError is an inventory or metric fetch failure.
type ProviderError struct {
	Op       string
	Category Category
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Category, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NotificationError is a delivery failure.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("publish report: %v", e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// OrchestrationError is an unexpected failure inside the pipeline itself.
type OrchestrationError struct {
	Stage string
	Cause error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *OrchestrationError) Unwrap() error { return e.Cause }

// panicError converts a recovered value to an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}

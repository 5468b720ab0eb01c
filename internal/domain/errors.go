package domain

import "fmt"

// Category sentinels. Wrap with NewError so reports carry the operation
// that failed; match with errors.Is at the boundary that reports them.
var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrDuplicate         = fmt.Errorf("duplicate")
	ErrAlreadyRunning    = fmt.Errorf("agent already running")
	ErrRestartSuppressed = fmt.Errorf("restart suppressed by cool-down guard")
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrConfigLoad        = fmt.Errorf("failed to load configuration")
)

// FleetError wraps a sentinel with the operation and human detail.
type FleetError struct {
	Op     string // e.g. "Supervisor.Start"
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *FleetError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *FleetError) Unwrap() error { return e.Err }

// NewError creates a FleetError.
func NewError(op string, err error, detail string) *FleetError {
	return &FleetError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error. Returns nil if err is nil,
// enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

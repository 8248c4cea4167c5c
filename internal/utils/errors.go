package utils

// AppError attaches the failing operation to a message and an optional cause.
// The Op string is the package-qualified call site, e.g. "services.Analyze".
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	s := e.Op + ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError constructs an AppError. The cause may be nil.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

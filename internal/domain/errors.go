package domain

// ValidationError rejects malformed input at write time, before any rule
// reaches the evaluator. Field names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

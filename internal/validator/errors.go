package validator

import "fmt"

// ConfigurationError reports a validator built from invalid parameters.
type ConfigurationError struct {
	Validator string
	Field     string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("validator %s: invalid %s: %s", e.Validator, e.Field, e.Reason)
}

// DetectionBackendError reports a detection capability that could not be
// reached or returned an unusable answer.
type DetectionBackendError struct {
	Validator string
	Backend   string
	Err       error
}

func (e *DetectionBackendError) Error() string {
	return fmt.Sprintf("validator %s: detection backend %s failed: %v", e.Validator, e.Backend, e.Err)
}

func (e *DetectionBackendError) Unwrap() error {
	return e.Err
}

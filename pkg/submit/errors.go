package submit

import "errors"

var (
	// ErrTransport is returned when the validator cannot be reached or answers with a non-2xx status.
	ErrTransport = errors.New("validator transport failed")
	// ErrResponse is returned when the validator's answer cannot be parsed or reports an error.
	ErrResponse = errors.New("invalid validator response")
)

// FailureNotice is the single notice shown to the user when a submission fails.
const FailureNotice = "Error submitting pipeline. Please check the console for details."

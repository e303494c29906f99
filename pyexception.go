package jupyterkit

import (
	"encoding/json"
	"fmt"
)

// PythonException represents an exception raised in the Python helper process.
// It captures the exception type, message, full traceback, and the chained
// cause when the Python code used "raise ... from ...".
type PythonException struct {
	// Exception is the exception class name (e.g., "ValueError", "KeyError").
	Exception string `json:"exception" msgpack:"exception"`

	// Message is the exception message/description.
	Message string `json:"message" msgpack:"message"`

	// Traceback is the full Python traceback string.
	Traceback string `json:"traceback" msgpack:"traceback"`

	// Cause is the chained exception, if any.
	Cause *PythonException `json:"cause,omitempty" msgpack:"cause,omitempty"`
}

// Error implements the error interface with type, message, and traceback.
func (e *PythonException) Error() string {
	s := fmt.Sprintf("%s: %s\n%s", e.Exception, e.Message, e.Traceback)
	if e.Cause != nil {
		s += "\ncaused by " + e.Cause.Error()
	}
	return s
}

// NewPythonExceptionFromJSON parses a PythonException from JSON bytes.
func NewPythonExceptionFromJSON(data []byte) (*PythonException, error) {
	var pyException PythonException
	if err := json.Unmarshal(data, &pyException); err != nil {
		return nil, err
	}
	return &pyException, nil
}

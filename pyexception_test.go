package jupyterkit

import (
	"strings"
	"testing"
)

func TestPythonExceptionFromJSON(t *testing.T) {
	jsonData := []byte(`{
		"exception": "ValueError",
		"message": "invalid value",
		"traceback": "Traceback (most recent call last):\n  File \"cell\", line 1\nValueError: invalid value"
	}`)

	ex, err := NewPythonExceptionFromJSON(jsonData)
	if err != nil {
		t.Fatalf("Failed to parse exception: %v", err)
	}

	if ex.Exception != "ValueError" {
		t.Errorf("Expected exception type 'ValueError', got '%s'", ex.Exception)
	}
	if ex.Message != "invalid value" {
		t.Errorf("Expected message 'invalid value', got '%s'", ex.Message)
	}
	if ex.Cause != nil {
		t.Error("Expected Cause to be nil for simple exception")
	}
}

func TestPythonExceptionWithCause(t *testing.T) {
	jsonData := []byte(`{
		"exception": "RuntimeError",
		"message": "operation failed",
		"traceback": "Traceback (most recent call last):\nRuntimeError: operation failed",
		"cause": {
			"exception": "IOError",
			"message": "file not found",
			"traceback": "Traceback (most recent call last):\nIOError: file not found"
		}
	}`)

	ex, err := NewPythonExceptionFromJSON(jsonData)
	if err != nil {
		t.Fatalf("Failed to parse exception with cause: %v", err)
	}

	if ex.Cause == nil {
		t.Fatal("Expected Cause to be non-nil for chained exception")
	}
	if ex.Cause.Exception != "IOError" {
		t.Errorf("Expected cause exception type 'IOError', got '%s'", ex.Cause.Exception)
	}
	if ex.Cause.Message != "file not found" {
		t.Errorf("Expected cause message 'file not found', got '%s'", ex.Cause.Message)
	}
}

func TestPythonExceptionError(t *testing.T) {
	ex := &PythonException{
		Exception: "KeyError",
		Message:   "'missing'",
		Traceback: "Traceback...",
		Cause: &PythonException{
			Exception: "LookupError",
			Message:   "underlying",
			Traceback: "Traceback...",
		},
	}

	msg := ex.Error()
	if !strings.Contains(msg, "KeyError: 'missing'") {
		t.Errorf("Error string missing exception header: %s", msg)
	}
	if !strings.Contains(msg, "caused by LookupError") {
		t.Errorf("Error string missing cause chain: %s", msg)
	}
}

package jupyterkit

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("3.11.4")
	if err != nil {
		t.Fatalf("Failed to parse version: %v", err)
	}
	if v.Major != 3 || v.Minor != 11 || v.Patch != 4 {
		t.Errorf("Expected 3.11.4, got %s", v.String())
	}

	v, err = ParseVersion("3.10")
	if err != nil {
		t.Fatalf("Failed to parse version: %v", err)
	}
	if v.Major != 3 || v.Minor != 10 || v.Patch != -1 {
		t.Errorf("Expected {3, 10, -1}, got %+v", v)
	}

	v, err = ParseVersion("3")
	if err != nil {
		t.Fatalf("Failed to parse version: %v", err)
	}
	if v.Major != 3 || v.Minor != -1 {
		t.Errorf("Expected {3, -1, -1}, got %+v", v)
	}

	if _, err = ParseVersion("not a version"); err == nil {
		t.Error("Expected error for garbage input")
	}
}

func TestParsePythonVersion(t *testing.T) {
	v, err := ParsePythonVersion("Python 3.11.4\n")
	if err != nil {
		t.Fatalf("Failed to parse python version: %v", err)
	}
	if v.String() != "3.11.4" {
		t.Errorf("Expected 3.11.4, got %s", v.String())
	}

	if _, err = ParsePythonVersion("Ruby 3.2.0"); err == nil {
		t.Error("Expected error for non-Python version string")
	}
}

func TestParsePipVersion(t *testing.T) {
	v, err := ParsePipVersion("pip 23.2.1 from /usr/lib/python3/dist-packages/pip (python 3.11)")
	if err != nil {
		t.Fatalf("Failed to parse pip version: %v", err)
	}
	if v.String() != "23.2.1" {
		t.Errorf("Expected 23.2.1, got %s", v.String())
	}
}

func TestParseJupyterVersion(t *testing.T) {
	output := `Selected Jupyter core packages...
IPython          : 8.14.0
jupyter_client   : 8.3.0
jupyter_core     : 5.3.1
jupyter_server   : 2.7.0
jupyterlab       : 4.0.3
`
	v, err := ParseJupyterVersion(output)
	if err != nil {
		t.Fatalf("Failed to parse jupyter version: %v", err)
	}
	if v.String() != "2.7.0" {
		t.Errorf("Expected 2.7.0, got %s", v.String())
	}

	if _, err = ParseJupyterVersion("jupyter_server : not installed\n"); err == nil {
		t.Error("Expected error when jupyter_server is not installed")
	}

	if _, err = ParseJupyterVersion("IPython : 8.14.0\n"); err == nil {
		t.Error("Expected error when jupyter_server line is missing")
	}
}

func TestVersionCompare(t *testing.T) {
	a := Version{Major: 3, Minor: 10, Patch: 2}
	b := Version{Major: 3, Minor: 11, Patch: 0}

	if a.Compare(b) != -1 {
		t.Error("Expected 3.10.2 < 3.11.0")
	}
	if b.Compare(a) != 1 {
		t.Error("Expected 3.11.0 > 3.10.2")
	}
	if a.Compare(a) != 0 {
		t.Error("Expected equal versions to compare as 0")
	}
}

func TestVersionString(t *testing.T) {
	full := Version{Major: 3, Minor: 11, Patch: 4}
	if full.String() != "3.11.4" {
		t.Errorf("Expected 3.11.4, got %s", full.String())
	}
	if full.MinorString() != "3.11" {
		t.Errorf("Expected 3.11, got %s", full.MinorString())
	}

	short := Version{Major: 3, Minor: 10, Patch: -1}
	if short.String() != "3.10" {
		t.Errorf("Expected 3.10, got %s", short.String())
	}

	major := Version{Major: 3, Minor: -1, Patch: -1}
	if major.String() != "3" {
		t.Errorf("Expected 3, got %s", major.String())
	}
}

package jupyterkit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvironmentFromExecutableMissing(t *testing.T) {
	_, err := EnvironmentFromExecutable("/nonexistent/python3")
	if err == nil {
		t.Error("Expected error for missing executable")
	}
}

func TestEnvironmentFromBundleMissing(t *testing.T) {
	_, err := EnvironmentFromBundle(t.TempDir())
	if err == nil {
		t.Error("Expected error for runtime dir without python")
	}
}

func TestCreateVenvNilBase(t *testing.T) {
	_, err := CreateVenvEnvironment(nil, t.TempDir(), VenvOptions{}, nil)
	if err == nil {
		t.Error("Expected error for nil base environment")
	}
}

func TestFreezeWithoutPip(t *testing.T) {
	env := &PythonEnvironment{}
	if err := env.Freeze(filepath.Join(t.TempDir(), "spec.json")); err == nil {
		t.Error("Expected error freezing environment without pip")
	}
}

func TestRestoreEnvironmentMissingSpec(t *testing.T) {
	base := &PythonEnvironment{}
	_, err := RestoreEnvironment(base, t.TempDir(), "/nonexistent/spec.json", nil)
	if err == nil {
		t.Error("Expected error for missing spec file")
	}
}

func TestIsDirWritable(t *testing.T) {
	if !isDirWritable(t.TempDir()) {
		t.Error("Expected temp dir to be writable")
	}
	if isDirWritable("/nonexistent/dir") {
		t.Error("Expected missing dir to be unwritable")
	}

	readonly := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(readonly, 0555); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if os.Getuid() != 0 && isDirWritable(readonly) {
		t.Error("Expected read-only dir to be unwritable")
	}
}

func TestFirstLine(t *testing.T) {
	cases := map[string]string{
		"one\ntwo\nthree": "one",
		"  padded  \r\n":   "padded",
		"single":          "single",
		"":                "",
	}
	for input, want := range cases {
		if got := firstLine(input); got != want {
			t.Errorf("firstLine(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestRuntimeInterface(t *testing.T) {
	env := &PythonEnvironment{
		BaseEnvironment: BaseEnvironment{
			EnvironmentName: "bundle",
			EnvPath:         "/opt/runtime",
			EnvBinPath:      "/opt/runtime/bin",
		},
	}
	var rt Runtime = env
	if rt.Name() != "bundle" {
		t.Errorf("Expected bundle, got %s", rt.Name())
	}
	if rt.Path() != "/opt/runtime" {
		t.Errorf("Expected /opt/runtime, got %s", rt.Path())
	}
	if rt.BinPath() != "/opt/runtime/bin" {
		t.Errorf("Expected /opt/runtime/bin, got %s", rt.BinPath())
	}
}

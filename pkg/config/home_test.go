package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_EnvVarTakesPrecedence(t *testing.T) {
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", "/override")

	got := GetHome()
	if got != "/override" {
		t.Errorf("GetHome() = %q, want %q", got, "/override")
	}
}

func TestGetHome_FallbackToCwd(t *testing.T) {
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", "")

	got := GetHome()
	cwd, _ := os.Getwd()

	// When not in a bin/ directory and no env var, should fall back to cwd
	// (unless the test binary happens to be in a bin/ directory)
	if got == "" {
		t.Error("GetHome() returned empty string")
	}
	_ = cwd // cwd is valid fallback
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", "/first")

	first := GetHome()

	// Change env — should NOT affect cached value
	t.Setenv("MAESTRO_INSPECTOR_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestGetSourcesDir(t *testing.T) {
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", "/test/home")

	got := GetSourcesDir()
	want := filepath.Join("/test/home", "sources")
	if got != want {
		t.Errorf("GetSourcesDir() = %q, want %q", got, want)
	}
}

func TestGetLogsDir(t *testing.T) {
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", "/test/home")

	if got := GetLogsDir(); got != filepath.Join("/test/home", "logs") {
		t.Errorf("GetLogsDir() = %q", got)
	}
}

func TestGetRecordingsDir(t *testing.T) {
	tests := []struct {
		framework string
		want      string
	}{
		{"js", filepath.Join("/test/home", "recordings", "js")},
		{"python", filepath.Join("/test/home", "recordings", "python")},
	}

	for _, tt := range tests {
		ResetHome()
		t.Setenv("MAESTRO_INSPECTOR_HOME", "/test/home")

		got := GetRecordingsDir(tt.framework)
		if got != tt.want {
			t.Errorf("GetRecordingsDir(%q) = %q, want %q", tt.framework, got, tt.want)
		}
	}
}

func TestResolveHome_BinaryRelative(t *testing.T) {
	// Create a temp directory structure: <tmpdir>/bin/
	tmpDir := t.TempDir()
	binDir := filepath.Join(tmpDir, "bin")
	if err := os.MkdirAll(binDir, 0755); err != nil {
		t.Fatal(err)
	}

	// resolveHome uses os.Executable() which we can't mock directly,
	// but we can verify the logic by testing the env var path
	ResetHome()
	t.Setenv("MAESTRO_INSPECTOR_HOME", tmpDir)

	got := GetHome()
	if got != tmpDir {
		t.Errorf("GetHome() = %q, want %q", got, tmpDir)
	}
}

package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JOBGUIDE_TEST_SECRET", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{"file wins", Source{File: tokenFile, Env: "JOBGUIDE_TEST_SECRET", Value: "inline"}, "from-file", ""},
		{"env before value", Source{Env: "JOBGUIDE_TEST_SECRET", Value: "inline"}, "from-env", ""},
		{"unset env falls back to value", Source{Env: "JOBGUIDE_TEST_UNSET", Value: " inline "}, "inline", ""},
		{"empty file", Source{Name: "line token", File: emptyFile}, "", "line token file"},
		{"missing file", Source{File: filepath.Join(dir, "missing")}, "", "reading secret"},
		{"nothing configured", Source{Name: "gemini api key"}, "", "gemini api key is not configured"},
		{"hint names env", Source{Env: "JOBGUIDE_TEST_UNSET"}, "", "JOBGUIDE_TEST_UNSET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home directory: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"bare tilde", "~", home},
		{"tilde prefix", "~/state.db", filepath.Join(home, "state.db")},
		{"no tilde", "/var/lib/synthbench/state.db", "/var/lib/synthbench/state.db"},
		{"tilde mid-path unchanged", "/data/~archive", "/data/~archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandTilde(tt.path)
			if err != nil {
				t.Fatalf("ExpandTilde(%q) failed: %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("ExpandTilde(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveRelative(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"absolute path kept", "/repo", "/etc/synthmerge.yaml", "/etc/synthmerge.yaml"},
		{"relative joined", "/repo", "configs/all.yaml", "/repo/configs/all.yaml"},
		{"cleaned", "/repo", "./a/../b.yaml", "/repo/b.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRelative(tt.base, tt.path); got != tt.want {
				t.Errorf("ResolveRelative(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
			}
		})
	}
}

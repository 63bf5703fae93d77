package finalize

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		// The content records the original name so moves can be traced.
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func origin(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newFinalizer() *Finalizer {
	return New().WithLogger(zerolog.Nop())
}

func TestFinalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   []string
		limit   int
		want    []string
		origins map[string]string
	}{
		{
			name:  "pending only",
			files: []string{"_pending_001.jpg", "_pending_002.jpg", "_pending_003.jpg"},
			limit: 10,
			want:  []string{"micah_001.jpg", "micah_002.jpg", "micah_003.jpg"},
			origins: map[string]string{
				"micah_001.jpg": "_pending_001.jpg",
				"micah_003.jpg": "_pending_003.jpg",
			},
		},
		{
			name:  "gaps are closed",
			files: []string{"micah_002.jpg", "micah_007.jpg", "_pending_003.jpg"},
			limit: 10,
			want:  []string{"micah_001.jpg", "micah_002.jpg", "micah_003.jpg"},
			origins: map[string]string{
				"micah_001.jpg": "micah_002.jpg",
				"micah_002.jpg": "micah_007.jpg",
				"micah_003.jpg": "_pending_003.jpg",
			},
		},
		{
			name:  "strays are deleted",
			files: []string{"000004.jpg", "000009.png", "other_001.jpg", "_pending_001.jpg", "notes.txt"},
			limit: 10,
			want:  []string{"micah_001.jpg", "notes.txt"},
		},
		{
			name:  "over limit",
			files: []string{"micah_001.jpg", "micah_002.jpg", "_pending_001.jpg", "_pending_002.jpg"},
			limit: 3,
			want:  []string{"micah_001.jpg", "micah_002.jpg", "micah_003.jpg"},
			origins: map[string]string{
				"micah_003.jpg": "_pending_001.jpg",
			},
		},
		{
			name:  "non canonical numbering",
			files: []string{"micah_0001.jpg", "micah_001.jpg", "micah_002.jpg"},
			limit: 10,
			want:  []string{"micah_001.jpg", "micah_002.jpg", "micah_003.jpg"},
			origins: map[string]string{
				"micah_001.jpg": "micah_0001.jpg",
				"micah_002.jpg": "micah_001.jpg",
				"micah_003.jpg": "micah_002.jpg",
			},
		},
		{
			name:  "empty directory",
			limit: 10,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			touch(t, dir, test.files...)

			result, err := newFinalizer().Finalize(dir, "micah", test.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.FilesystemErrors != 0 {
				t.Errorf("unexpected filesystem errors: %+v", result)
			}
			if got := listDir(t, dir); !reflect.DeepEqual(got, test.want) {
				t.Errorf("expected %v, got %v", test.want, got)
			}
			for final, from := range test.origins {
				if got := origin(t, dir, final); got != from {
					t.Errorf("%s: expected it to come from %s, got %s", final, from, got)
				}
			}
		})
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "micah_004.jpg", "_pending_002.jpg", "_pending_010.jpg", "000001.jpg")

	first, err := newFinalizer().Finalize(dir, "micah", 30)
	if err != nil {
		t.Fatal(err)
	}
	before := listDir(t, dir)

	second, err := newFinalizer().Finalize(dir, "micah", 30)
	if err != nil {
		t.Fatal(err)
	}

	if first.Renamed != 3 || first.Deleted != 1 {
		t.Errorf("expected 3 renamed and 1 deleted on the first pass, got %+v", first)
	}
	if second.Renamed != 0 || second.Deleted != 0 {
		t.Errorf("expected the second pass to change nothing, got %+v", second)
	}
	if after := listDir(t, dir); !reflect.DeepEqual(before, after) {
		t.Errorf("directory changed: %v -> %v", before, after)
	}
	if !reflect.DeepEqual(second.Files, []string{"micah_001.jpg", "micah_002.jpg", "micah_003.jpg"}) {
		t.Errorf("unexpected files %v", second.Files)
	}
}

func TestFinalizeMissingDir(t *testing.T) {
	t.Parallel()

	if _, err := newFinalizer().Finalize(filepath.Join(t.TempDir(), "missing"), "micah", 5); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

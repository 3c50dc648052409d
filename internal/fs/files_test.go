package fs

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestContainsFiles(t *testing.T) {
	tests := []struct {
		note string
		fsys fstest.MapFS
		exp  bool
	}{
		{
			note: "empty",
			fsys: fstest.MapFS{},
		},
		{
			note: "only directories",
			fsys: fstest.MapFS{
				"a":     {Mode: os.ModeDir},
				"a/b/c": {Mode: os.ModeDir},
			},
		},
		{
			note: "nested file",
			fsys: fstest.MapFS{
				"a/b/c.yaml": {Data: []byte("c")},
			},
			exp: true,
		},
		{
			note: "hidden file",
			fsys: fstest.MapFS{
				".secrets.yaml": {Data: []byte("x")},
			},
			exp: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			got, err := ContainsFiles(tc.fsys)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.exp {
				t.Fatalf("expected %v, got %v", tc.exp, got)
			}
		})
	}
}

func TestDirContainsFiles(t *testing.T) {
	root := t.TempDir()

	got, err := DirContainsFiles(filepath.Join(root, "missing"))
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Fatal("expected a missing directory to have no files")
	}

	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if got, err := DirContainsFiles(root); err != nil || got {
		t.Fatalf("expected no files, got %v, %v", got, err)
	}

	if err := os.WriteFile(filepath.Join(root, "a", "b", "c.yaml"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, err := DirContainsFiles(root); err != nil || !got {
		t.Fatalf("expected files, got %v, %v", got, err)
	}
}

package fsx_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/smasher164/lambda/fsx"
)

func Test(t *testing.T) {
	tfs := fsx.TestFS([][2]string{
		{"a/b/c.lam", "a b"},
		{"a/d/e.lam", `\1`},
		{"f/g/h.lam", "x (y z)"},
	})
	if err := fstest.TestFS(tfs, "a/b/c.lam", "a/d/e.lam", "f/g/h.lam"); err != nil {
		t.Fatal(err)
	}
}

func TestCreate(t *testing.T) {
	tfs := fsx.TestFS([][2]string{{"out.txt", "stale"}})
	f, err := fsx.Create(tfs, "out.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("A=(B Ar)\n")); err != nil {
		t.Fatal(err)
	}
	f.Close()
	b, err := fs.ReadFile(tfs, "out.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "A=(B Ar)\n" {
		t.Errorf("got %q", b)
	}
	if _, err := fsx.Create(fstest.MapFS{}, "x"); err == nil {
		t.Error("MapFS does not support Create")
	}
}

func TestDirFS(t *testing.T) {
	dir := t.TempDir()
	dfs := fsx.DirFS(dir)
	f, err := fsx.Create(dfs, "prog.lam")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("f x")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if b, err := os.ReadFile(filepath.Join(dir, "prog.lam")); err != nil || string(b) != "f x" {
		t.Fatalf("got %q, %v", b, err)
	}
	if b, err := fs.ReadFile(dfs, "prog.lam"); err != nil || string(b) != "f x" {
		t.Fatalf("got %q, %v", b, err)
	}
	if _, err := dfs.Open("../escape"); !errors.Is(err, fs.ErrInvalid) {
		t.Errorf("got %v", err)
	}
}

func TestReaderFS(t *testing.T) {
	rfs := fsx.ReaderFS("<stdin>", strings.NewReader("a a"))
	b, err := fs.ReadFile(rfs, "<stdin>")
	if err != nil || string(b) != "a a" {
		t.Fatalf("got %q, %v", b, err)
	}
	if _, err := rfs.Open("other"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v", err)
	}
}

func TestWithFaults(t *testing.T) {
	tfs := fsx.TestFS([][2]string{
		{"calm.lam", "a b"},
		{"loud.lam", "a b!"},
	})
	ffs, err := fsx.WithFaults(tfs, "unreadable-bangs")
	if err != nil {
		t.Fatal(err)
	}
	if b, err := fs.ReadFile(ffs, "calm.lam"); err != nil || string(b) != "a b" {
		t.Fatalf("got %q, %v", b, err)
	}
	if _, err := fs.ReadFile(ffs, "loud.lam"); !errors.Is(err, fsx.ErrInjected) {
		t.Fatalf("got %v", err)
	}
	if _, err := fsx.WithFaults(tfs, "flaky-disk"); err == nil {
		t.Error("expected unknown fault error")
	}
	if same, err := fsx.WithFaults(tfs); err != nil || same != fs.FS(tfs) {
		t.Errorf("no faults should return fsys unchanged")
	}
}

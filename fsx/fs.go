package fsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
)

var _ fs.File = (*treeFS)(nil)
var _ fs.DirEntry = (*treeFS)(nil)
var _ fs.ReadDirFile = (*treeFS)(nil)
var _ fs.FS = (*treeFS)(nil)
var _ CreateFS = (*treeFS)(nil)
var _ fs.FS = DirFS("")
var _ CreateFS = DirFS("")

type treeFS struct {
	entries []fs.File
	treeFile
}

// TestFS builds an in-memory filesystem from (slash-separated path, contents) pairs.
func TestFS(files [][2]string) *treeFS {
	tfs := newTreeFS("", 0)
	for _, file := range files {
		cur := tfs
		path, body := file[0], file[1]
		parts := strings.Split(path, "/")
		for i, part := range parts {
			if i == len(parts)-1 {
				cur.entries = append(cur.entries, newTreeFile(part, 0, []byte(body)))
				continue
			}
			entry, _ := cur.lookup(part)
			if entry == nil {
				entry = newTreeFS(part, 0)
				cur.entries = append(cur.entries, entry)
			}
			cur = entry.(*treeFS)
		}
	}
	return tfs
}

func (tfs *treeFS) lookup(name string) (fs.File, int) {
	f, i, _ := lo.FindIndexOf(tfs.entries, func(f fs.File) bool {
		return nameOf(f) == name
	})
	return f, i
}

// ReadDir implements fs.ReadDirFile
func (tfs *treeFS) ReadDir(count int) ([]fs.DirEntry, error) {
	n := len(tfs.entries) - tfs.offset
	if n == 0 && count > 0 {
		return nil, io.EOF
	}
	if count > 0 && n > count {
		n = count
	}
	list := make([]fs.DirEntry, n)
	for i := range list {
		list[i] = tfs.entries[tfs.offset+i].(fs.DirEntry)
	}
	tfs.offset += n
	return list, nil
}

var _ fs.FileInfo = (*treeFile)(nil)
var _ fs.File = (*treeFile)(nil)
var _ fs.DirEntry = (*treeFile)(nil)
var _ WriteableFile = (*treeFile)(nil)

type treeFile struct {
	name   string
	mode   fs.FileMode
	data   []byte
	offset int
}

// Write implements WriteableFile
func (tf *treeFile) Write(p []byte) (n int, err error) {
	tf.data = append(tf.data, p...)
	return len(p), nil
}

// Info implements fs.DirEntry
func (tf *treeFile) Info() (fs.FileInfo, error) {
	return tf, nil
}

// Type implements fs.DirEntry
func (tf *treeFile) Type() fs.FileMode {
	return tf.mode.Type()
}

// Close implements fs.File
func (tf *treeFile) Close() error {
	tf.offset = 0
	return nil
}

// Read implements fs.File
func (tf *treeFile) Read(p []byte) (int, error) {
	if tf.offset >= len(tf.data) {
		return 0, io.EOF
	}
	n := copy(p, tf.data[tf.offset:])
	tf.offset += n
	return n, nil
}

// Stat implements fs.File
func (tf *treeFile) Stat() (fs.FileInfo, error) {
	return tf, nil
}

func (tf *treeFile) IsDir() bool {
	return tf.mode.IsDir()
}

func (*treeFile) ModTime() time.Time {
	return time.Time{}
}

func (tf *treeFile) Mode() fs.FileMode {
	return tf.mode
}

func (tf *treeFile) Name() string {
	return tf.name
}

func (tf *treeFile) Size() int64 {
	return int64(len(tf.data))
}

func (*treeFile) Sys() any {
	return nil
}

func newTreeFile(name string, mode fs.FileMode, data []byte) *treeFile {
	return &treeFile{
		name: name,
		mode: mode,
		data: data,
	}
}

func (tfs *treeFS) Read([]byte) (int, error) { return 0, errors.New("cannot read directory") }

func newTreeFS(name string, perm fs.FileMode) *treeFS {
	return &treeFS{
		entries: []fs.File{},
		treeFile: treeFile{
			name: name,
			mode: perm | fs.ModeDir,
		},
	}
}

// Create implements CreateFS. An existing file is truncated.
func (tfs *treeFS) Create(name string) (WriteableFile, error) {
	entry, _ := tfs.lookup(name)
	switch f := entry.(type) {
	case nil:
	case *treeFile:
		f.data = nil
		f.offset = 0
		return f, nil
	default:
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
	}
	f := newTreeFile(name, 0, nil)
	tfs.entries = append(tfs.entries, f)
	return f, nil
}

func nameOf(f fs.File) string {
	switch f := f.(type) {
	case *treeFS:
		return f.name
	case *treeFile:
		return f.name
	}
	panic("unreachable")
}

func (tfs *treeFS) open(name string) (fs.File, error) {
	cur := tfs
	for _, elem := range strings.Split(name, "/") {
		if elem == "." {
			continue
		}
		entry, _ := cur.lookup(elem)
		if entry == nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		if dir, ok := entry.(*treeFS); ok {
			cur = dir
			continue
		}
		return entry, nil
	}
	ntfs := *cur
	return &ntfs, nil
}

// Open implements fs.FS
func (tfs *treeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return tfs.open(name)
}

type WriteableFile interface {
	fs.File
	io.Writer
}

type CreateFS interface {
	fs.FS
	Create(name string) (WriteableFile, error)
}

func Create(fsys fs.FS, name string) (WriteableFile, error) {
	if cfs, ok := fsys.(CreateFS); ok {
		return cfs.Create(name)
	}
	return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
}

// DirFS is like os.DirFS, but also supports Create.
type DirFS string

// Create implements CreateFS
func (dir DirFS) Create(name string) (WriteableFile, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "create", Path: name, Err: err}
	}
	f, err := os.Create(fullname)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (dir DirFS) Open(name string) (fs.File, error) {
	fullname, err := dir.join(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f, err := os.Open(fullname)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// join returns the path for name in dir.
func (dir DirFS) join(name string) (string, error) {
	if dir == "" {
		return "", errors.New("DirFS with empty root")
	}
	if !fs.ValidPath(name) {
		return "", fs.ErrInvalid
	}
	return filepath.Join(string(dir), filepath.FromSlash(name)), nil
}

// ReaderFS serves a single file called name whose contents are read from r, such
// as standard input. The contents can only be read once.
func ReaderFS(name string, r io.Reader) fs.FS {
	return &readerFS{name: name, r: r}
}

type readerFS struct {
	name string
	r    io.Reader
}

func (rfs *readerFS) Open(name string) (fs.File, error) {
	if name != rfs.name {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &readerFile{info: newTreeFile(name, 0, nil), r: rfs.r}, nil
}

type readerFile struct {
	info *treeFile
	r    io.Reader
}

func (f *readerFile) Read(p []byte) (int, error)  { return f.r.Read(p) }
func (f *readerFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *readerFile) Close() error               { return nil }

// ErrInjected is wrapped by every read error caused by an injected fault.
var ErrInjected = errors.New("injected fault")

// Faults maps each injectable read fault to the data it refuses to read.
var Faults = map[string]func(data []byte) bool{
	"unreadable-bangs": func(data []byte) bool { return bytes.IndexByte(data, '!') >= 0 },
}

// WithFaults wraps fsys so that reading a file fails whenever one of the named
// faults matches the data read.
func WithFaults(fsys fs.FS, names ...string) (fs.FS, error) {
	var faults []func([]byte) bool
	for _, name := range names {
		fault, ok := Faults[name]
		if !ok {
			return nil, fmt.Errorf("unknown fault %q", name)
		}
		faults = append(faults, fault)
	}
	if len(faults) == 0 {
		return fsys, nil
	}
	return &faultyFS{FS: fsys, faults: faults}, nil
}

type faultyFS struct {
	fs.FS
	faults []func([]byte) bool
}

func (ffs *faultyFS) Open(name string) (fs.File, error) {
	f, err := ffs.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: f, name: name, faults: ffs.faults}, nil
}

type faultyFile struct {
	fs.File
	name   string
	faults []func([]byte) bool
}

func (f *faultyFile) Read(p []byte) (int, error) {
	n, err := f.File.Read(p)
	for _, fault := range f.faults {
		if fault(p[:n]) {
			return 0, &fs.PathError{Op: "read", Path: f.name, Err: ErrInjected}
		}
	}
	return n, err
}

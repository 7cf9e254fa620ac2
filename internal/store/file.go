package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/lino"
)

// FileBackend keeps the store in a flat LiNo file, one entry per line:
//
//	(index source target)
//	(index source target "name")
//
// Blank lines and lines starting with '#' are ignored on load.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the file at path. The file is only
// touched by Load and Save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Kind implements Backend.
func (b *FileBackend) Kind() Kind {
	return KindFile
}

// Load reads the file. A missing file is an empty store.
func (b *FileBackend) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Names: map[uint32]string{}}

	f, err := os.Open(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("open %s: %w", b.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return snap, err
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, name, err := parseEntry(line)
		if err != nil {
			return snap, fmt.Errorf("%s:%d: %w", b.path, lineNo, err)
		}
		snap.Doublets = append(snap.Doublets, d)
		if name != "" {
			snap.Names[d.Index] = name
		}
	}
	if err := scanner.Err(); err != nil {
		return snap, fmt.Errorf("read %s: %w", b.path, err)
	}
	return snap, nil
}

func parseEntry(line string) (doublet.Doublet, string, error) {
	nodes, err := lino.Parse(line)
	if err != nil {
		return doublet.Doublet{}, "", fmt.Errorf("malformed entry %q: %w", line, err)
	}
	if len(nodes) != 1 || nodes[0].HasID() {
		return doublet.Doublet{}, "", fmt.Errorf("malformed entry %q", line)
	}
	fields := nodes[0].Children
	if len(fields) != 3 && len(fields) != 4 {
		return doublet.Doublet{}, "", fmt.Errorf("malformed entry %q: want 3 or 4 fields, got %d", line, len(fields))
	}

	var refs [3]uint32
	for i := range refs {
		f := fields[i]
		if !f.IsLeaf() || !f.IsNumeric() {
			return doublet.Doublet{}, "", fmt.Errorf("malformed entry %q: field %d is not a number", line, i+1)
		}
		n, err := strconv.ParseUint(f.ID, 10, 32)
		if err != nil {
			return doublet.Doublet{}, "", fmt.Errorf("malformed entry %q: %w", line, err)
		}
		refs[i] = uint32(n)
	}

	var name string
	if len(fields) == 4 {
		if !fields[3].IsLeaf() || fields[3].ID == "" {
			return doublet.Doublet{}, "", fmt.Errorf("malformed entry %q: bad name", line)
		}
		name = fields[3].ID
	}
	return doublet.New(refs[0], refs[1], refs[2]), name, nil
}

// Save replaces the file with snap, sorted by index. The new content is
// written to a temporary file in the same directory and renamed over the
// old one.
func (b *FileBackend) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, d := range sortedDoublets(snap.Doublets) {
		if name, ok := snap.Names[d.Index]; ok {
			fmt.Fprintf(w, "(%d %d %d %s)\n", d.Index, d.Source, d.Target, lino.Quote(name))
		} else {
			fmt.Fprintf(w, "(%d %d %d)\n", d.Index, d.Source, d.Target)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replace %s: %w", b.path, err)
	}
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	return nil
}

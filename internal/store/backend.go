package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// Kind names a persistence backend.
type Kind string

const (
	KindFile    Kind = "lino"
	KindSQLite  Kind = "sqlite"
	KindLevelDB Kind = "leveldb"
	KindBadger  Kind = "badger"
)

// Kinds lists every backend kind.
var Kinds = []Kind{KindFile, KindSQLite, KindLevelDB, KindBadger}

// ParseKind validates a backend name. The empty string means "infer from the
// path" and is returned as is.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return "", nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown backend %q: must be one of %v", s, Kinds)
}

// KindFromPath infers the backend from the path suffix.
func KindFromPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	case ".leveldb":
		return KindLevelDB
	case ".badger":
		return KindBadger
	default:
		return KindFile
	}
}

// Snapshot is the full persisted state of a store.
type Snapshot struct {
	Doublets []doublet.Doublet
	Names    map[uint32]string
}

// Backend loads and saves whole snapshots.
type Backend interface {
	Kind() Kind
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// OpenBackend opens the backend of the given kind at path.
func OpenBackend(kind Kind, path string, logger *slog.Logger) (Backend, error) {
	switch kind {
	case KindFile:
		return NewFileBackend(path), nil
	case KindSQLite:
		return OpenSQLite(path)
	case KindLevelDB:
		return OpenLevelDB(path)
	case KindBadger:
		return OpenBadger(path, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

func sortedDoublets(ds []doublet.Doublet) []doublet.Doublet {
	out := make([]doublet.Doublet, len(ds))
	copy(out, ds)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

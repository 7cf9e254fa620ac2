package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// Key layout shared by the key-value backends:
//
//	'd' + index (4 bytes, big endian) -> source, target (4 bytes each)
//	'n' + index (4 bytes, big endian) -> name
//
// Big-endian indices keep iteration in index order.
const (
	doubletPrefix byte = 'd'
	namePrefix    byte = 'n'
)

func encodeKey(prefix byte, index uint32) []byte {
	key := make([]byte, 5)
	key[0] = prefix
	binary.BigEndian.PutUint32(key[1:], index)
	return key
}

func decodeKey(key []byte) (byte, uint32, error) {
	if len(key) != 5 {
		return 0, 0, fmt.Errorf("invalid key length %d", len(key))
	}
	return key[0], binary.BigEndian.Uint32(key[1:]), nil
}

func encodeRefs(d doublet.Doublet) []byte {
	value := make([]byte, 8)
	binary.BigEndian.PutUint32(value[:4], d.Source)
	binary.BigEndian.PutUint32(value[4:], d.Target)
	return value
}

func decodeRefs(index uint32, value []byte) (doublet.Doublet, error) {
	if len(value) != 8 {
		return doublet.Doublet{}, fmt.Errorf("doublet %d: invalid value length %d", index, len(value))
	}
	return doublet.New(index, binary.BigEndian.Uint32(value[:4]), binary.BigEndian.Uint32(value[4:])), nil
}

// snapshotEntries returns the key/value pairs representing snap.
func snapshotEntries(snap Snapshot) map[string][]byte {
	entries := make(map[string][]byte, len(snap.Doublets)+len(snap.Names))
	for _, d := range snap.Doublets {
		entries[string(encodeKey(doubletPrefix, d.Index))] = encodeRefs(d)
	}
	for index, name := range snap.Names {
		entries[string(encodeKey(namePrefix, index))] = []byte(name)
	}
	return entries
}

// decodeEntry adds one stored key/value pair to snap.
func decodeEntry(snap *Snapshot, key, value []byte) error {
	prefix, index, err := decodeKey(key)
	if err != nil {
		return err
	}
	switch prefix {
	case doubletPrefix:
		d, err := decodeRefs(index, value)
		if err != nil {
			return err
		}
		snap.Doublets = append(snap.Doublets, d)
	case namePrefix:
		snap.Names[index] = string(value)
	default:
		return fmt.Errorf("unknown key prefix %q", prefix)
	}
	return nil
}

// LevelDBBackend stores the snapshot in a LevelDB directory.
type LevelDBBackend struct {
	db *leveldb.DB
}

// OpenLevelDB opens or creates the LevelDB database at path.
func OpenLevelDB(path string) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &LevelDBBackend{db: db}, nil
}

// Kind implements Backend.
func (b *LevelDBBackend) Kind() Kind {
	return KindLevelDB
}

// Load implements Backend.
func (b *LevelDBBackend) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Names: map[uint32]string{}}

	it := b.db.NewIterator(nil, nil)
	defer it.Release()

	for it.Next() {
		if err := decodeEntry(&snap, it.Key(), it.Value()); err != nil {
			return snap, err
		}
	}
	if err := it.Error(); err != nil {
		return snap, fmt.Errorf("iterate leveldb: %w", err)
	}
	return snap, ctx.Err()
}

// Save replaces the database contents with snap in one batch.
func (b *LevelDBBackend) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := snapshotEntries(snap)

	batch := new(leveldb.Batch)
	for _, prefix := range []byte{doubletPrefix, namePrefix} {
		it := b.db.NewIterator(util.BytesPrefix([]byte{prefix}), nil)
		for it.Next() {
			if _, keep := entries[string(it.Key())]; !keep {
				batch.Delete(append([]byte(nil), it.Key()...))
			}
		}
		it.Release()
		if err := it.Error(); err != nil {
			return fmt.Errorf("iterate leveldb: %w", err)
		}
	}
	for key, value := range entries {
		batch.Put([]byte(key), value)
	}

	if err := b.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("write leveldb batch: %w", err)
	}
	return nil
}

// Close implements Backend.
func (b *LevelDBBackend) Close() error {
	return b.db.Close()
}

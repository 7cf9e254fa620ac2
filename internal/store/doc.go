// Package store owns the canonical state of the link database: the set of
// doublets, the name bijection, and the persistence backends that load and
// save them.
//
// # Model
//
// A Store keeps every doublet in memory, indexed both by index and by the
// (source, target) pair so that Search and GetOrCreate stay sub-linear. The
// next index only ever grows: after a load it is max(index)+1 and indices of
// deleted doublets are never handed out again.
//
// Names map to points (index == source == target). The mapping is a
// bijection: assigning a name that another index holds moves it, and deleting
// a named doublet drops its name. Names are NFC-normalized, so visually
// identical names in different Unicode forms refer to the same point.
//
// # Transactions
//
// Begin starts an undo journal. Every mutation made afterwards records the
// previous state of the doublet or name it touches; Rollback replays the
// journal backwards and restores the next-index counter. The query engine
// wraps each query in a transaction so a failing query leaves no trace.
//
// # Persistence
//
// Open picks a backend from the path:
//
//	*.db, *.sqlite, *.sqlite3   SQLite (with query history)
//	*.leveldb                   LevelDB directory
//	*.badger                    Badger directory
//	anything else               flat LiNo file, one "(index source target)" per line
//
// Save rewrites the whole external representation. There is no incremental
// write path and no durability beyond whole-file replacement.
//
// # Concurrency
//
// A Store is single-writer and performs no locking. Callers that share a
// Store between goroutines must serialize every call.
package store

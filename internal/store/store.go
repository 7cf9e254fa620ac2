package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/link-foundation/link-cli/internal/doublet"
)

// Store is the in-memory doublet collection plus its name table.
//
// All queries run against memory; a Backend only loads the store once in
// Open and rewrites it in full on Save. There is no incremental write.
//
// INVARIANTS:
//   - Every doublet has index >= 1; (0, 0, 0) is the null doublet and is
//     never stored
//   - byPair lists every index holding a (source, target) pair, ascending,
//     so Search and GetOrCreate return the lowest match
//   - Names are a bijection onto indices: one name per index, one index
//     per name, NFC-normalized. Deleting a doublet drops its name
//   - nextID is strictly greater than every index ever allocated and only
//     moves forward; deleted indices are never handed out again
//   - Every mutation inside Begin/Commit is journaled, so Rollback restores
//     doublets, names and nextID exactly
//
// Thread-safety: none. A Store belongs to one query pipeline at a time.
type Store struct {
	links   map[uint32]doublet.Doublet
	byPair  map[pair][]uint32 // sorted ascending
	names   *nameTable
	nextID  uint32
	dirty   bool
	journal *journal

	backend Backend
	path    string
	logger  *slog.Logger
}

type pair struct {
	source, target uint32
}

// Option configures Open and OpenMemory.
type Option func(*options)

type options struct {
	logger *slog.Logger
	kind   Kind
}

// WithLogger sets the logger for trace events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithBackend forces a backend instead of inferring it from the path.
func WithBackend(kind Kind) Option {
	return func(o *options) {
		o.kind = kind
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

func newStore(logger *slog.Logger) *Store {
	return &Store{
		links:  make(map[uint32]doublet.Doublet),
		byPair: make(map[pair][]uint32),
		names:  newNameTable(),
		nextID: 1,
		logger: logger,
	}
}

// OpenMemory returns an empty store without a persistence backend.
// Save is a no-op on such a store.
func OpenMemory(opts ...Option) *Store {
	o := buildOptions(opts)
	return newStore(o.logger)
}

// Open loads the store at path, or initializes an empty one if nothing
// exists there yet. The backend is inferred from the path unless
// WithBackend is given.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	kind := o.kind
	if kind == "" {
		kind = KindFromPath(path)
	}

	be, err := OpenBackend(kind, path, o.logger)
	if err != nil {
		return nil, doublet.StorageFailure(fmt.Sprintf("open %s store %s", kind, path), err)
	}

	snap, err := be.Load(ctx)
	if err != nil {
		be.Close()
		return nil, doublet.StorageFailure(fmt.Sprintf("load %s", path), err)
	}

	s := newStore(o.logger)
	if err := s.restore(snap); err != nil {
		be.Close()
		return nil, doublet.StorageFailure(fmt.Sprintf("load %s", path), err)
	}
	s.backend = be
	s.path = path

	s.logger.Debug("store loaded",
		"path", path,
		"backend", string(kind),
		"doublets", len(s.links),
		"names", s.names.len(),
	)
	return s, nil
}

// restore replaces the contents of s with snap.
func (s *Store) restore(snap Snapshot) error {
	for _, d := range snap.Doublets {
		if d.Index == 0 || d.Index == doublet.Any {
			return fmt.Errorf("doublet %s uses a reserved index", d)
		}
		if _, exists := s.links[d.Index]; exists {
			return fmt.Errorf("duplicate doublet index %d", d.Index)
		}
		s.put(d)
		if d.Index >= s.nextID {
			s.nextID = d.Index + 1
		}
	}
	for _, index := range sortedKeys(snap.Names) {
		if _, ok := s.links[index]; !ok {
			return fmt.Errorf("name %q refers to missing doublet %d", snap.Names[index], index)
		}
		s.names.set(index, snap.Names[index])
	}
	return nil
}

// Path returns the path the store was opened from, or "" for memory stores.
func (s *Store) Path() string {
	return s.path
}

// Backend returns the persistence backend, or nil for memory stores.
func (s *Store) Backend() Backend {
	return s.backend
}

// Dirty reports whether the store holds mutations that have not been saved.
func (s *Store) Dirty() bool {
	return s.dirty
}

// Snapshot returns a copy of the full state, doublets sorted by index.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Doublets: s.All(),
		Names:    s.names.snapshot(),
	}
}

// Save writes the whole store through its backend.
func (s *Store) Save(ctx context.Context) error {
	if s.backend == nil {
		s.dirty = false
		return nil
	}
	snap := s.Snapshot()
	if err := s.backend.Save(ctx, snap); err != nil {
		return doublet.StorageFailure(fmt.Sprintf("save %s", s.path), err)
	}
	s.dirty = false
	s.logger.Debug("store saved",
		"path", s.path,
		"backend", string(s.backend.Kind()),
		"doublets", len(snap.Doublets),
		"names", len(snap.Names),
	)
	return nil
}

// Export writes the full store into dst, leaving the store's own backend
// untouched.
func (s *Store) Export(ctx context.Context, dst Backend) error {
	if err := dst.Save(ctx, s.Snapshot()); err != nil {
		return doublet.StorageFailure(fmt.Sprintf("export to %s backend", dst.Kind()), err)
	}
	return nil
}

// Close releases the backend. It does not save.
func (s *Store) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// NextID returns the index the next Create will use.
func (s *Store) NextID() uint32 {
	return s.nextID
}

// Count returns the number of stored doublets.
func (s *Store) Count() int {
	return len(s.links)
}

// Get returns the doublet at index.
func (s *Store) Get(index uint32) (doublet.Doublet, bool) {
	d, ok := s.links[index]
	return d, ok
}

// Exists reports whether a doublet is stored at index.
func (s *Store) Exists(index uint32) bool {
	_, ok := s.links[index]
	return ok
}

// All returns every doublet sorted by index.
func (s *Store) All() []doublet.Doublet {
	out := make([]doublet.Doublet, 0, len(s.links))
	for _, d := range s.links {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Search returns the lowest index holding exactly (source, target).
func (s *Store) Search(source, target uint32) (uint32, bool) {
	bucket := s.byPair[pair{source, target}]
	if len(bucket) == 0 {
		return 0, false
	}
	return bucket[0], true
}

// Query returns every doublet matching pattern, where doublet.Any matches
// any value. Results are sorted by index.
func (s *Store) Query(pattern doublet.Doublet) []doublet.Doublet {
	if pattern.Index != doublet.Any {
		if d, ok := s.links[pattern.Index]; ok && d.Matches(pattern) {
			return []doublet.Doublet{d}
		}
		return nil
	}
	if pattern.Source != doublet.Any && pattern.Target != doublet.Any {
		bucket := s.byPair[pair{pattern.Source, pattern.Target}]
		out := make([]doublet.Doublet, 0, len(bucket))
		for _, index := range bucket {
			out = append(out, s.links[index])
		}
		return out
	}

	var out []doublet.Doublet
	for _, d := range s.All() {
		if d.Matches(pattern) {
			out = append(out, d)
		}
	}
	return out
}

// Create stores (source, target) under the next free index.
func (s *Store) Create(source, target uint32) uint32 {
	index := s.allocate()
	s.record(index)
	s.put(doublet.New(index, source, target))
	s.logger.Debug("doublet created", "index", index, "source", source, "target", target)
	return index
}

// GetOrCreate returns the index of an existing (source, target) doublet, or
// creates one. Structurally equal patterns therefore share one doublet.
func (s *Store) GetOrCreate(source, target uint32) uint32 {
	if index, ok := s.Search(source, target); ok {
		return index
	}
	return s.Create(source, target)
}

// EnsureCreated makes sure a doublet exists at index, creating the
// placeholder (index, 0, 0) if necessary. It reports whether it created one.
// The next index is moved past index so it is never allocated twice.
func (s *Store) EnsureCreated(index uint32) (bool, error) {
	if index == 0 || index == doublet.Any {
		return false, doublet.InvalidFormat("cannot create a doublet at reserved index %d", index)
	}
	if s.Exists(index) {
		return false, nil
	}
	s.record(index)
	if index >= s.nextID {
		s.nextID = index + 1
	}
	s.put(doublet.New(index, 0, 0))
	s.logger.Debug("doublet created", "index", index, "source", 0, "target", 0)
	return true, nil
}

// Update rewires the doublet at index and returns its previous state.
func (s *Store) Update(index, source, target uint32) (doublet.Doublet, error) {
	before, ok := s.links[index]
	if !ok {
		return doublet.Doublet{}, doublet.NotFound(index)
	}
	s.record(index)
	s.put(doublet.New(index, source, target))
	s.logger.Debug("doublet updated",
		"index", index,
		"source", source,
		"target", target,
		"previous_source", before.Source,
		"previous_target", before.Target,
	)
	return before, nil
}

// Delete removes the doublet at index along with its name, returning the
// removed doublet.
func (s *Store) Delete(index uint32) (doublet.Doublet, error) {
	before, ok := s.links[index]
	if !ok {
		return doublet.Doublet{}, doublet.NotFound(index)
	}
	if _, named := s.names.name(index); named {
		s.recordName(index)
		s.names.removeIndex(index)
	}
	s.record(index)
	s.remove(index)
	s.logger.Debug("doublet deleted", "index", index, "source", before.Source, "target", before.Target)
	return before, nil
}

func (s *Store) allocate() uint32 {
	index := s.nextID
	for s.Exists(index) {
		index++
	}
	s.nextID = index + 1
	return index
}

// put inserts or replaces d, keeping the pair index in sync.
func (s *Store) put(d doublet.Doublet) {
	if old, ok := s.links[d.Index]; ok {
		s.unindex(old)
	}
	s.links[d.Index] = d
	key := pair{d.Source, d.Target}
	bucket := s.byPair[key]
	i := sort.Search(len(bucket), func(i int) bool { return bucket[i] >= d.Index })
	bucket = append(bucket, 0)
	copy(bucket[i+1:], bucket[i:])
	bucket[i] = d.Index
	s.byPair[key] = bucket
	s.dirty = true
}

func (s *Store) remove(index uint32) {
	old, ok := s.links[index]
	if !ok {
		return
	}
	s.unindex(old)
	delete(s.links, index)
	s.dirty = true
}

func (s *Store) unindex(d doublet.Doublet) {
	key := pair{d.Source, d.Target}
	bucket := s.byPair[key]
	for i, index := range bucket {
		if index == d.Index {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.byPair, key)
		return
	}
	s.byPair[key] = bucket
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/link-foundation/link-cli/internal/changes"
	"github.com/link-foundation/link-cli/internal/doublet"
	"github.com/link-foundation/link-cli/internal/lino"
	"github.com/link-foundation/link-cli/internal/store"
)

// DefaultCacheSize is the number of parsed queries kept by default.
const DefaultCacheSize = 256

// Observer is notified after every Run. metrics.Recorder implements it.
type Observer interface {
	ObserveQuery(duration time.Duration, transitions []doublet.Transition, err error)
}

// Engine processes LiNo queries against a store.
//
// A query is one (restriction substitution) pair. The engine parses it,
// classifies it by which side is empty, rewrites the store and returns the
// simplified transitions:
//   - () ()        no-op
//   - () (...)     create every substitution pattern
//   - (...) ()     delete every restriction pattern that exists
//   - (...) (...)  update by id: both sides update, restriction-only
//     deletes, substitution-only creates
//
// Single-writer contract: the engine never locks the store. One query runs
// to completion before the next may start, and callers sharing a store
// across goroutines must serialize Process and Run themselves. The engine
// itself only holds the parse cache, which is safe for concurrent use.
//
// INVARIANTS:
//   - A failed query leaves the store exactly as it was (journal rollback)
//   - Nothing is persisted until the whole query succeeded
//   - Transition order is deterministic for a given store and query
type Engine struct {
	logger   *slog.Logger
	ids      IDGenerator
	cache    *lru.Cache[string, []lino.Node]
	observer Observer
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	ids       IDGenerator
	cacheSize int
	observer  Observer
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithIDGenerator sets the query id generator. Defaults to UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *config) {
		c.ids = ids
	}
}

// WithCacheSize sets how many parsed queries are cached. Zero disables the
// cache.
func WithCacheSize(size int) Option {
	return func(c *config) {
		c.cacheSize = size
	}
}

// WithObserver registers an observer for Run.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	c := config{
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	e := &Engine{
		logger:   c.logger,
		ids:      c.ids,
		observer: c.observer,
	}
	if c.cacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		e.cache, _ = lru.New[string, []lino.Node](c.cacheSize)
	}
	return e
}

// Result is the outcome of Run.
type Result struct {
	QueryID     string               `json:"query_id"`
	Transitions []doublet.Transition `json:"transitions"`
	HistorySeq  int64                `json:"history_seq,omitempty"`
}

// Process applies query to st in memory and returns the simplified
// transitions. On error st is rolled back to its state before the call.
func (e *Engine) Process(st *store.Store, query string) ([]doublet.Transition, error) {
	tx := st.Begin()
	transitions, err := e.apply(st, query)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	tx.Commit()
	return transitions, nil
}

// Run is the full query pipeline: Process, then save the store if it
// changed, then record the query in the backend history if there is one.
// If saving fails the in-memory store is rolled back as well.
func (e *Engine) Run(ctx context.Context, st *store.Store, query string) (*Result, error) {
	queryID := e.ids.Generate()
	logger := e.logger.With("query_id", queryID)
	start := time.Now()

	// Step 1: rewrite in memory. Step 2: persist only if something changed.
	// Both run under one journal so a save failure undoes the rewrite.
	tx := st.Begin()
	transitions, err := e.apply(st, query)
	if err == nil && st.Dirty() {
		err = st.Save(ctx)
	}
	if err != nil {
		tx.Rollback()
		e.observe(time.Since(start), nil, err)
		logger.Debug("query failed", "query", query, "error", err)
		return nil, err
	}
	tx.Commit()

	// Step 3: history. The store is already saved, so a history failure is
	// reported but does not fail the query.
	result := &Result{QueryID: queryID, Transitions: transitions}
	if st.SupportsHistory() && len(transitions) > 0 {
		seq, err := st.AppendHistory(ctx, queryID, query, transitions)
		if err != nil {
			logger.Warn("failed to record query history", "error", err)
		}
		result.HistorySeq = seq
	}

	e.observe(time.Since(start), transitions, nil)
	logger.Debug("query processed",
		"query", query,
		"transitions", len(transitions),
		"duration", time.Since(start),
	)
	return result, nil
}

// RunQuery runs query with a default engine and returns its transitions.
func RunQuery(ctx context.Context, st *store.Store, query string) ([]doublet.Transition, error) {
	result, err := New(WithCacheSize(0)).Run(ctx, st, query)
	if err != nil {
		return nil, err
	}
	return result.Transitions, nil
}

func (e *Engine) observe(d time.Duration, transitions []doublet.Transition, err error) {
	if e.observer != nil {
		e.observer.ObserveQuery(d, transitions, err)
	}
}

// parse returns the top-level nodes of query, using the cache when enabled.
// Cached trees are shared and must not be modified.
func (e *Engine) parse(query string) ([]lino.Node, error) {
	if e.cache != nil {
		if nodes, ok := e.cache.Get(query); ok {
			return nodes, nil
		}
	}
	nodes, err := lino.Parse(query)
	if err != nil {
		return nil, doublet.ParseFailure(err)
	}
	if e.cache != nil {
		e.cache.Add(query, nodes)
	}
	return nodes, nil
}

// apply dispatches query by the shape of its (restriction substitution)
// pair. The caller owns the transaction.
func (e *Engine) apply(st *store.Store, query string) ([]doublet.Transition, error) {
	if strings.TrimSpace(query) == "" {
		return []doublet.Transition{}, nil
	}

	nodes, err := e.parse(query)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, doublet.InvalidFormat("query must be one (restriction substitution) pair, got %d top-level nodes", len(nodes))
	}
	if len(nodes[0].Children) != 2 {
		return nil, doublet.InvalidFormat("query must have exactly two children (restriction substitution), got %d", len(nodes[0].Children))
	}

	restriction, substitution := nodes[0].Children[0], nodes[0].Children[1]
	r := newRewrite(st)

	// Emptiness is by child count: () is empty, (a) is not a pair and is
	// rejected further down.

	var raw []doublet.Transition
	switch {
	case restriction.IsLeaf() && substitution.IsLeaf():
		return []doublet.Transition{}, nil
	case restriction.IsLeaf():
		raw, err = r.create(substitution)
	case substitution.IsLeaf():
		raw, err = r.delete(restriction)
	default:
		raw, err = r.update(restriction, substitution)
	}
	if err != nil {
		return nil, err
	}
	return changes.SimplifyTransitions(raw), nil
}

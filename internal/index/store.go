package index

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mvbarbosa/judagg/internal/gazette"
)

// DefaultTTL is the freshness window after which a snapshot stops being
// trusted as a cache hit.
const DefaultTTL = 24 * time.Hour

// Config tunes a Store. The Clock hook exists so tests can simulate
// the passage of time.
type Config struct {
	TTL   time.Duration
	Clock func() time.Time
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// API is the snapshot store surface the indexer and the serving layer
// depend on.
type API interface {
	// Current returns the published snapshot. A nil snapshot with a
	// CodeNotBuilt error means no generation exists yet; a non-nil
	// snapshot with a CodeStale error means the generation exists but
	// exceeded the freshness window and needs a rebuild before being
	// trusted.
	Current() (*Snapshot, error)
	// Publish atomically swaps in a new generation. In-flight readers
	// keep the snapshot they already hold.
	Publish(snap *Snapshot) error
	// MergeIncremental folds new records into the current generation
	// under first-seen-wins and republishes with a fresh timestamp.
	MergeIncremental(records []gazette.Record, sourceDocs []string) (*Snapshot, error)
}

// Store is the in-memory snapshot holder. Reads are lock-free against
// an immutable snapshot reference; only publishing serializes.
type Store struct {
	cfg  Config
	snap atomic.Pointer[Snapshot]
	mu   sync.Mutex // serializes Publish / MergeIncremental
}

// NewStore builds an empty Store.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg.withDefaults()}
}

func (s *Store) Current() (*Snapshot, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, newError(CodeNotBuilt, "no snapshot built yet; run a reindex")
	}
	if age := s.cfg.Clock().Sub(snap.GeneratedAt); age > s.cfg.TTL {
		return snap, newError(CodeStale, "snapshot is %s old (freshness window %s)", age.Round(time.Second), s.cfg.TTL)
	}
	return snap, nil
}

func (s *Store) Publish(snap *Snapshot) error {
	if snap == nil {
		return newError(CodeValidation, "cannot publish a nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Store(snap)
	return nil
}

func (s *Store) MergeIncremental(records []gazette.Record, sourceDocs []string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snap.Load()
	if prev == nil {
		return nil, newError(CodeNotBuilt, "no snapshot to merge into; run a full reindex first")
	}
	docs := append([]string{}, prev.SourceDocs...)
	for _, id := range sourceDocs {
		if !prev.HasDocument(id) {
			docs = append(docs, id)
		}
	}
	next := &Snapshot{
		Records:     Merge(prev.Records, records),
		SourceDocs:  docs,
		GeneratedAt: s.cfg.Clock(),
	}
	s.snap.Store(next)
	return next, nil
}

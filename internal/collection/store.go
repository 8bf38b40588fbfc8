package collection

import (
	"errors"
	"sort"
	"sync"

	"github.com/recipenav/recipenav/internal/models"
)

var (
	// ErrMutationInFlight indicates another mutation is already outstanding
	// for the same record id.
	ErrMutationInFlight = errors.New("mutation already in flight for record")
)

// MutationKind identifies the operation an outstanding mutation performs.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
	MutationLike   MutationKind = "like"
)

type entry struct {
	recipe models.Recipe
	seq    uint64
}

// Store holds the client's best-known copy of the recipe collection together
// with the ledger of mutations currently on the wire. All operations are
// synchronous and touch only the snapshot; network traffic lives elsewhere.
type Store struct {
	mu       sync.RWMutex
	records  map[string]entry
	inflight map[string]MutationKind
	nextSeq  uint64

	subMu sync.Mutex
	subs  map[int]func()
	subID int
}

// NewStore returns an empty snapshot store.
func NewStore() *Store {
	return &Store{
		records:  make(map[string]entry),
		inflight: make(map[string]MutationKind),
		subs:     make(map[int]func()),
	}
}

// Subscribe registers a callback invoked after every successful snapshot
// change. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.subID
	s.subID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ReplaceAll swaps the entire snapshot for the provided records, used after
// a successful full fetch. Input order becomes the stable tie-break order.
func (s *Store) ReplaceAll(records []models.Recipe) {
	s.mu.Lock()
	s.records = make(map[string]entry, len(records))
	for _, r := range records {
		s.nextSeq++
		s.records[r.ID] = entry{recipe: r, seq: s.nextSeq}
	}
	s.mu.Unlock()
	s.notify()
}

// Insert adds a record to the snapshot under its current id.
func (s *Store) Insert(recipe models.Recipe) {
	s.mu.Lock()
	s.nextSeq++
	s.records[recipe.ID] = entry{recipe: recipe, seq: s.nextSeq}
	s.mu.Unlock()
	s.notify()
}

// Remove deletes the record and returns it, so callers can retain a
// rollback value. The second result is false when the id is absent.
func (s *Store) Remove(id string) (models.Recipe, bool) {
	s.mu.Lock()
	e, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return e.recipe, ok
}

// Replace overwrites the record stored under id wholesale, keeping its
// position in the stable order. No-op when the id is absent.
func (s *Store) Replace(id string, recipe models.Recipe) bool {
	s.mu.Lock()
	e, ok := s.records[id]
	if ok {
		e.recipe = recipe
		s.records[id] = e
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

// Rekey moves the record stored under oldID to the server-assigned record,
// replacing the placeholder written by an optimistic create.
func (s *Store) Rekey(oldID string, recipe models.Recipe) bool {
	s.mu.Lock()
	e, ok := s.records[oldID]
	if ok {
		delete(s.records, oldID)
		e.recipe = recipe
		s.records[recipe.ID] = e
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

// Patch describes a partial merge into an existing record. Nil fields are
// left untouched.
type Patch struct {
	Title       *string
	Description *string
	Category    *string
	Ingredients *[]string
	Image       *string
	Likes       *int
	LikedByUser *bool
}

// Apply merges the patch into the recipe and returns the result.
func (p Patch) Apply(r models.Recipe) models.Recipe {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Ingredients != nil {
		r.Ingredients = *p.Ingredients
	}
	if p.Image != nil {
		r.Image = *p.Image
	}
	if p.Likes != nil {
		r.Likes = *p.Likes
	}
	if p.LikedByUser != nil {
		r.LikedByUser = *p.LikedByUser
	}
	return r
}

// ApplyPatch merges the given fields into the record stored under id.
// No-op when the id is absent.
func (s *Store) ApplyPatch(id string, patch Patch) bool {
	s.mu.Lock()
	e, ok := s.records[id]
	if ok {
		e.recipe = patch.Apply(e.recipe)
		s.records[id] = e
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

// Get returns the record stored under id.
func (s *Store) Get(id string) (models.Recipe, bool) {
	s.mu.RLock()
	e, ok := s.records[id]
	s.mu.RUnlock()
	return e.recipe, ok
}

// Snapshot returns all records in stable insertion order.
func (s *Store) Snapshot() []models.Recipe {
	s.mu.RLock()
	entries := make([]entry, 0, len(s.records))
	for _, e := range s.records {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]models.Recipe, len(entries))
	for i, e := range entries {
		out[i] = e.recipe
	}
	return out
}

// Len reports the number of records in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Begin marks a mutation outstanding for id, enforcing the per-id in-flight
// guard. It must be called before the optimistic apply.
func (s *Store) Begin(id string, kind MutationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return ErrMutationInFlight
	}
	s.inflight[id] = kind
	return nil
}

// End clears the in-flight mark once the mutation has settled.
func (s *Store) End(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

// InFlight reports the outstanding mutation kind for id, if any.
func (s *Store) InFlight(id string) (MutationKind, bool) {
	s.mu.RLock()
	kind, ok := s.inflight[id]
	s.mu.RUnlock()
	return kind, ok
}

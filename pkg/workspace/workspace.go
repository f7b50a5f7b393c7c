// Package workspace keeps editable documents in memory for the HTTP API.
//
// A [Document] pairs a parsed [location.Location] with its own
// [pipeline.Pipeline]. Documents are addressed by random UUIDs and live as
// long as the process (or until [Store.Cleanup] evicts idle ones). Nothing is
// persisted.
//
// # Concurrency
//
// The store is safe for concurrent use. Each document has its own mutex, so
// edits to different documents never contend, while edits to one document
// are applied one at a time in arrival order.
//
// # Usage
//
//	store := workspace.NewStore()
//	doc, _ := store.Create(ctx, "https://cdn.example.com/img.jpg")
//	view, err := store.Edit(ctx, doc.ID, func(e *workspace.Editor) {
//	    e.Pipeline.Add(block.Quality)
//	})
//	fmt.Println(view.URL) // https://cdn.example.com/q_auto/img.jpg
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/imgblocks/pkg/block"
	"github.com/matzehuels/imgblocks/pkg/errors"
	"github.com/matzehuels/imgblocks/pkg/location"
	"github.com/matzehuels/imgblocks/pkg/pipeline"
)

// DefaultIdleTTL is how long an untouched document survives Cleanup.
const DefaultIdleTTL = 24 * time.Hour

// Document is one editable image URL and its pipeline.
type Document struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	rawURL    string
	loc       location.Location
	pipe      *pipeline.Pipeline
	updatedAt time.Time
}

// Editor is handed to Edit callbacks. Pipeline may be mutated freely;
// SetURL re-parses the source URL without touching the blocks.
type Editor struct {
	Pipeline *pipeline.Pipeline
	doc      *Document
}

// SetURL replaces the document's source URL.
func (e *Editor) SetURL(url string) {
	e.doc.rawURL = url
	e.doc.loc = location.Parse(url)
}

// Location returns the current parsed source URL.
func (e *Editor) Location() location.Location {
	return e.doc.loc
}

// View is a consistent snapshot of a document.
type View struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Location  location.Location `json:"location"`
	URL       string            `json:"url"`
	Blocks    []BlockView       `json:"blocks"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// BlockView is the display form of one block.
type BlockView struct {
	ID       int            `json:"id"`
	Type     block.Type     `json:"type"`
	Title    string         `json:"title"`
	Order    int            `json:"order"`
	Expanded bool           `json:"expanded"`
	Params   map[string]any `json:"params"`
	Segment  string         `json:"segment"`
}

// view must be called with d.mu held.
func (d *Document) view() View {
	blocks := d.pipe.Blocks()
	out := make([]BlockView, len(blocks))
	for i, b := range blocks {
		out[i] = BlockView{
			ID:       b.ID,
			Type:     b.Type,
			Title:    b.Type.Title(),
			Order:    b.Order,
			Expanded: b.Expanded,
			Params:   b.Params.Values(),
			Segment:  block.Segment(b),
		}
	}
	return View{
		ID:        d.ID,
		Source:    d.rawURL,
		Location:  d.loc,
		URL:       pipeline.Compile(d.loc, blocks),
		Blocks:    out,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.updatedAt,
	}
}

// Store is an in-memory document registry.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document), now: time.Now}
}

// Create registers a new document for url with an empty pipeline.
func (s *Store) Create(ctx context.Context, url string) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	now := s.now()
	d := &Document{
		ID:        uuid.NewString(),
		CreatedAt: now,
		rawURL:    url,
		loc:       location.Parse(url),
		pipe:      pipeline.New(),
		updatedAt: now,
	}

	s.mu.Lock()
	s.docs[d.ID] = d
	s.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view(), nil
}

func (s *Store) lookup(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return d, nil
}

// Get returns a snapshot of the document.
func (s *Store) Get(ctx context.Context, id string) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	d, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view(), nil
}

// Snapshot returns the document's location and a deep copy of its blocks.
func (s *Store) Snapshot(ctx context.Context, id string) (location.Location, []block.Block, error) {
	if err := ctx.Err(); err != nil {
		return location.Location{}, nil, err
	}
	d, err := s.lookup(id)
	if err != nil {
		return location.Location{}, nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loc, d.pipe.Blocks(), nil
}

// Edit runs fn with exclusive access to the document and returns the
// resulting snapshot.
func (s *Store) Edit(ctx context.Context, id string, fn func(*Editor)) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	d, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	fn(&Editor{Pipeline: d.pipe, doc: d})
	d.updatedAt = s.now()
	return d.view(), nil
}

// Delete removes the document. Deleting an unknown document is an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	delete(s.docs, id)
	return nil
}

// Len returns the number of live documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Cleanup removes documents not edited within ttl and returns how many
// were removed.
func (s *Store) Cleanup(ctx context.Context, ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, d := range s.docs {
		if ctx.Err() != nil {
			break
		}
		d.mu.Lock()
		idle := d.updatedAt.Before(cutoff)
		d.mu.Unlock()
		if idle {
			delete(s.docs, id)
			removed++
		}
	}
	return removed
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentMemory is a process-lifetime implementation of repository.DocumentRepository.
// A single lock serializes every mutation and gives readers a consistent snapshot.
// Returned documents are copies and never alias stored state.
type DocumentMemory struct {
	mu    sync.RWMutex
	docs  map[string]*model.Document
	order []string
	seq   uint64

	now   func() time.Time
	newID func() string
}

// Option configures a DocumentMemory.
type Option func(*DocumentMemory)

// WithClock overrides the time source used for uploadedAt and history timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *DocumentMemory) { r.now = now }
}

// WithIDGenerator overrides the document id generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *DocumentMemory) { r.newID = gen }
}

// NewDocumentMemory creates an empty repository.
func NewDocumentMemory(opts ...Option) *DocumentMemory {
	r := &DocumentMemory{
		docs:  make(map[string]*model.Document),
		now:   func() time.Time { return time.Now().UTC() },
		newID: newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Create stores a new document record at version 1 with status pending.
func (r *DocumentMemory) Create(_ context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.newID()
	id := base
	// ids are never reused; fall back to a counter suffix on collision
	for {
		if _, taken := r.docs[id]; !taken {
			break
		}
		r.seq++
		id = fmt.Sprintf("%s-%d", base, r.seq)
	}

	now := r.now()
	stored := doc.Clone()
	stored.ID = id
	stored.Version = 1
	stored.Status = model.StatusPending
	stored.UploadedAt = now
	stored.History = []model.HistoryEntry{{
		Version:       1,
		Timestamp:     now,
		Actor:         doc.UploadedBy,
		ChangeSummary: model.SummaryInitialUpload,
	}}

	r.docs[id] = stored
	r.order = append(r.order, id)
	return stored.Clone(), nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentMemory) FindByID(_ context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d.Clone(), nil
}

// List returns the documents matching pred in insertion order.
func (r *DocumentMemory) List(_ context.Context, pred repository.Predicate) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Document, 0, len(r.order))
	for _, id := range r.order {
		d := r.docs[id]
		if pred != nil && !pred(d) {
			continue
		}
		items = append(items, *d.Clone())
	}
	return items, nil
}

// Update merges upd into the stored record and records a new revision.
func (r *DocumentMemory) Update(_ context.Context, id string, upd model.DocumentUpdate, actor string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	next := cur.Clone()
	upd.Apply(next)
	next.Version = cur.Version + 1
	entry := model.HistoryEntry{
		Version:       next.Version,
		Timestamp:     r.now(),
		Actor:         actor,
		ChangeSummary: model.SummaryMetadataUpdated,
	}
	next.History = append([]model.HistoryEntry{entry}, cur.History...)

	r.docs[id] = next
	return next.Clone(), nil
}

// SetStatus records an approval decision without bumping the version.
func (r *DocumentMemory) SetStatus(_ context.Context, id string, status model.Status) (*model.Document, error) {
	if !status.IsDecision() {
		return nil, repository.ErrInvalidStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := cur.Clone()
	next.Status = status
	r.docs[id] = next
	return next.Clone(), nil
}

// Delete removes a document and returns the blob key the caller should reclaim.
func (r *DocumentMemory) Delete(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.docs[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(r.docs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return d.StoredName, nil
}

// Len returns the number of stored documents.
func (r *DocumentMemory) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

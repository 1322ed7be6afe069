package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docvault/internal/logging"
	"docvault/internal/model"
	"docvault/internal/query"
	"docvault/internal/repository"
	"docvault/internal/stats"
	"docvault/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("document not found")
	ErrReaderNil     = errors.New("reader is nil")
	ErrInvalidStatus = errors.New("status must be approved or rejected")
)

var tracer = otel.Tracer("docvault/internal/service")

// UploadInput carries the file attributes and initial metadata of a new document.
type UploadInput struct {
	OriginalName    string
	ContentType     string
	Size            int64
	Title           string
	Description     string
	Category        string
	Department      string
	Confidentiality string
	Tags            []string
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload writes the content to the blob store, then inserts the record.
	// The blob is deleted again if the record cannot be stored.
	Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error)

	// List returns documents matching c in insertion order.
	List(ctx context.Context, c query.Criteria) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Open returns the document together with a stream of its file content.
	// The caller must close the stream.
	Open(ctx context.Context, id string) (io.ReadCloser, *model.Document, error)

	// Update merges the present fields of upd and records a new version.
	Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.Document, error)

	// SetStatus records an approval decision.
	SetStatus(ctx context.Context, id string, status model.Status) (*model.Document, error)

	// Delete removes the record, then makes a best-effort attempt to remove the blob.
	Delete(ctx context.Context, id string) error

	// Stats returns the dashboard counters.
	Stats(ctx context.Context) (*model.Stats, error)

	// RecentActivities returns the newest history entries across all documents.
	RecentActivities(ctx context.Context, limit int) ([]model.Activity, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	agg    *stats.Aggregator
	actor  string
	logger *logging.Logger
}

// Option configures the document service.
type Option func(*documentService)

// WithActor sets the identity attributed to uploads and updates.
func WithActor(actor string) Option {
	return func(s *documentService) { s.actor = actor }
}

// WithLogger sets the logger used for non-fatal storage failures.
func WithLogger(l *logging.Logger) Option {
	return func(s *documentService) { s.logger = l }
}

// WithAggregator sets the stats aggregator; by default one is built over repo.
func WithAggregator(agg *stats.Aggregator) Option {
	return func(s *documentService) { s.agg = agg }
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts ...Option) DocumentService {
	s := &documentService{
		store:  store,
		repo:   repo,
		actor:  "admin",
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.agg == nil {
		s.agg = stats.NewAggregator(repo, 1)
	}
	return s
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, in UploadInput) (_ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Upload",
		trace.WithAttributes(attribute.String("document.original_name", in.OriginalName)))
	defer func() { endSpan(span, err) }()

	if r == nil {
		return nil, ErrReaderNil
	}

	objInfo, err := s.store.Put(ctx, in.OriginalName, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	title := in.Title
	if title == "" {
		title = in.OriginalName
	}
	doc := &model.Document{
		Title:           title,
		Description:     in.Description,
		Category:        in.Category,
		Department:      in.Department,
		Confidentiality: in.Confidentiality,
		Tags:            model.NormalizeTags(in.Tags),
		StoredName:      objInfo.Key,
		OriginalName:    in.OriginalName,
		Size:            objInfo.Size,
		MimeType:        in.ContentType,
		UploadedBy:      s.actor,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, objInfo.Key); delErr != nil {
			return nil, fmt.Errorf("save record failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("save record failed: %w", err)
	}
	span.SetAttributes(attribute.String("document.id", stored.ID))
	return stored, nil
}

func (s *documentService) List(ctx context.Context, c query.Criteria) ([]model.Document, error) {
	return s.repo.List(ctx, c.Predicate())
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

func (s *documentService) Open(ctx context.Context, id string) (_ io.ReadCloser, _ *model.Document, err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Open", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.store.Get(ctx, doc.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored object: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) Update(ctx context.Context, id string, upd model.DocumentUpdate) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.Update(ctx, id, upd, s.actor)
	if err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

func (s *documentService) SetStatus(ctx context.Context, id string, status model.Status) (*model.Document, error) {
	// validated before lookup so an invalid value never reaches the store
	if !status.IsDecision() {
		return nil, ErrInvalidStatus
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

// Delete removes the record unconditionally, then its stored object.
// A storage failure is logged and does not fail the operation.
func (s *documentService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "DocumentService.Delete", trace.WithAttributes(attribute.String("document.id", id)))
	defer func() { endSpan(span, err) }()

	if id == "" {
		return ErrIDRequired
	}
	storedName, err := s.repo.Delete(ctx, id)
	if err != nil {
		return translate(err)
	}
	if delErr := s.store.Delete(ctx, storedName); delErr != nil {
		span.AddEvent("stored object delete failed", trace.WithAttributes(attribute.String("error", delErr.Error())))
		s.logger.Error("blob_delete_failed", delErr, logging.Fields{
			"component":   "service",
			"document_id": id,
			"stored_name": storedName,
		})
	}
	return nil
}

func (s *documentService) Stats(ctx context.Context) (*model.Stats, error) {
	return s.agg.Stats(ctx)
}

func (s *documentService) RecentActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	return s.agg.RecentActivities(ctx, limit)
}

// translate maps repository errors to service errors.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrInvalidStatus):
		return ErrInvalidStatus
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

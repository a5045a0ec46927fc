// Package blog implements the collection operations: create, read with
// relation population, patch, delete, search and media uploads.
package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/docstore"
	"github.com/starford/folio/internal/richtext"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// Pagination bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Publisher receives document change events.
type Publisher interface {
	PublishDocument(ev sse.DocumentEvent)
}

// RenderObserver is told about every content render.
type RenderObserver func(res *richtext.Result, elapsed time.Duration)

// Service coordinates the document store, hooks and media files.
type Service struct {
	db       *docstore.DB
	files    storage.Provider
	hooks    *content.Hooks
	events   Publisher
	logger   *slog.Logger
	newID    func() string
	mediaURL string
	observe  RenderObserver
	renderOp []richtext.Option
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used by hooks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.hooks = content.NewHooks(now) }
}

// WithEvents publishes document changes to p.
func WithEvents(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDGenerator replaces the UUID id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithMediaURLPrefix sets the public URL prefix of stored media files.
func WithMediaURLPrefix(prefix string) Option {
	return func(s *Service) { s.mediaURL = prefix }
}

// WithRenderObserver registers fn to be called after each render.
func WithRenderObserver(fn RenderObserver) Option {
	return func(s *Service) { s.observe = fn }
}

// WithRenderOptions sets the default renderer options.
func WithRenderOptions(opts ...richtext.Option) Option {
	return func(s *Service) { s.renderOp = opts }
}

// New creates a service. files may be nil when uploads are not needed.
func New(db *docstore.DB, files storage.Provider, opts ...Option) *Service {
	s := &Service{
		db:       db,
		files:    files,
		hooks:    content.NewHooks(nil),
		logger:   slog.Default(),
		newID:    uuid.NewString,
		mediaURL: "/media",
	}
	for _, o := range opts {
		o(s)
	}
	s.hooks.SetLocalMediaPrefix(s.mediaURL)
	return s
}

// Ping checks the document store.
func (s *Service) Ping() error { return s.db.Ping() }

// Page is one page of a collection listing.
type Page[T any] struct {
	Docs        []T  `json:"docs"`
	TotalDocs   int  `json:"totalDocs"`
	Limit       int  `json:"limit"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// ListParams selects a page of a collection.
type ListParams struct {
	Status string
	Sort   string
	Limit  int
	Page   int
	Depth  int
}

func (p ListParams) normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// docPtr is satisfied by pointers to collection models.
type docPtr[T any] interface {
	*T
	content.Document
}

func collectionOf[T any, P docPtr[T]]() string {
	return P(new(T)).CollectionName()
}

func decodeRow[T any, P docPtr[T]](r *docstore.Row) (P, error) {
	doc := P(new(T))
	if err := json.Unmarshal(r.Data, doc); err != nil {
		return nil, fmt.Errorf("blog: decode %s/%s: %w", r.Collection, r.ID, err)
	}
	return doc, nil
}

func toRow(doc content.Document, created, updated time.Time) (docstore.Row, error) {
	doc.Dehydrate()
	data, err := json.Marshal(doc)
	if err != nil {
		return docstore.Row{}, fmt.Errorf("blog: encode: %w", err)
	}
	idx := doc.IndexFields()
	return docstore.Row{
		Collection:  doc.CollectionName(),
		ID:          doc.DocumentID(),
		Handle:      idx.Handle,
		Title:       idx.Title,
		Status:      idx.Status,
		PublishedAt: idx.PublishedAt,
		Data:        data,
		Body:        idx.Body,
		Checksum:    checksum.Sum(data),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// invalid wraps validation failures so callers can match apperr.ErrInvalid
// and still reach the validation.Errors with errors.As.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
}

func (s *Service) validate(ctx context.Context, doc content.Document) error {
	var verrs validation.Errors
	if err := doc.Validate(); err != nil {
		if !errors.As(err, &verrs) {
			return invalid(err)
		}
	}
	refErrs, err := s.checkRefs(ctx, doc)
	if err != nil {
		return err
	}
	for k, v := range refErrs {
		if verrs == nil {
			verrs = validation.Errors{}
		}
		if _, exists := verrs[k]; !exists {
			verrs[k] = v
		}
	}
	if len(verrs) > 0 {
		return invalid(verrs)
	}
	return nil
}

var errMissingRef = validation.NewError("validation_relation_missing", "references a missing document")

// checkRefs reports relations pointing at documents that do not exist.
func (s *Service) checkRefs(ctx context.Context, doc content.Document) (validation.Errors, error) {
	type ref struct {
		field, collection string
		ids               []string
	}
	var refs []ref
	switch d := doc.(type) {
	case *content.Post:
		refs = []ref{
			{"author", content.CollectionUsers, nonEmpty(d.Author.ID)},
			{"category", content.CollectionCategories, nonEmpty(d.Category.ID)},
			{"featuredImage", content.CollectionMedia, nonEmpty(d.FeaturedImage.ID)},
			{"tags", content.CollectionTags, content.RelationIDs(d.Tags)},
		}
	case *content.User:
		refs = []ref{{"avatar", content.CollectionMedia, nonEmpty(d.Avatar.ID)}}
	}

	errs := validation.Errors{}
	for _, r := range refs {
		if len(r.ids) == 0 {
			continue
		}
		found, err := s.db.GetMany(ctx, r.collection, r.ids)
		if err != nil {
			return nil, err
		}
		for _, id := range r.ids {
			if _, ok := found[id]; !ok {
				errs[r.field] = errMissingRef
				break
			}
		}
	}
	return errs, nil
}

func nonEmpty(ids ...string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) publish(kind string, doc content.Document) {
	if s.events == nil {
		return
	}
	s.events.PublishDocument(sse.DocumentEvent{
		Collection: doc.CollectionName(),
		Kind:       kind,
		ID:         doc.DocumentID(),
		Handle:     doc.IndexFields().Handle,
	})
}

// Create runs the before-change hooks, validates and stores a new document.
// It returns the stored checksum.
func (s *Service) Create(ctx context.Context, doc content.Document) (string, error) {
	if doc.DocumentID() == "" {
		doc.SetDocumentID(s.newID())
	}
	now := s.hooks.Now()
	doc.SetTimestamps(now, now)
	s.hooks.BeforeChange(doc)
	if err := s.validate(ctx, doc); err != nil {
		return "", err
	}
	row, err := toRow(doc, now, now)
	if err != nil {
		return "", err
	}
	if err := s.db.Insert(ctx, row); err != nil {
		return "", err
	}
	s.logger.Debug("document created",
		slog.String("collection", row.Collection),
		slog.String("id", row.ID),
	)
	s.publish(sse.Created, doc)
	return row.Checksum, nil
}

// Get returns one document with relations populated to depth, plus its
// checksum.
func Get[T any, P docPtr[T]](ctx context.Context, s *Service, id string, depth int) (P, string, error) {
	row, err := s.db.Get(ctx, collectionOf[T, P](), id)
	if err != nil {
		return nil, "", err
	}
	return load[T, P](ctx, s, row, depth)
}

// GetByHandle looks a document up by slug, email or filename.
func GetByHandle[T any, P docPtr[T]](ctx context.Context, s *Service, handle string, depth int) (P, string, error) {
	row, err := s.db.GetByHandle(ctx, collectionOf[T, P](), handle)
	if err != nil {
		return nil, "", err
	}
	return load[T, P](ctx, s, row, depth)
}

func load[T any, P docPtr[T]](ctx context.Context, s *Service, row *docstore.Row, depth int) (P, string, error) {
	doc, err := decodeRow[T, P](row)
	if err != nil {
		return nil, "", err
	}
	if err := s.afterRead(ctx, doc, depth); err != nil {
		return nil, "", err
	}
	return doc, row.Checksum, nil
}

// List returns a page of documents.
func List[T any, P docPtr[T]](ctx context.Context, s *Service, p ListParams) (*Page[P], error) {
	p = p.normalize()
	rows, total, err := s.db.List(ctx, docstore.Query{
		Collection: collectionOf[T, P](),
		Status:     p.Status,
		Sort:       p.Sort,
		Limit:      p.Limit,
		Offset:     (p.Page - 1) * p.Limit,
	})
	if err != nil {
		return nil, err
	}
	docs := make([]P, 0, len(rows))
	for i := range rows {
		doc, _, err := load[T, P](ctx, s, &rows[i], p.Depth)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	totalPages := (total + p.Limit - 1) / p.Limit
	return &Page[P]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       p.Limit,
		Page:        p.Page,
		TotalPages:  totalPages,
		HasNextPage: p.Page < totalPages,
		HasPrevPage: p.Page > 1,
	}, nil
}

// readOnlyFields are ignored in patches.
var readOnlyFields = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// Patch shallow-merges patch into the stored document, reruns the hooks and
// validation and stores the result. A non-empty ifMatch must equal the
// stored checksum.
func Patch[T any, P docPtr[T]](ctx context.Context, s *Service, id string, patch map[string]any, ifMatch string, depth int) (P, string, error) {
	coll := collectionOf[T, P]()
	row, err := s.db.Get(ctx, coll, id)
	if err != nil {
		return nil, "", err
	}
	if ifMatch != "" && ifMatch != row.Checksum {
		return nil, "", fmt.Errorf("blog: %s/%s changed: %w", coll, id, apperr.ErrConflict)
	}

	merged := map[string]any{}
	if err := json.Unmarshal(row.Data, &merged); err != nil {
		return nil, "", fmt.Errorf("blog: decode %s/%s: %w", coll, id, err)
	}
	for k, v := range patch {
		if readOnlyFields[k] {
			continue
		}
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, "", fmt.Errorf("blog: encode patch: %w", err)
	}
	doc := P(new(T))
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, "", invalid(err)
	}

	now := s.hooks.Now()
	doc.SetDocumentID(id)
	doc.SetTimestamps(row.CreatedAt, now)
	s.hooks.BeforeChange(doc)
	if err := s.validate(ctx, doc); err != nil {
		return nil, "", err
	}
	next, err := toRow(doc, row.CreatedAt, now)
	if err != nil {
		return nil, "", err
	}
	if err := s.db.Update(ctx, next, row.Checksum); err != nil {
		return nil, "", err
	}
	s.publish(sse.Updated, doc)

	if err := s.afterRead(ctx, doc, depth); err != nil {
		return nil, "", err
	}
	return doc, next.Checksum, nil
}

// Delete removes a document. Deleting media also removes its stored file.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	row, err := s.db.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(ctx, collection, id); err != nil {
		return err
	}
	if collection == content.CollectionMedia {
		s.removeFile(row.Handle)
	}
	s.logger.Debug("document deleted", slog.String("collection", collection), slog.String("id", id))
	if s.events != nil {
		s.events.PublishDocument(sse.DocumentEvent{
			Collection: collection,
			Kind:       sse.Deleted,
			ID:         id,
			Handle:     row.Handle,
		})
	}
	return nil
}

// Search runs a full-text search over posts.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]docstore.SearchResult, error) {
	res, err := s.db.Search(ctx, content.CollectionPosts, query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

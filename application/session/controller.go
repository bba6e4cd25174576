// Package session orchestrates open documents (tabs). Each session loads the
// document content and metadata concurrently, owns a transient blob handle and
// the document's annotation store, and feeds concepts into the shared concept
// store.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/whikwon/nexusnote/application/annotations"
	"github.com/whikwon/nexusnote/application/concepts"
	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/application/xref"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// State is the lifecycle state of one session
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Info is a snapshot of one session
type Info struct {
	DocumentID valueobjects.DocumentID
	Document   *entities.Document
	State      State
	Err        error
	Blob       BlobHandle
}

type documentSession struct {
	documentID  valueobjects.DocumentID
	state       State
	err         error
	generation  uint64
	document    *entities.Document
	blob        BlobHandle
	annotations *annotations.Store
}

func (s *documentSession) info() Info {
	return Info{
		DocumentID: s.documentID,
		Document:   s.document,
		State:      s.state,
		Err:        s.err,
		Blob:       s.blob,
	}
}

// Controller owns the set of open sessions and the active tab
type Controller struct {
	documents     ports.DocumentAPI
	annotationAPI ports.AnnotationAPI
	concepts      *concepts.Store
	blobs         *BlobRegistry
	cfg           *config.DomainConfig
	logger        *zap.Logger

	mu         sync.Mutex
	sessions   map[valueobjects.DocumentID]*documentSession
	order      []valueobjects.DocumentID
	active     valueobjects.DocumentID
	generation uint64
}

// NewController creates a controller with no open sessions
func NewController(
	api ports.RemoteAPI,
	conceptStore *concepts.Store,
	blobs *BlobRegistry,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *Controller {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		documents:     api,
		annotationAPI: api,
		concepts:      conceptStore,
		blobs:         blobs,
		cfg:           cfg,
		logger:        logger,
		sessions:      make(map[valueobjects.DocumentID]*documentSession),
	}
}

// Open makes a document the active tab, loading it when needed. A Ready or
// Loading session is only activated; a Failed one is loaded again.
func (c *Controller) Open(ctx context.Context, id valueobjects.DocumentID) (Info, error) {
	if id.IsZero() {
		return Info{}, pkgerrors.NewValidationError("document id cannot be empty")
	}

	c.mu.Lock()
	s, ok := c.sessions[id]
	if ok && (s.state == StateReady || s.state == StateLoading) {
		c.active = id
		info := s.info()
		c.mu.Unlock()
		return info, nil
	}
	if !ok {
		s = &documentSession{
			documentID:  id,
			annotations: annotations.NewStore(c.annotationAPI, c.cfg, c.logger),
		}
		c.sessions[id] = s
		c.order = append(c.order, id)
	}
	c.generation++
	generation := c.generation
	s.generation = generation
	s.state = StateLoading
	s.err = nil
	c.active = id
	c.mu.Unlock()

	c.logger.Debug("loading document", zap.String("document_id", id.String()))
	content, bundle, err := c.fetch(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.sessions[id]
	if !ok || current.generation != generation {
		c.logger.Debug("discarding stale document load", zap.String("document_id", id.String()))
		return Info{}, pkgerrors.NewStaleError("open document")
	}

	if err != nil {
		current.state = StateFailed
		current.err = err
		c.logger.Warn("document load failed", zap.String("document_id", id.String()), zap.Error(err))
		return current.info(), err
	}

	handle, err := c.blobs.Acquire(content.Data, content.ContentType)
	if err != nil {
		current.state = StateFailed
		current.err = err
		return current.info(), err
	}

	current.blob = handle
	current.document = bundle.Document
	current.annotations.Load(id, bundle.Annotations)
	c.concepts.Merge(bundle.Concepts)
	current.state = StateReady

	c.logger.Info("document ready",
		zap.String("document_id", id.String()),
		zap.Int("annotations", len(bundle.Annotations)),
		zap.Int("concepts", len(bundle.Concepts)))
	return current.info(), nil
}

// fetch issues the content and metadata requests concurrently and joins them
func (c *Controller) fetch(ctx context.Context, id valueobjects.DocumentID) (*ports.DocumentContent, *ports.DocumentBundle, error) {
	var (
		content *ports.DocumentContent
		bundle  *ports.DocumentBundle
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content, err = c.documents.FetchContent(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		bundle, err = c.documents.FetchMetadata(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if content == nil || bundle == nil || bundle.Document == nil {
		return nil, nil, pkgerrors.NewNetworkError("incomplete document response", nil)
	}
	return content, bundle, nil
}

// Activate switches the active tab without loading
func (c *Controller) Activate(id valueobjects.DocumentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return pkgerrors.ErrDocumentNotFound.WithDetail("document_id", id.String())
	}
	c.active = id
	return nil
}

// Active returns the active session
func (c *Controller) Active() (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[c.active]
	if !ok {
		return Info{}, false
	}
	return s.info(), true
}

// Session returns one session
func (c *Controller) Session(id valueobjects.DocumentID) (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return Info{}, false
	}
	return s.info(), true
}

// Sessions returns every open session in tab order
func (c *Controller) Sessions() []Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Info, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.sessions[id].info())
	}
	return out
}

// Annotations returns the annotation store of a Ready session
func (c *Controller) Annotations(id valueobjects.DocumentID) (*annotations.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, pkgerrors.ErrDocumentNotFound.WithDetail("document_id", id.String())
	}
	if s.state != StateReady {
		return nil, pkgerrors.NewConflictError("document is not loaded").
			WithDetails(map[string]interface{}{"document_id": id.String(), "state": s.state.String()})
	}
	return s.annotations, nil
}

// Content returns the bytes of a Ready session
func (c *Controller) Content(id valueobjects.DocumentID) ([]byte, error) {
	c.mu.Lock()
	s, ok := c.sessions[id]
	var url string
	if ok {
		url = s.blob.URL
	}
	c.mu.Unlock()

	if !ok {
		return nil, pkgerrors.ErrDocumentNotFound.WithDetail("document_id", id.String())
	}
	if url == "" {
		return nil, pkgerrors.NewConflictError("document is not loaded")
	}
	return c.blobs.Open(url)
}

// DocumentConcepts returns the concepts touching the document, sorted by name
func (c *Controller) DocumentConcepts(id valueobjects.DocumentID) ([]*entities.Concept, error) {
	store, err := c.Annotations(id)
	if err != nil {
		return nil, err
	}
	return xref.SortForDocument(c.concepts.ListForDocument(store), store), nil
}

// OrderedConcepts returns every concept, those touching the document first
func (c *Controller) OrderedConcepts(id valueobjects.DocumentID) ([]*entities.Concept, error) {
	store, err := c.Annotations(id)
	if err != nil {
		return nil, err
	}
	return xref.SortForDocument(c.concepts.ListAll(), store), nil
}

// Resolver snapshots the concept table and the document's annotations
func (c *Controller) Resolver(id valueobjects.DocumentID) (*xref.Resolver, error) {
	store, err := c.Annotations(id)
	if err != nil {
		return nil, err
	}
	return xref.NewResolver(c.concepts.ListAll(), store.List()), nil
}

// Close tears a session down and releases its blob handle. A load still in
// flight for it is discarded when it completes.
func (c *Controller) Close(id valueobjects.DocumentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[id]
	if !ok {
		return pkgerrors.ErrDocumentNotFound.WithDetail("document_id", id.String())
	}

	idx := slices.Index(c.order, id)
	c.order = slices.Delete(c.order, idx, idx+1)
	delete(c.sessions, id)

	err := c.release(s)
	s.state = StateIdle

	if c.active == id {
		c.active = ""
		if n := len(c.order); n > 0 {
			c.active = c.order[min(idx, n-1)]
		}
	}
	return err
}

// Shutdown closes every session and releases every handle
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, id := range c.order {
		s := c.sessions[id]
		if err := c.release(s); err != nil {
			errs = append(errs, err)
		}
		s.state = StateIdle
	}
	c.sessions = make(map[valueobjects.DocumentID]*documentSession)
	c.order = nil
	c.active = ""
	return errors.Join(errs...)
}

// DeleteDocument deletes a document on the server, closes its session and
// refreshes the concepts whose refs the server stripped
func (c *Controller) DeleteDocument(ctx context.Context, id valueobjects.DocumentID) error {
	if err := c.documents.DeleteDocument(ctx, id); err != nil {
		return err
	}

	if err := c.Close(id); err != nil && !pkgerrors.IsNotFound(err) {
		c.logger.Warn("failed to close deleted document", zap.String("document_id", id.String()), zap.Error(err))
	}
	if err := c.concepts.Refresh(ctx); err != nil {
		c.logger.Warn("concept refresh after document delete failed", zap.Error(err))
	}
	return nil
}

// release must be called with c.mu held
func (c *Controller) release(s *documentSession) error {
	if s.blob.URL == "" {
		return nil
	}
	url := s.blob.URL
	s.blob = BlobHandle{}
	return c.blobs.Release(url)
}

// Package remote implements the client side of the document, annotation,
// concept and link REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/dto"
	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// DefaultTimeout bounds every request
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 64 << 10

// Client talks to the backend over HTTP. Transport failures surface as NETWORK
// errors and non-2xx responses as SERVER_REJECTION errors carrying the
// response's detail verbatim. Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *zap.Logger
}

var _ ports.RemoteAPI = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithToken sends a bearer token with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the API at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Documents

// ListDocuments returns the id and name of every document
func (c *Client) ListDocuments(ctx context.Context) ([]entities.DocumentSummary, error) {
	var out []dto.DocumentSummary
	if err := c.getJSON(ctx, "/document/list", &out); err != nil {
		return nil, err
	}
	return dto.ToDocumentSummaries(out), nil
}

// FetchContent downloads the document bytes
func (c *Client) FetchContent(ctx context.Context, id valueobjects.DocumentID) (*ports.DocumentContent, error) {
	resp, err := c.do(ctx, http.MethodGet, "/document/"+url.PathEscape(id.String()), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("failed to read document content", err)
	}
	return &ports.DocumentContent{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// FetchMetadata returns the document with its annotations and concepts
func (c *Client) FetchMetadata(ctx context.Context, id valueobjects.DocumentID) (*ports.DocumentBundle, error) {
	var out dto.DocumentBundle
	if err := c.getJSON(ctx, "/document/"+url.PathEscape(id.String())+"/metadata", &out); err != nil {
		return nil, err
	}

	doc, err := out.Document.ToEntity()
	if err != nil {
		return nil, malformed(err)
	}
	annotations, err := dto.ToAnnotations(out.Annotations)
	if err != nil {
		return nil, malformed(err)
	}
	concepts, err := dto.ToConcepts(out.Concepts)
	if err != nil {
		return nil, malformed(err)
	}
	return &ports.DocumentBundle{
		Document:    doc,
		Annotations: annotations,
		Concepts:    concepts,
	}, nil
}

// UploadDocument sends a file as multipart form data
func (c *Client) UploadDocument(ctx context.Context, fileName string, r io.Reader) (*entities.Document, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/pdf"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filepath.Base(fileName))))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to build upload").WithCause(err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, pkgerrors.NewInternalError("failed to read upload").WithCause(err)
	}
	if err := mw.Close(); err != nil {
		return nil, pkgerrors.NewInternalError("failed to build upload").WithCause(err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/document/upload", &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out dto.Document
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, malformed(err)
	}
	return toEntity[entities.Document](out.ToEntity())
}

// DeleteDocument deletes a document with its annotations
func (c *Client) DeleteDocument(ctx context.Context, id valueobjects.DocumentID) error {
	return c.postJSON(ctx, "/document/delete", dto.IDRequest{ID: id.String()}, nil)
}

// RenameDocument changes a document's display name
func (c *Client) RenameDocument(ctx context.Context, id valueobjects.DocumentID, name string) (*entities.Document, error) {
	var out dto.Document
	if err := c.postJSON(ctx, "/document/update", dto.RenameDocumentRequest{ID: id, Name: name}, &out); err != nil {
		return nil, err
	}
	return toEntity[entities.Document](out.ToEntity())
}

// Annotations

// CreateAnnotation persists a draft and returns the canonical record
func (c *Client) CreateAnnotation(ctx context.Context, draft entities.AnnotationDraft) (*entities.Annotation, error) {
	req := dto.CreateAnnotationRequest{
		FileID:         draft.DocumentID,
		Comment:        draft.Comment,
		HighlightAreas: draft.HighlightAreas,
		Quote:          draft.Quote,
		Tag:            draft.Tag,
	}
	var out dto.Annotation
	if err := c.postJSON(ctx, "/annotation/create", req, &out); err != nil {
		return nil, err
	}
	return toEntity[entities.Annotation](out.ToEntity())
}

// DeleteAnnotation deletes an annotation
func (c *Client) DeleteAnnotation(ctx context.Context, id valueobjects.AnnotationID) error {
	return c.postJSON(ctx, "/annotation/delete", dto.IDRequest{ID: id.String()}, nil)
}

// UpdateAnnotation replaces an annotation's comment
func (c *Client) UpdateAnnotation(ctx context.Context, id valueobjects.AnnotationID, comment string) (*entities.Annotation, error) {
	var out dto.Annotation
	if err := c.postJSON(ctx, "/annotation/update", dto.UpdateAnnotationRequest{ID: id, Comment: comment}, &out); err != nil {
		return nil, err
	}
	return toEntity[entities.Annotation](out.ToEntity())
}

// Concepts

// ListConcepts returns every concept
func (c *Client) ListConcepts(ctx context.Context) ([]*entities.Concept, error) {
	var out []dto.Concept
	if err := c.getJSON(ctx, "/concept/all", &out); err != nil {
		return nil, err
	}
	concepts, err := dto.ToConcepts(out)
	if err != nil {
		return nil, malformed(err)
	}
	return concepts, nil
}

// CreateConcept persists a new concept
func (c *Client) CreateConcept(ctx context.Context, draft ports.ConceptDraft) (*entities.Concept, error) {
	req := dto.CreateConceptRequest{
		Name:             draft.Name,
		Comment:          draft.Comment,
		AnnotationIDs:    draft.AnnotationIDs,
		LinkedConceptIDs: draft.LinkedConceptIDs,
	}
	var out dto.Concept
	if err := c.postJSON(ctx, "/concept/create", req, &out); err != nil {
		return nil, err
	}
	return toEntity[entities.Concept](out.ToEntity())
}

// UpdateConcept replaces the whole concept record
func (c *Client) UpdateConcept(ctx context.Context, concept *entities.Concept) (*entities.Concept, error) {
	var out dto.Concept
	if err := c.postJSON(ctx, "/concept/update", dto.FromConcept(concept), &out); err != nil {
		return nil, err
	}
	return toEntity[entities.Concept](out.ToEntity())
}

// DeleteConcept deletes a concept and its links
func (c *Client) DeleteConcept(ctx context.Context, id valueobjects.ConceptID) error {
	return c.postJSON(ctx, "/concept/delete", dto.IDRequest{ID: id.String()}, nil)
}

// Links

// CreateLink creates the edge between a and b
func (c *Client) CreateLink(ctx context.Context, a, b valueobjects.ConceptID) error {
	var out dto.Link
	return c.postJSON(ctx, "/link/create", dto.LinkRequest{ConceptIDs: []valueobjects.ConceptID{a, b}}, &out)
}

// DeleteLink removes the edge between a and b
func (c *Client) DeleteLink(ctx context.Context, a, b valueobjects.ConceptID) error {
	return c.postJSON(ctx, "/link/delete", dto.LinkRequest{ConceptIDs: []valueobjects.ConceptID{a, b}}, nil)
}

// Health checks that the backend is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/health", nil)
}

// Transport

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return pkgerrors.NewInternalError("failed to encode request").WithCause(err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

// do sends a request and turns every failure into a typed error. On success the
// caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, pkgerrors.NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, rejection(resp)
	}
	return resp, nil
}

// rejection reads the error body. A string detail is surfaced verbatim;
// anything else falls back to the generic message.
func rejection(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body dto.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		body.Detail = ""
	}
	return pkgerrors.NewServerRejection(resp.StatusCode, body.Detail)
}

func decode(resp *http.Response, out interface{}) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformed(err)
	}
	return nil
}

func malformed(err error) error {
	return pkgerrors.NewNetworkError("malformed response", err)
}

func toEntity[T any](v *T, err error) (*T, error) {
	if err != nil {
		return nil, malformed(err)
	}
	return v, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/annotations"
	"github.com/whikwon/nexusnote/application/concepts"
	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/application/session"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/infrastructure/messaging/logging"
	"github.com/whikwon/nexusnote/infrastructure/persistence/memory"
	"github.com/whikwon/nexusnote/infrastructure/remote"
	"github.com/whikwon/nexusnote/infrastructure/storage"
	"github.com/whikwon/nexusnote/pkg/auth"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/observability"
)

type testServer struct {
	*httptest.Server
	store  *memory.Store
	client *remote.Client
}

type serverOption func(*Router)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()

	store := memory.NewStore()
	blobs, err := storage.NewMemoryBlobStore(logger)
	require.NoError(t, err)

	publisher := logging.NewPublisher(logger)
	collector := observability.NewCollector("nexusnote")
	in := &services.Instruments{Tracer: observability.NewTracer("nexusnote", false), Collector: collector}

	links := services.NewLinkService(store.Concepts(), store.Links(), publisher, in, logger)
	conceptService := services.NewConceptService(store.Concepts(), links, publisher, cfg, in, logger)
	router := NewRouter(
		services.NewDocumentService(store.Documents(), store.Annotations(), conceptService, blobs, publisher, cfg, in, logger),
		services.NewAnnotationService(store.Documents(), store.Annotations(), publisher, cfg, in, logger),
		conceptService,
		links,
		nil, nil, collector,
		Options{MaxUploadBytes: 1 << 20},
		logger,
	)
	for _, opt := range opts {
		opt(router)
	}

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return &testServer{
		Server: srv,
		store:  store,
		client: remote.NewClient(srv.URL, remote.WithTimeout(5*time.Second), remote.WithLogger(logger)),
	}
}

func (s *testServer) postJSON(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *testServer) upload(t *testing.T, name string) *entities.Document {
	t.Helper()
	doc, err := s.client.UploadDocument(context.Background(), name, strings.NewReader("%PDF-1.7 "+name))
	require.NoError(t, err)
	return doc
}

func conceptDraft(name string) ports.ConceptDraft {
	return ports.ConceptDraft{Name: name}
}

func area() valueobjects.HighlightAreas {
	return valueobjects.HighlightAreas{{PageIndex: 1, Top: 10, Left: 5, Width: 40, Height: 3}}
}

func TestEndToEnd_ReadingSession(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	cfg := config.DefaultDomainConfig()

	doc := srv.upload(t, "attention.pdf")
	assert.Equal(t, "attention", doc.Name())

	list, err := srv.client.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, doc.ID(), list[0].ID)

	conceptStore := concepts.NewStore(srv.client, cfg, nil)
	blobs, err := session.NewBlobRegistry()
	require.NoError(t, err)
	controller := session.NewController(srv.client, conceptStore, blobs, cfg, nil)
	t.Cleanup(func() { _ = controller.Shutdown() })

	info, err := controller.Open(ctx, doc.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StateReady, info.State)

	content, err := controller.Content(doc.ID())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 attention.pdf", string(content))

	notes, err := controller.Annotations(doc.ID())
	require.NoError(t, err)
	a, err := notes.Create(ctx, entities.AnnotationDraft{HighlightAreas: area(), Quote: "scaled dot product", Comment: "core idea"})
	require.NoError(t, err)
	assert.Equal(t, doc.ID(), a.DocumentID())
	assert.Equal(t, 1, notes.Len())

	attention, err := conceptStore.Create(ctx, "Attention", "")
	require.NoError(t, err)
	softmax, err := conceptStore.Create(ctx, "Softmax", "")
	require.NoError(t, err)
	_, err = conceptStore.AddAnnotationRef(ctx, attention.ID(), a.ID())
	require.NoError(t, err)
	_, err = conceptStore.AddLink(ctx, attention.ID(), softmax.ID())
	require.NoError(t, err)

	ordered, err := controller.DocumentConcepts(doc.ID())
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, attention.ID(), ordered[0].ID())

	bundle, err := srv.client.FetchMetadata(ctx, doc.ID())
	require.NoError(t, err)
	require.Len(t, bundle.Concepts, 1)
	assert.True(t, bundle.Concepts[0].IsLinkedTo(softmax.ID()))

	require.NoError(t, conceptStore.Refresh(ctx))
	refreshed, ok := conceptStore.Get(softmax.ID())
	require.True(t, ok)
	assert.True(t, refreshed.IsLinkedTo(attention.ID()), "links are symmetric on the server")

	require.NoError(t, controller.DeleteDocument(ctx, doc.ID()))
	_, open := controller.Session(doc.ID())
	assert.False(t, open)
	stripped, ok := conceptStore.Get(attention.ID())
	require.True(t, ok)
	assert.Empty(t, stripped.AnnotationRefs())
}

func TestEndToEnd_FailedCreateLeavesNoPhantom(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	doc := srv.upload(t, "paper.pdf")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"detail":"database unavailable"}`)
	}))
	t.Cleanup(failing.Close)

	store := annotations.NewStore(remote.NewClient(failing.URL), nil, nil)
	store.Load(doc.ID(), nil)

	_, err := store.Create(ctx, entities.AnnotationDraft{HighlightAreas: area(), Comment: "lost"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, pkgerrors.StatusOf(err))
	assert.Equal(t, "database unavailable", pkgerrors.GetAppError(err).Message)
	assert.Zero(t, store.Len())

	stored, err := srv.store.Annotations().ListByDocument(ctx, doc.ID())
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestRouter_ErrorResponses(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	a, err := srv.client.CreateConcept(ctx, conceptDraft("A"))
	require.NoError(t, err)
	b, err := srv.client.CreateConcept(ctx, conceptDraft("B"))
	require.NoError(t, err)
	require.NoError(t, srv.client.CreateLink(ctx, a.ID(), b.ID()))

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		detail string
	}{
		{"annotation on unknown document", "/annotation/create", map[string]interface{}{
			"file_id": "missing", "comment": "c", "quote": "q", "highlight_areas": area(),
		}, http.StatusNotFound, "Document not found"},
		{"annotation without areas", "/annotation/create", map[string]interface{}{
			"file_id": "missing", "comment": "c",
		}, http.StatusBadRequest, ""},
		{"duplicate concept name", "/concept/create", map[string]interface{}{"name": "a"}, http.StatusConflict, "Concept with this name already exists"},
		{"rename onto another concept", "/concept/update", map[string]interface{}{"id": b.ID(), "name": "A"}, http.StatusConflict, "Another concept with this name already exists"},
		{"self link", "/link/create", map[string]interface{}{"concept_ids": []string{a.ID().String(), a.ID().String()}}, http.StatusBadRequest, "A concept cannot be linked to itself"},
		{"link to unknown concept", "/link/create", map[string]interface{}{"concept_ids": []string{a.ID().String(), "ghost"}}, http.StatusNotFound, "Concept not found"},
		{"duplicate link reversed", "/link/create", map[string]interface{}{"concept_ids": []string{b.ID().String(), a.ID().String()}}, http.StatusConflict, "Link already exists"},
		{"link with one id", "/link/create", map[string]interface{}{"concept_ids": []string{a.ID().String()}}, http.StatusBadRequest, ""},
		{"delete unknown annotation", "/annotation/delete", map[string]interface{}{"id": "ghost"}, http.StatusNotFound, "Annotation not found"},
		{"delete without id", "/document/delete", map[string]interface{}{}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.postJSON(t, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			require.Contains(t, body, "detail")
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body["detail"])
			}
		})
	}
}

func TestRouter_MalformedBodyAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/concept/create", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/nowhere")
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", body["detail"])
}

func TestRouter_UploadRules(t *testing.T) {
	srv := newTestServer(t, func(r *Router) { r.options.MaxUploadBytes = 1024 })

	doc := srv.upload(t, "Notes.Final.PDF")
	assert.Equal(t, "Notes.Final", doc.Name())
	assert.Equal(t, "application/pdf", doc.ContentType())
	assert.True(t, strings.HasSuffix(doc.Path(), ".pdf"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "huge.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/document/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/document/upload", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_Authentication(t *testing.T) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "secret", Issuer: "nexusnote"})
	require.NoError(t, err)
	srv := newTestServer(t, func(r *Router) { r.validator = validator })

	_, err = srv.client.ListDocuments(context.Background())
	assert.Equal(t, http.StatusUnauthorized, pkgerrors.StatusOf(err))

	gen, err := auth.NewJWTGenerator("secret", "nexusnote", nil, time.Hour)
	require.NoError(t, err)
	token, err := gen.GenerateToken("reader", "", nil)
	require.NoError(t, err)

	authed := remote.NewClient(srv.URL, remote.WithToken(token))
	_, err = authed.ListDocuments(context.Background())
	assert.NoError(t, err)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health endpoints stay public")
}

func TestRouter_RateLimit(t *testing.T) {
	limiter := auth.NewIPRateLimiter(auth.NewTokenBucketLimiter(0.001, 1))
	srv := newTestServer(t, func(r *Router) { r.limiter = limiter })

	_, err := srv.client.ListDocuments(context.Background())
	require.NoError(t, err)
	_, err = srv.client.ListDocuments(context.Background())
	assert.Equal(t, http.StatusTooManyRequests, pkgerrors.StatusOf(err))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.client.ListDocuments(context.Background())
	require.NoError(t, err)

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `nexusnote_http_requests_total{method="GET",route="/document/list",status="200"} 1`)
	assert.Contains(t, string(raw), "nexusnote_service_operations_total")
}

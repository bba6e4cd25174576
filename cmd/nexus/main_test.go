package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/infrastructure/messaging/logging"
	"github.com/whikwon/nexusnote/infrastructure/persistence/memory"
	"github.com/whikwon/nexusnote/infrastructure/storage"
	"github.com/whikwon/nexusnote/interfaces/http/rest"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

func newBackend(t *testing.T) string {
	t.Helper()
	logger := zap.NewNop()
	cfg := config.DefaultDomainConfig()
	store := memory.NewStore()
	blobs, err := storage.NewMemoryBlobStore(logger)
	require.NoError(t, err)
	publisher := logging.NewPublisher(logger)
	in := &services.Instruments{}

	links := services.NewLinkService(store.Concepts(), store.Links(), publisher, in, logger)
	concepts := services.NewConceptService(store.Concepts(), links, publisher, cfg, in, logger)
	router := rest.NewRouter(
		services.NewDocumentService(store.Documents(), store.Annotations(), concepts, blobs, publisher, cfg, in, logger),
		services.NewAnnotationService(store.Documents(), store.Annotations(), publisher, cfg, in, logger),
		concepts,
		links,
		nil, nil, nil,
		rest.Options{},
		logger,
	)

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newCommand(t, serverURL, &out, args...)
	defer cmd.Close()
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newCommand(t *testing.T, serverURL string, out *bytes.Buffer, args ...string) *rootCmd {
	t.Helper()
	t.Setenv("NEXUS_SERVER_URL", "")
	t.Setenv("NEXUS_TOKEN", "")

	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
		"--server", serverURL,
	}, args...))
	return cmd
}

func firstField(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.NotEmpty(t, fields, "no output")
	return fields[0]
}

func TestCLI_ReadingWorkflow(t *testing.T) {
	url := newBackend(t)

	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7 paper"), 0o644))

	out, err := run(t, url, "documents", "upload", pdf)
	require.NoError(t, err)
	docID := firstField(t, out)
	assert.Contains(t, out, "paper")

	out, err = run(t, url, "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, docID)

	out, err = run(t, url, "annotate", docID,
		"--area", "2:10,5,40,3",
		"--quote", "attention is all you need",
		"--comment", "core claim",
		"--tag", "💡")
	require.NoError(t, err)
	annotationID := firstField(t, out)
	assert.Contains(t, out, "p.2")
	assert.Contains(t, out, "core claim")

	out, err = run(t, url, "concepts", "create", "Attention", "-m", "weighting tokens")
	require.NoError(t, err)
	conceptID := firstField(t, out)

	out, err = run(t, url, "concepts", "ref", conceptID, annotationID)
	require.NoError(t, err)
	assert.Contains(t, out, "refs=1")

	out, err = run(t, url, "open", docID)
	require.NoError(t, err)
	assert.Contains(t, out, "Annotations (1)")
	assert.Contains(t, out, "Concepts (1)")
	assert.Contains(t, out, "Attention")

	out, err = run(t, url, "annotations", "search", docID, "CLAIM")
	require.NoError(t, err)
	assert.Contains(t, out, annotationID)

	out, err = run(t, url, "annotations", "search", docID, "nothing like this")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = run(t, url, "concepts", "create", " attention ")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeConflict) || strings.Contains(err.Error(), "already exists"))

	out, err = run(t, url, "documents", "delete", docID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = run(t, url, "concepts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "refs=0")
}

func TestCLI_Candidates(t *testing.T) {
	url := newBackend(t)

	pdf := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7 notes"), 0o644))
	out, err := run(t, url, "documents", "upload", pdf)
	require.NoError(t, err)
	docID := firstField(t, out)

	out, err = run(t, url, "annotate", docID, "--area", "1:0,0,10,10", "--comment", "gradient flow")
	require.NoError(t, err)
	annotationID := firstField(t, out)

	out, err = run(t, url, "concepts", "create", "Backprop")
	require.NoError(t, err)
	backprop := firstField(t, out)
	out, err = run(t, url, "concepts", "create", "Gradient")
	require.NoError(t, err)
	gradient := firstField(t, out)

	out, err = run(t, url, "concepts", "candidates", docID, backprop)
	require.NoError(t, err)
	assert.Contains(t, out, annotationID)
	assert.Contains(t, out, gradient)
	assert.NotContains(t, out, backprop+"  Backprop")

	_, err = run(t, url, "concepts", "link", backprop, gradient)
	require.NoError(t, err)
	_, err = run(t, url, "concepts", "ref", backprop, annotationID)
	require.NoError(t, err)

	out, err = run(t, url, "concepts", "candidates", docID, backprop)
	require.NoError(t, err)
	assert.NotContains(t, out, annotationID)
	assert.NotContains(t, out, gradient)
}

func TestCLI_ServerRejectionSurfacesDetail(t *testing.T) {
	url := newBackend(t)

	_, err := run(t, url, "open", "no-such-document")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Document not found")
}

func TestCLI_CloseReleasesSessionsAfterFailure(t *testing.T) {
	url := newBackend(t)
	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7 paper"), 0o644))
	out, err := run(t, url, "documents", "upload", pdf)
	require.NoError(t, err)
	docID := firstField(t, out)

	var buf bytes.Buffer
	unwritable := filepath.Join(t.TempDir(), "missing-dir", "paper.pdf")
	cmd := newCommand(t, url, &buf, "open", docID, "-o", unwritable)
	require.Error(t, cmd.ExecuteContext(context.Background()))

	a := cmd.app
	require.NotNil(t, a)
	assert.Len(t, a.controller.Sessions(), 1)

	cmd.Close()
	assert.Empty(t, a.controller.Sessions())
	assert.Nil(t, cmd.app)
}

func TestCLI_Token(t *testing.T) {
	out, err := run(t, "http://unused.invalid", "token", "user-1", "--secret", "s3cret")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)

	t.Setenv("JWT_SECRET", "")
	_, err = run(t, "http://unused.invalid", "token", "user-1")
	assert.Error(t, err)
}

func TestParseArea(t *testing.T) {
	area, err := parseArea("3:12.5,10,80,3.25")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.HighlightArea{PageIndex: 2, Top: 12.5, Left: 10, Width: 80, Height: 3.25}, area)

	for _, bad := range []string{"12,10,80,3", "0:1,1,1,1", "x:1,1,1,1", "1:1,1,1", "1:1,a,1,1"} {
		_, err := parseArea(bad)
		assert.Error(t, err, bad)
	}
}

// Package mocks provides testify mocks for the remote API ports.
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// MockRemoteAPI mocks ports.RemoteAPI
type MockRemoteAPI struct {
	mock.Mock
}

var _ ports.RemoteAPI = (*MockRemoteAPI)(nil)

func (m *MockRemoteAPI) ListDocuments(ctx context.Context) ([]entities.DocumentSummary, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]entities.DocumentSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) FetchContent(ctx context.Context, id valueobjects.DocumentID) (*ports.DocumentContent, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*ports.DocumentContent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) FetchMetadata(ctx context.Context, id valueobjects.DocumentID) (*ports.DocumentBundle, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*ports.DocumentBundle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) UploadDocument(ctx context.Context, fileName string, r io.Reader) (*entities.Document, error) {
	args := m.Called(ctx, fileName, r)
	if v := args.Get(0); v != nil {
		return v.(*entities.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) DeleteDocument(ctx context.Context, id valueobjects.DocumentID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteAPI) RenameDocument(ctx context.Context, id valueobjects.DocumentID, name string) (*entities.Document, error) {
	args := m.Called(ctx, id, name)
	if v := args.Get(0); v != nil {
		return v.(*entities.Document), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) CreateAnnotation(ctx context.Context, draft entities.AnnotationDraft) (*entities.Annotation, error) {
	args := m.Called(ctx, draft)
	if v := args.Get(0); v != nil {
		return v.(*entities.Annotation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) DeleteAnnotation(ctx context.Context, id valueobjects.AnnotationID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteAPI) UpdateAnnotation(ctx context.Context, id valueobjects.AnnotationID, comment string) (*entities.Annotation, error) {
	args := m.Called(ctx, id, comment)
	if v := args.Get(0); v != nil {
		return v.(*entities.Annotation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) ListConcepts(ctx context.Context) ([]*entities.Concept, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*entities.Concept), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) CreateConcept(ctx context.Context, draft ports.ConceptDraft) (*entities.Concept, error) {
	args := m.Called(ctx, draft)
	if v := args.Get(0); v != nil {
		return v.(*entities.Concept), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) UpdateConcept(ctx context.Context, concept *entities.Concept) (*entities.Concept, error) {
	args := m.Called(ctx, concept)
	if fn, ok := args.Get(0).(func(context.Context, *entities.Concept) *entities.Concept); ok {
		return fn(ctx, concept), args.Error(1)
	}
	if v := args.Get(0); v != nil {
		return v.(*entities.Concept), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteAPI) DeleteConcept(ctx context.Context, id valueobjects.ConceptID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteAPI) CreateLink(ctx context.Context, a, b valueobjects.ConceptID) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

func (m *MockRemoteAPI) DeleteLink(ctx context.Context, a, b valueobjects.ConceptID) error {
	args := m.Called(ctx, a, b)
	return args.Error(0)
}

// EchoConceptUpdates makes UpdateConcept return its argument, which is what the
// backend does for ref changes
func (m *MockRemoteAPI) EchoConceptUpdates() *mock.Call {
	return m.On("UpdateConcept", mock.Anything, mock.AnythingOfType("*entities.Concept")).
		Return(func(_ context.Context, c *entities.Concept) *entities.Concept { return c.Clone() }, nil)
}

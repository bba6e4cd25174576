package entities

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// DocumentSummary is the list view of a document
type DocumentSummary struct {
	ID   valueobjects.DocumentID
	Name string
}

// Document describes an uploaded file. Its bytes live in the blob store under path.
type Document struct {
	id          valueobjects.DocumentID
	name        string
	contentType string
	path        string
	metadata    map[string]string
	createdAt   time.Time
	updatedAt   time.Time

	events []events.DomainEvent
}

// NewDocument registers an upload. The name defaults to the file name without its extension.
func NewDocument(fileName, contentType, path string, size int64, cfg *config.DomainConfig) (*Document, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if path == "" {
		return nil, pkgerrors.NewValidationError("document path cannot be empty")
	}

	name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if err := validateDocumentName(name, cfg); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = cfg.DefaultContentType
	}

	now := time.Now().UTC()
	d := &Document{
		id:          valueobjects.NewDocumentID(),
		name:        name,
		contentType: contentType,
		path:        path,
		metadata: map[string]string{
			"original_filename": filepath.Base(fileName),
			"size":              fmt.Sprintf("%d", size),
		},
		createdAt: now,
		updatedAt: now,
	}

	d.addEvent(events.NewDocumentUploaded(d.id, d.name, d.contentType, size, now))

	return d, nil
}

// ReconstructDocument rebuilds a document from stored or wire data
func ReconstructDocument(
	id valueobjects.DocumentID,
	name, contentType, path string,
	metadata map[string]string,
	createdAt, updatedAt time.Time,
) (*Document, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("document id cannot be empty")
	}

	return &Document{
		id:          id,
		name:        name,
		contentType: contentType,
		path:        path,
		metadata:    maps.Clone(metadata),
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

// ID returns the document's identifier
func (d *Document) ID() valueobjects.DocumentID { return d.id }

// Name returns the display name
func (d *Document) Name() string { return d.name }

// ContentType returns the MIME type of the stored bytes
func (d *Document) ContentType() string { return d.contentType }

// Path returns the blob store key
func (d *Document) Path() string { return d.path }

// Metadata returns a copy of the free-form metadata
func (d *Document) Metadata() map[string]string { return maps.Clone(d.metadata) }

// CreatedAt returns when the document was uploaded
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// UpdatedAt returns when the document was last updated
func (d *Document) UpdatedAt() time.Time { return d.updatedAt }

// Summary returns the list view
func (d *Document) Summary() DocumentSummary {
	return DocumentSummary{ID: d.id, Name: d.name}
}

// Rename changes the display name
func (d *Document) Rename(name string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	name = strings.TrimSpace(name)
	if err := validateDocumentName(name, cfg); err != nil {
		return err
	}
	if name == d.name {
		return nil
	}

	old := d.name
	d.name = name
	d.updatedAt = time.Now().UTC()
	d.addEvent(events.NewDocumentRenamed(d.id, old, name, d.updatedAt))
	return nil
}

// MarkDeleted raises the deletion event with the annotations removed alongside
func (d *Document) MarkDeleted(annotationIDs []valueobjects.AnnotationID) {
	d.addEvent(events.NewDocumentDeleted(d.id, annotationIDs, time.Now().UTC()))
}

// GetUncommittedEvents returns all uncommitted domain events
func (d *Document) GetUncommittedEvents() []events.DomainEvent {
	return d.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (d *Document) MarkEventsAsCommitted() {
	d.events = nil
}

func (d *Document) addEvent(event events.DomainEvent) {
	d.events = append(d.events, event)
}

func validateDocumentName(name string, cfg *config.DomainConfig) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.NewValidationError("document name cannot be empty")
	}
	if utf8.RuneCountInString(name) > cfg.MaxDocumentNameLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("document name exceeds maximum length of %d characters", cfg.MaxDocumentNameLength))
	}
	return nil
}

package entities

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// AnnotationDraft is the user input for a new annotation.
// It carries no id: identity is assigned by the server.
type AnnotationDraft struct {
	DocumentID     valueobjects.DocumentID
	HighlightAreas valueobjects.HighlightAreas
	Quote          string
	Comment        string
	Tag            string
}

// Validate checks the draft against the domain rules
func (d AnnotationDraft) Validate(cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	verrs := pkgerrors.NewValidationErrors()

	if d.DocumentID.IsZero() {
		verrs.Add("file_id", "document id cannot be empty")
	}

	switch {
	case len(d.HighlightAreas) == 0:
		verrs.Add("highlight_areas", "at least one highlight area is required")
	case len(d.HighlightAreas) > cfg.MaxHighlightAreas:
		verrs.Add("highlight_areas", fmt.Sprintf("at most %d highlight areas are allowed", cfg.MaxHighlightAreas))
	default:
		for i, area := range d.HighlightAreas {
			if err := area.Validate(); err != nil {
				verrs.Add("highlight_areas", fmt.Sprintf("area %d: %s", i, pkgerrors.GetAppError(err).Message))
			}
		}
	}

	if strings.TrimSpace(d.Comment) == "" && !cfg.AllowBareHighlights {
		verrs.Add("comment", "comment cannot be empty")
	}
	if utf8.RuneCountInString(d.Comment) > cfg.MaxCommentLength {
		verrs.Add("comment", fmt.Sprintf("comment exceeds maximum length of %d characters", cfg.MaxCommentLength))
	}
	if utf8.RuneCountInString(d.Quote) > cfg.MaxQuoteLength {
		verrs.Add("quote", fmt.Sprintf("quote exceeds maximum length of %d characters", cfg.MaxQuoteLength))
	}
	if utf8.RuneCountInString(d.Tag) > cfg.MaxTagLength {
		verrs.Add("tag", fmt.Sprintf("tag exceeds maximum length of %d characters", cfg.MaxTagLength))
	}

	return verrs.AsAppError()
}

// Annotation is a persisted highlight plus the user's comment, scoped to one document.
// Instances are never mutated in place; edits produce a new record.
type Annotation struct {
	id             valueobjects.AnnotationID
	documentID     valueobjects.DocumentID
	highlightAreas valueobjects.HighlightAreas
	quote          string
	comment        string
	tag            string
	createdAt      time.Time
	updatedAt      time.Time

	events []events.DomainEvent
}

// NewAnnotation creates an annotation from a validated draft with a fresh id
func NewAnnotation(draft AnnotationDraft, cfg *config.DomainConfig) (*Annotation, error) {
	if err := draft.Validate(cfg); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	a := &Annotation{
		id:             valueobjects.NewAnnotationID(),
		documentID:     draft.DocumentID,
		highlightAreas: draft.HighlightAreas.Clone(),
		quote:          draft.Quote,
		comment:        draft.Comment,
		tag:            draft.Tag,
		createdAt:      now,
		updatedAt:      now,
	}

	a.addEvent(events.NewAnnotationCreated(a.id, a.documentID, a.highlightAreas.Pages(), now))

	return a, nil
}

// ReconstructAnnotation rebuilds an annotation from stored or wire data
func ReconstructAnnotation(
	id valueobjects.AnnotationID,
	documentID valueobjects.DocumentID,
	areas valueobjects.HighlightAreas,
	quote, comment, tag string,
	createdAt, updatedAt time.Time,
) (*Annotation, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("annotation id cannot be empty")
	}
	if documentID.IsZero() {
		return nil, pkgerrors.NewValidationError("annotation document id cannot be empty")
	}

	return &Annotation{
		id:             id,
		documentID:     documentID,
		highlightAreas: areas.Clone(),
		quote:          quote,
		comment:        comment,
		tag:            tag,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

// ID returns the annotation's identifier
func (a *Annotation) ID() valueobjects.AnnotationID { return a.id }

// DocumentID returns the owning document
func (a *Annotation) DocumentID() valueobjects.DocumentID { return a.documentID }

// HighlightAreas returns a copy of the position descriptor
func (a *Annotation) HighlightAreas() valueobjects.HighlightAreas { return a.highlightAreas.Clone() }

// Quote returns the text extracted at selection time
func (a *Annotation) Quote() string { return a.quote }

// Comment returns the user's note
func (a *Annotation) Comment() string { return a.comment }

// Tag returns the optional emoji/tag
func (a *Annotation) Tag() string { return a.tag }

// CreatedAt returns when the annotation was created
func (a *Annotation) CreatedAt() time.Time { return a.createdAt }

// UpdatedAt returns when the annotation was last updated
func (a *Annotation) UpdatedAt() time.Time { return a.updatedAt }

// WithComment returns a copy with the comment replaced
func (a *Annotation) WithComment(comment string, cfg *config.DomainConfig) (*Annotation, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if strings.TrimSpace(comment) == "" && !cfg.AllowBareHighlights {
		return nil, pkgerrors.NewValidationError("comment cannot be empty")
	}
	if utf8.RuneCountInString(comment) > cfg.MaxCommentLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("comment exceeds maximum length of %d characters", cfg.MaxCommentLength))
	}

	updated := *a
	updated.highlightAreas = a.highlightAreas.Clone()
	updated.comment = comment
	updated.updatedAt = time.Now().UTC()
	updated.events = nil
	updated.addEvent(events.NewAnnotationCommentUpdated(a.id, a.documentID, updated.updatedAt))
	return &updated, nil
}

// Matches reports whether term occurs case-insensitively in quote, comment or tag.
// Only the empty term matches every annotation; whitespace is matched literally.
func (a *Annotation) Matches(term string) bool {
	term = strings.ToLower(term)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.quote), term) ||
		strings.Contains(strings.ToLower(a.comment), term) ||
		strings.Contains(strings.ToLower(a.tag), term)
}

// SearchText is the text used by link-candidate search
func (a *Annotation) SearchText() string {
	return a.quote + "\n" + a.comment + "\n" + a.tag
}

// GetUncommittedEvents returns all uncommitted domain events
func (a *Annotation) GetUncommittedEvents() []events.DomainEvent {
	return a.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (a *Annotation) MarkEventsAsCommitted() {
	a.events = nil
}

func (a *Annotation) addEvent(event events.DomainEvent) {
	a.events = append(a.events, event)
}

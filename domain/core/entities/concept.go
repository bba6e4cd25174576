package entities

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// Concept is a cross-document permanent note.
// annotationRefs are weak references: ids that may no longer resolve.
// linkedConcepts never contains the concept's own id.
type Concept struct {
	id             valueobjects.ConceptID
	name           valueobjects.ConceptName
	comment        string
	annotationRefs []valueobjects.AnnotationID
	linkedConcepts []valueobjects.ConceptID
	createdAt      time.Time
	updatedAt      time.Time

	events []events.DomainEvent
}

// NewConcept creates a concept with a fresh id
func NewConcept(name, comment string, cfg *config.DomainConfig) (*Concept, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	conceptName, err := valueobjects.NewConceptNameWithConfig(name, cfg)
	if err != nil {
		return nil, err
	}
	if err := validateConceptComment(comment, cfg); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &Concept{
		id:             valueobjects.NewConceptID(),
		name:           conceptName,
		comment:        comment,
		annotationRefs: []valueobjects.AnnotationID{},
		linkedConcepts: []valueobjects.ConceptID{},
		createdAt:      now,
		updatedAt:      now,
	}

	c.addEvent(events.NewConceptCreated(c.id, c.name.String(), now))

	return c, nil
}

// ReconstructConcept rebuilds a concept from stored or wire data.
// Duplicate ids and a self-link in the input are dropped.
func ReconstructConcept(
	id valueobjects.ConceptID,
	name, comment string,
	annotationRefs []valueobjects.AnnotationID,
	linkedConcepts []valueobjects.ConceptID,
	createdAt, updatedAt time.Time,
) (*Concept, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("concept id cannot be empty")
	}
	conceptName, err := valueobjects.NewConceptNameWithConfig(name, config.DefaultDomainConfig())
	if err != nil {
		return nil, err
	}

	c := &Concept{
		id:             id,
		name:           conceptName,
		comment:        comment,
		annotationRefs: make([]valueobjects.AnnotationID, 0, len(annotationRefs)),
		linkedConcepts: make([]valueobjects.ConceptID, 0, len(linkedConcepts)),
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
	for _, ref := range annotationRefs {
		if !ref.IsZero() && !slices.Contains(c.annotationRefs, ref) {
			c.annotationRefs = append(c.annotationRefs, ref)
		}
	}
	for _, other := range linkedConcepts {
		if !other.IsZero() && other != id && !slices.Contains(c.linkedConcepts, other) {
			c.linkedConcepts = append(c.linkedConcepts, other)
		}
	}

	return c, nil
}

// ID returns the concept's identifier
func (c *Concept) ID() valueobjects.ConceptID { return c.id }

// Name returns the display name
func (c *Concept) Name() string { return c.name.String() }

// NameKey returns the case-folded name used for uniqueness
func (c *Concept) NameKey() string { return c.name.Key() }

// Comment returns the concept's note body
func (c *Concept) Comment() string { return c.comment }

// AnnotationRefs returns a copy of the referenced annotation ids
func (c *Concept) AnnotationRefs() []valueobjects.AnnotationID {
	return slices.Clone(c.annotationRefs)
}

// LinkedConcepts returns a copy of the linked concept ids
func (c *Concept) LinkedConcepts() []valueobjects.ConceptID {
	return slices.Clone(c.linkedConcepts)
}

// CreatedAt returns when the concept was created
func (c *Concept) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the concept was last updated
func (c *Concept) UpdatedAt() time.Time { return c.updatedAt }

// HasAnnotationRef reports whether the concept references the annotation
func (c *Concept) HasAnnotationRef(id valueobjects.AnnotationID) bool {
	return slices.Contains(c.annotationRefs, id)
}

// IsLinkedTo reports whether other is in the linked set
func (c *Concept) IsLinkedTo(other valueobjects.ConceptID) bool {
	return slices.Contains(c.linkedConcepts, other)
}

// ReferencesAny reports whether at least one ref satisfies contains
func (c *Concept) ReferencesAny(contains func(valueobjects.AnnotationID) bool) bool {
	return slices.ContainsFunc(c.annotationRefs, contains)
}

// Rename replaces the name
func (c *Concept) Rename(name string, cfg *config.DomainConfig) error {
	conceptName, err := valueobjects.NewConceptNameWithConfig(name, cfg)
	if err != nil {
		return err
	}
	if conceptName.String() == c.name.String() {
		return nil
	}
	c.name = conceptName
	c.touch()
	return nil
}

// SetComment replaces the note body
func (c *Concept) SetComment(comment string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if err := validateConceptComment(comment, cfg); err != nil {
		return err
	}
	if comment == c.comment {
		return nil
	}
	c.comment = comment
	c.touch()
	return nil
}

// AddAnnotationRef appends the ref. It reports false when already present.
func (c *Concept) AddAnnotationRef(id valueobjects.AnnotationID, cfg *config.DomainConfig) (bool, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if id.IsZero() {
		return false, pkgerrors.NewValidationError("annotation id cannot be empty")
	}
	if c.HasAnnotationRef(id) {
		return false, nil
	}
	if len(c.annotationRefs) >= cfg.MaxAnnotationRefs {
		return false, pkgerrors.ErrTooManyAnnotationRefs
	}
	c.annotationRefs = append(c.annotationRefs, id)
	c.touch()
	return true, nil
}

// RemoveAnnotationRef drops the ref. It reports false when absent.
func (c *Concept) RemoveAnnotationRef(id valueobjects.AnnotationID) bool {
	idx := slices.Index(c.annotationRefs, id)
	if idx < 0 {
		return false
	}
	c.annotationRefs = slices.Delete(c.annotationRefs, idx, idx+1)
	c.touch()
	return true
}

// RemoveAnnotationRefs drops every ref in ids and reports how many were removed
func (c *Concept) RemoveAnnotationRefs(ids map[valueobjects.AnnotationID]bool) int {
	before := len(c.annotationRefs)
	c.annotationRefs = slices.DeleteFunc(c.annotationRefs, func(id valueobjects.AnnotationID) bool {
		return ids[id]
	})
	removed := before - len(c.annotationRefs)
	if removed > 0 {
		c.touch()
	}
	return removed
}

// ReplaceAnnotationRefs sets the ref list, dropping duplicates and empty ids
func (c *Concept) ReplaceAnnotationRefs(ids []valueobjects.AnnotationID, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	next := make([]valueobjects.AnnotationID, 0, len(ids))
	for _, id := range ids {
		if !id.IsZero() && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	if len(next) > cfg.MaxAnnotationRefs {
		return pkgerrors.ErrTooManyAnnotationRefs
	}
	if slices.Equal(next, c.annotationRefs) {
		return nil
	}
	c.annotationRefs = next
	c.touch()
	return nil
}

// LinkTo records a link to other. It reports false when already linked.
func (c *Concept) LinkTo(other valueobjects.ConceptID, cfg *config.DomainConfig) (bool, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if other.IsZero() {
		return false, pkgerrors.NewValidationError("linked concept id cannot be empty")
	}
	if other == c.id {
		return false, pkgerrors.ErrSelfLink
	}
	if c.IsLinkedTo(other) {
		return false, nil
	}
	if len(c.linkedConcepts) >= cfg.MaxLinksPerConcept {
		return false, pkgerrors.ErrTooManyLinks
	}
	c.linkedConcepts = append(c.linkedConcepts, other)
	c.touch()
	return true, nil
}

// Unlink drops other from the linked set. It reports false when absent.
func (c *Concept) Unlink(other valueobjects.ConceptID) bool {
	idx := slices.Index(c.linkedConcepts, other)
	if idx < 0 {
		return false
	}
	c.linkedConcepts = slices.Delete(c.linkedConcepts, idx, idx+1)
	c.touch()
	return true
}

// ReplaceLinks sets the linked set as reported by the link table
func (c *Concept) ReplaceLinks(linked []valueobjects.ConceptID) {
	next := make([]valueobjects.ConceptID, 0, len(linked))
	for _, other := range linked {
		if other != c.id && !slices.Contains(next, other) {
			next = append(next, other)
		}
	}
	c.linkedConcepts = next
}

// SearchText is the text used by link-candidate search
func (c *Concept) SearchText() string {
	return c.name.String() + "\n" + c.comment
}

// Clone returns an independent copy without pending events
func (c *Concept) Clone() *Concept {
	clone := *c
	clone.annotationRefs = slices.Clone(c.annotationRefs)
	clone.linkedConcepts = slices.Clone(c.linkedConcepts)
	clone.events = nil
	return &clone
}

// RecordUpdate raises a ConceptUpdated event for the current state
func (c *Concept) RecordUpdate() {
	c.addEvent(events.NewConceptUpdated(c.id, c.name.String(), c.AnnotationRefs(), c.updatedAt))
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Concept) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (c *Concept) MarkEventsAsCommitted() {
	c.events = nil
}

func (c *Concept) touch() {
	c.updatedAt = time.Now().UTC()
}

func (c *Concept) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}

func validateConceptComment(comment string, cfg *config.DomainConfig) error {
	if utf8.RuneCountInString(comment) > cfg.MaxConceptCommentLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("concept comment exceeds maximum length of %d characters", cfg.MaxConceptCommentLength))
	}
	return nil
}

// Package xref answers cross-reference questions between annotations and
// concepts. Everything here is a pure function of the snapshots it is given.
package xref

import (
	"slices"
	"strings"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// Membership answers whether an annotation id belongs to a set
type Membership interface {
	Contains(id valueobjects.AnnotationID) bool
}

// IDSet is a set of annotation ids
type IDSet map[valueobjects.AnnotationID]struct{}

// NewIDSet builds a set from ids
func NewIDSet(ids ...valueobjects.AnnotationID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// IDSetOf builds the id set of a document's annotations
func IDSetOf(annotations []*entities.Annotation) IDSet {
	set := make(IDSet, len(annotations))
	for _, a := range annotations {
		set[a.ID()] = struct{}{}
	}
	return set
}

// Contains reports membership
func (s IDSet) Contains(id valueobjects.AnnotationID) bool {
	_, ok := s[id]
	return ok
}

// Resolver resolves references over one snapshot of concepts and annotations
type Resolver struct {
	concepts    []*entities.Concept
	annotations []*entities.Annotation
	byID        map[valueobjects.AnnotationID]*entities.Annotation
}

// NewResolver indexes a snapshot. Nil entries are dropped.
func NewResolver(concepts []*entities.Concept, annotations []*entities.Annotation) *Resolver {
	concepts = slices.DeleteFunc(slices.Clone(concepts), func(c *entities.Concept) bool { return c == nil })
	annotations = slices.DeleteFunc(slices.Clone(annotations), func(a *entities.Annotation) bool { return a == nil })
	byID := make(map[valueobjects.AnnotationID]*entities.Annotation, len(annotations))
	for _, a := range annotations {
		byID[a.ID()] = a
	}
	return &Resolver{
		concepts:    concepts,
		annotations: annotations,
		byID:        byID,
	}
}

// ConceptsReferencing returns the concepts whose refs include annotationID
func (r *Resolver) ConceptsReferencing(annotationID valueobjects.AnnotationID) []*entities.Concept {
	out := []*entities.Concept{}
	for _, c := range r.concepts {
		if c.HasAnnotationRef(annotationID) {
			out = append(out, c)
		}
	}
	return out
}

// AnnotationsFor resolves a concept's refs in ref order.
// Refs that no longer resolve are skipped.
func (r *Resolver) AnnotationsFor(concept *entities.Concept) []*entities.Annotation {
	out := []*entities.Annotation{}
	if concept == nil {
		return out
	}
	for _, id := range concept.AnnotationRefs() {
		if a, ok := r.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// UnlinkedAnnotations returns the annotations concept does not reference yet
// whose text matches term
func (r *Resolver) UnlinkedAnnotations(concept *entities.Concept, term string) []*entities.Annotation {
	if concept == nil {
		return []*entities.Annotation{}
	}
	return UnlinkedCandidates(r.annotations,
		func(a *entities.Annotation) bool { return concept.HasAnnotationRef(a.ID()) },
		(*entities.Annotation).SearchText,
		term)
}

// UnlinkedConcepts returns the concepts not yet linked to concept whose name or
// comment matches term. The concept itself is never a candidate.
func (r *Resolver) UnlinkedConcepts(concept *entities.Concept, term string) []*entities.Concept {
	if concept == nil {
		return []*entities.Concept{}
	}
	return UnlinkedCandidates(r.concepts,
		func(c *entities.Concept) bool { return c.ID() == concept.ID() || concept.IsLinkedTo(c.ID()) },
		(*entities.Concept).SearchText,
		term)
}

// ConceptsNotReferencing returns the concepts that do not reference annotationID
// yet and match term, for linking an annotation from its side
func (r *Resolver) ConceptsNotReferencing(annotationID valueobjects.AnnotationID, term string) []*entities.Concept {
	return UnlinkedCandidates(r.concepts,
		func(c *entities.Concept) bool { return c.HasAnnotationRef(annotationID) },
		(*entities.Concept).SearchText,
		term)
}

// UnlinkedCandidates filters pool down to the items that are not members and
// whose text contains term, ignoring case. An empty term matches every
// non-member; whitespace is matched literally. Pool order is preserved.
func UnlinkedCandidates[T any](pool []T, isMember func(T) bool, text func(T) string, term string) []T {
	needle := strings.ToLower(term)
	out := make([]T, 0, len(pool))
	for _, item := range pool {
		if isMember(item) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(text(item)), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// SortForDocument orders concepts touching the document first, then by name
// ignoring case. Ties keep their input order. The input is not modified.
func SortForDocument(concepts []*entities.Concept, documentAnnotations Membership) []*entities.Concept {
	sorted := slices.Clone(concepts)
	relevant := make(map[valueobjects.ConceptID]bool, len(sorted))
	for _, c := range sorted {
		relevant[c.ID()] = documentAnnotations != nil && c.ReferencesAny(documentAnnotations.Contains)
	}

	slices.SortStableFunc(sorted, func(a, b *entities.Concept) int {
		ra, rb := relevant[a.ID()], relevant[b.ID()]
		switch {
		case ra && !rb:
			return -1
		case !ra && rb:
			return 1
		}
		return strings.Compare(a.NameKey(), b.NameKey())
	})
	return sorted
}

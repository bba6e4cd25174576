package entities

import (
	"time"

	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// Link is the stored edge between two concepts.
// The pair is unordered: at most one link exists per pair.
type Link struct {
	id        valueobjects.LinkID
	a         valueobjects.ConceptID
	b         valueobjects.ConceptID
	createdAt time.Time

	events []events.DomainEvent
}

// NewLink creates a link between two distinct concepts
func NewLink(a, b valueobjects.ConceptID) (*Link, error) {
	if a.IsZero() || b.IsZero() {
		return nil, pkgerrors.NewValidationError("link requires two concept ids")
	}
	if a == b {
		return nil, pkgerrors.ErrSelfLink
	}

	now := time.Now().UTC()
	l := &Link{
		id:        valueobjects.NewLinkID(),
		a:         a,
		b:         b,
		createdAt: now,
	}
	l.addEvent(events.NewConceptsLinked(l.id, a, b, now))
	return l, nil
}

// ReconstructLink rebuilds a link from stored data
func ReconstructLink(id valueobjects.LinkID, a, b valueobjects.ConceptID, createdAt time.Time) (*Link, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("link id cannot be empty")
	}
	if a == b {
		return nil, pkgerrors.ErrSelfLink
	}
	return &Link{id: id, a: a, b: b, createdAt: createdAt}, nil
}

// ID returns the link's identifier
func (l *Link) ID() valueobjects.LinkID { return l.id }

// ConceptIDs returns the pair in creation order
func (l *Link) ConceptIDs() [2]valueobjects.ConceptID { return [2]valueobjects.ConceptID{l.a, l.b} }

// CreatedAt returns when the link was created
func (l *Link) CreatedAt() time.Time { return l.createdAt }

// Touches reports whether the link has id as an endpoint
func (l *Link) Touches(id valueobjects.ConceptID) bool {
	return l.a == id || l.b == id
}

// Connects reports whether the link joins x and y in either order
func (l *Link) Connects(x, y valueobjects.ConceptID) bool {
	return (l.a == x && l.b == y) || (l.a == y && l.b == x)
}

// Other returns the endpoint opposite id
func (l *Link) Other(id valueobjects.ConceptID) valueobjects.ConceptID {
	if l.a == id {
		return l.b
	}
	return l.a
}

// MarkDeleted raises the unlink event
func (l *Link) MarkDeleted() {
	l.addEvent(events.NewConceptsUnlinked(l.id, l.a, l.b, time.Now().UTC()))
}

// GetUncommittedEvents returns all uncommitted domain events
func (l *Link) GetUncommittedEvents() []events.DomainEvent {
	return l.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (l *Link) MarkEventsAsCommitted() {
	l.events = nil
}

func (l *Link) addEvent(event events.DomainEvent) {
	l.events = append(l.events, event)
}

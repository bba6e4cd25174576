package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/dto"
	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// ConceptHandler serves the /concept and /link endpoints
type ConceptHandler struct {
	base
	concepts *services.ConceptService
	links    *services.LinkService
}

// NewConceptHandler creates a new concept handler
func NewConceptHandler(concepts *services.ConceptService, links *services.LinkService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *ConceptHandler {
	return &ConceptHandler{
		base:     base{errors: errs, logger: logger},
		concepts: concepts,
		links:    links,
	}
}

// List handles GET /concept/all
func (h *ConceptHandler) List(w http.ResponseWriter, r *http.Request) {
	concepts, err := h.concepts.List(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.FromConcepts(concepts))
}

// Create handles POST /concept/create
func (h *ConceptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateConceptRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.concepts.Create(r.Context(), ports.ConceptDraft{
		Name:             req.Name,
		Comment:          req.Comment,
		AnnotationIDs:    req.AnnotationIDs,
		LinkedConceptIDs: req.LinkedConceptIDs,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, dto.FromConcept(c))
}

// Update handles POST /concept/update. Linked ids in the body are ignored;
// links change only through /link.
func (h *ConceptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.Concept
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.concepts.Update(r.Context(), services.ConceptUpdate{
		ID:            req.ID,
		Name:          req.Name,
		Comment:       req.Comment,
		AnnotationIDs: req.AnnotationIDs,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.FromConcept(c))
}

// Delete handles POST /concept/delete
func (h *ConceptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.IDRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.concepts.Delete(r.Context(), valueobjects.ConceptID(req.ID)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, idResponse{ID: req.ID})
}

// CreateLink handles POST /link/create
func (h *ConceptHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	link, err := h.links.Create(r.Context(), req.ConceptIDs[0], req.ConceptIDs[1])
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, dto.FromLink(link))
}

// DeleteLink handles POST /link/delete
func (h *ConceptHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.links.Delete(r.Context(), req.ConceptIDs[0], req.ConceptIDs[1]); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.LinkRequest{ConceptIDs: req.ConceptIDs})
}

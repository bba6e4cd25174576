package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/dto"
	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// AnnotationHandler serves the /annotation endpoints
type AnnotationHandler struct {
	base
	annotations *services.AnnotationService
}

// NewAnnotationHandler creates a new annotation handler
func NewAnnotationHandler(annotations *services.AnnotationService, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		base:        base{errors: errs, logger: logger},
		annotations: annotations,
	}
}

// Create handles POST /annotation/create
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAnnotationRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.annotations.Create(r.Context(), entities.AnnotationDraft{
		DocumentID:     req.FileID,
		HighlightAreas: req.HighlightAreas,
		Quote:          req.Quote,
		Comment:        req.Comment,
		Tag:            req.Tag,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, dto.FromAnnotation(a))
}

// Update handles POST /annotation/update
func (h *AnnotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAnnotationRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.annotations.UpdateComment(r.Context(), req.ID, req.Comment)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.FromAnnotation(a))
}

// Delete handles POST /annotation/delete
func (h *AnnotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.IDRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.annotations.Delete(r.Context(), valueobjects.AnnotationID(req.ID)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, idResponse{ID: req.ID})
}

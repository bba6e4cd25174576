package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/dto"
	"github.com/whikwon/nexusnote/application/services"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/pkg/common"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// DocumentHandler serves the /document endpoints
type DocumentHandler struct {
	base
	documents      *services.DocumentService
	maxUploadBytes int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents *services.DocumentService, maxUploadBytes int64, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		base:           base{errors: errs, logger: logger},
		documents:      documents,
		maxUploadBytes: maxUploadBytes,
	}
}

// List handles GET /document/list
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.FromDocumentSummaries(docs))
}

// Content handles GET /document/{documentID}
func (h *DocumentHandler) Content(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.DocumentID(chi.URLParam(r, "documentID"))

	content, err := h.documents.Content(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content.Data); err != nil {
		h.logger.Warn("Failed to write document content", zap.Error(err), zap.String("documentID", id.String()))
	}
}

// Metadata handles GET /document/{documentID}/metadata
func (h *DocumentHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	id := valueobjects.DocumentID(chi.URLParam(r, "documentID"))

	bundle, err := h.documents.Bundle(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.DocumentBundle{
		Document:    dto.FromDocument(bundle.Document),
		Annotations: dto.FromAnnotations(bundle.Annotations),
		Concepts:    dto.FromConcepts(bundle.Concepts),
	})
}

// Upload handles POST /document/upload with a multipart "file" part
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		h.errors.Handle(w, r, common.TooLarge(h.maxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.Handle(w, r, common.TooLarge(tooLarge.Limit))
			return
		}
		h.errors.Handle(w, r, pkgerrors.NewValidationError("A multipart file part named \"file\" is required").WithCause(err))
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Document uploaded",
		zap.String("documentID", doc.ID().String()),
		zap.String("name", doc.Name()),
		zap.Int64("size", header.Size))
	h.respondJSON(w, http.StatusOK, dto.FromDocument(doc))
}

// Delete handles POST /document/delete
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.IDRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.documents.Delete(r.Context(), valueobjects.DocumentID(req.ID)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, idResponse{ID: req.ID})
}

// Rename handles POST /document/update
func (h *DocumentHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameDocumentRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.documents.Rename(r.Context(), req.ID, req.Name)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.FromDocument(doc))
}

package httpadapter

import (
	"errors"
	"net/http"
	"strings"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/progress"
)

type uploadResponse struct {
	Status   string           `json:"status"`
	Document *domain.Document `json:"document"`
	Progress []string         `json:"progress"`
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if maxMB := rt.cfg.APIMaxUploadMB; maxMB > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(maxMB)<<20)
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	userID := strings.TrimSpace(r.FormValue("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "form field 'user_id' is required")
		return
	}

	sink := progress.NewQueue()
	doc, err := rt.deps.Ingestor.Upload(r.Context(), userID, fileHeader.Filename, file, sink)
	sink.Close()
	rt.recordUpload(doc, err)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Status:   "upload_complete",
		Document: doc,
		Progress: sink.Drain(),
	})
}

func (rt *Router) recordUpload(doc *domain.Document, err error) {
	if rt.deps.Metrics == nil {
		return
	}
	chunks := 0
	if doc != nil {
		chunks = doc.ChunkCount
	}
	rt.deps.Metrics.RecordUpload(serviceName, chunks, err)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	docs, err := rt.deps.Documents.ListByNamespace(r.Context(), userID)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	doc, err := rt.deps.Documents.GetByID(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := rt.deps.Remover.DeleteDocument(r.Context(), userID, r.PathValue("id")); err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'user_id' is required")
		return "", false
	}
	return userID, true
}

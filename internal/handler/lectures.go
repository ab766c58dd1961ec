package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/mcqxai/internal/lectures"
)

func (h *Handler) handleListLectures(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "no lecture store configured")
		return
	}
	paras, err := h.store.ListParagraphs(r.URL.Query().Get("source"))
	if err != nil {
		slog.Error("failed to list paragraphs", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, paras)
}

// handleImportLectures stores a plain-text body, split on blank lines,
// under the "source" query parameter.
func (h *Handler) handleImportLectures(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "no lecture store configured")
		return
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		writeError(w, http.StatusBadRequest, "source query parameter is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	paras := lectures.Split(string(body))
	if len(paras) == 0 {
		writeError(w, http.StatusBadRequest, "body contains no paragraphs")
		return
	}

	n, err := h.store.ImportParagraphs(source, paras)
	if err != nil {
		slog.Error("failed to import paragraphs", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	slog.Info("imported lecture paragraphs", "source", source, "count", n)
	writeJSON(w, http.StatusCreated, map[string]any{"source": source, "imported": n})
}

func (h *Handler) handleDeleteLectures(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "no lecture store configured")
		return
	}
	source := chi.URLParam(r, "source")
	n, err := h.store.DeleteSource(source)
	if err != nil {
		slog.Error("failed to delete source", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "unknown source")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "deleted": n})
}

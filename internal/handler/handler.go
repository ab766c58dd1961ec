package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pavelanni/mcqxai/internal/handler/views"
	appI18n "github.com/pavelanni/mcqxai/internal/i18n"
	"github.com/pavelanni/mcqxai/internal/lectures"
	"github.com/pavelanni/mcqxai/internal/llm"
	"github.com/pavelanni/mcqxai/internal/model"
	"github.com/pavelanni/mcqxai/internal/pipeline"
	"github.com/pavelanni/mcqxai/internal/store"
)

// ExplanationIDHeader carries the ID under which an explanation was logged.
const ExplanationIDHeader = "X-Explanation-ID"

// maxBodyBytes bounds request bodies, lecture imports included.
const maxBodyBytes = 4 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	explainer *pipeline.Explainer
	provider  llm.Provider
	store     *store.Store
}

// New creates a Handler. provider may be nil, in which case each request
// lets the explainer build its default provider. st may be nil when no
// lecture store is configured.
func New(e *pipeline.Explainer, provider llm.Provider, st *store.Store) *Handler {
	return &Handler{explainer: e, provider: provider, store: st}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/explain", h.handleExplainForm)
	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Post("/explain", h.handleExplainJSON)
		api.Get("/lectures", h.handleListLectures)
		api.Post("/lectures", h.handleImportLectures)
		api.Delete("/lectures/{source}", h.handleDeleteLectures)
	})
}

// ExplainRequest is the JSON body of POST /api/explain. When Documents is
// empty, paragraphs come from the lecture store, optionally limited to
// Source.
type ExplainRequest struct {
	Question      string   `json:"question"`
	StudentAnswer string   `json:"student_answer"`
	CorrectAnswer string   `json:"correct_answer"`
	Documents     []string `json:"documents,omitempty"`
	Source        string   `json:"source,omitempty"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.IndexPage(views.FormData{}).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleExplainForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	data := views.FormData{
		Question:      r.FormValue("question"),
		StudentAnswer: r.FormValue("student_answer"),
		CorrectAnswer: r.FormValue("correct_answer"),
		Documents:     r.FormValue("documents"),
	}
	if strings.TrimSpace(data.Question) == "" || strings.TrimSpace(data.CorrectAnswer) == "" {
		http.Error(w, "question and correct answer are required", http.StatusBadRequest)
		return
	}

	docs := lectures.Split(data.Documents)
	if len(docs) == 0 {
		var err error
		if docs, err = h.storedDocuments(""); err != nil {
			slog.Error("failed to load lecture paragraphs", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	res := h.explain(w, r, model.Request{
		Question:      data.Question,
		StudentAnswer: data.StudentAnswer,
		CorrectAnswer: data.CorrectAnswer,
		Documents:     docs,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ResultPage(res, data).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) handleExplainJSON(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.CorrectAnswer) == "" {
		writeError(w, http.StatusBadRequest, "question and correct_answer are required")
		return
	}

	docs := req.Documents
	if len(docs) == 0 {
		var err error
		if docs, err = h.storedDocuments(req.Source); err != nil {
			slog.Error("failed to load lecture paragraphs", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	res := h.explain(w, r, model.Request{
		Question:      req.Question,
		StudentAnswer: req.StudentAnswer,
		CorrectAnswer: req.CorrectAnswer,
		Documents:     docs,
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) explain(w http.ResponseWriter, r *http.Request, req model.Request) model.Result {
	id := uuid.New().String()
	w.Header().Set(ExplanationIDHeader, id)

	e := h.explainer.Localized(appI18n.ReasonerTexts(r.Context()))
	res := e.Run(r.Context(), req, h.provider)
	slog.Info("explained answer",
		"id", id,
		"status", res.Status,
		"documents", len(req.Documents),
		"has_evidence", res.Evidence != "",
	)
	return res
}

func (h *Handler) storedDocuments(source string) ([]string, error) {
	if h.store == nil {
		return nil, nil
	}
	paras, err := h.store.ListParagraphs(source)
	if err != nil {
		return nil, err
	}
	return model.Texts(paras), nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if h.store != nil {
		count, err := h.store.ParagraphCount()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		status["paragraphs"] = count
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appI18n "github.com/pavelanni/mcqxai/internal/i18n"
	"github.com/pavelanni/mcqxai/internal/llm"
	"github.com/pavelanni/mcqxai/internal/model"
	"github.com/pavelanni/mcqxai/internal/pipeline"
	"github.com/pavelanni/mcqxai/internal/reasoner"
	"github.com/pavelanni/mcqxai/internal/store"
)

func newTestRouter(t *testing.T, provider llm.Provider) (http.Handler, *store.Store) {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	r := chi.NewRouter()
	r.Use(appI18n.Middleware())
	New(pipeline.New(), provider, st).Routes(r)
	return r, st
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExplainJSONWithDocuments(t *testing.T) {
	h, _ := newTestRouter(t, llm.NewMockProvider("Great job!"))

	rec := postJSON(t, h, "/api/explain", ExplainRequest{
		Question:      "What does TF-IDF measure?",
		StudentAnswer: "term importance",
		CorrectAnswer: "Term importance",
		Documents:     []string{"TF-IDF measures term importance.", "Unrelated paragraph."},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var res model.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != model.StatusCorrect {
		t.Errorf("status = %q", res.Status)
	}
	if res.Explanation != "Great job!" {
		t.Errorf("explanation = %q", res.Explanation)
	}
	if res.Evidence != "TF-IDF measures term importance." {
		t.Errorf("evidence = %q", res.Evidence)
	}
	if _, err := uuid.Parse(rec.Header().Get(ExplanationIDHeader)); err != nil {
		t.Errorf("missing or invalid %s header: %v", ExplanationIDHeader, err)
	}
}

func TestExplainJSONFallsBackAndLocalizes(t *testing.T) {
	h, _ := newTestRouter(t, llm.NewFailingMockProvider(&llm.ErrProviderCall{Provider: "mock"}))

	data, _ := json.Marshal(ExplainRequest{Question: "Q?", StudentAnswer: "a", CorrectAnswer: "b"})
	req := httptest.NewRequest(http.MethodPost, "/api/explain", bytes.NewReader(data))
	req.Header.Set("Accept-Language", "ru")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res model.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Status != model.StatusIncorrect {
		t.Errorf("status = %q", res.Status)
	}
	if !strings.HasPrefix(res.Explanation, "Ваш ответ неверный") {
		t.Errorf("explanation should be the Russian rule-based hint, got %q", res.Explanation)
	}
	if res.Evidence != "" {
		t.Errorf("evidence = %q, want empty with no documents", res.Evidence)
	}
}

func TestExplainJSONUsesStore(t *testing.T) {
	h, st := newTestRouter(t, llm.NewFailingMockProvider(&llm.ErrProviderCall{Provider: "mock"}))
	if _, err := st.ImportParagraphs("week7.txt", []string{"Stemming reduces words to roots.", "Tokenization splits text."}); err != nil {
		t.Fatal(err)
	}

	rec := postJSON(t, h, "/api/explain", ExplainRequest{
		Question:      "What does tokenization do?",
		StudentAnswer: "joins text",
		CorrectAnswer: "splits text",
		Source:        "week7.txt",
	})
	var res model.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Evidence != "Tokenization splits text." {
		t.Errorf("evidence = %q", res.Evidence)
	}
	if res.Explanation != reasoner.DefaultTexts().IncorrectHint {
		t.Errorf("explanation = %q", res.Explanation)
	}
}

func TestExplainJSONValidation(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := postJSON(t, h, "/api/explain", ExplainRequest{Question: "Q"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing correct answer: status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/explain", strings.NewReader("{not json"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: status = %d", rec.Code)
	}
}

func TestExplainForm(t *testing.T) {
	h, _ := newTestRouter(t, llm.NewMockProvider("**Review** TF-IDF. <script>alert(1)</script>"))

	form := url.Values{
		"question":       {"What is XAI?"},
		"student_answer": {"A database"},
		"correct_answer": {"Explainable AI"},
		"documents":      {"XAI explains model outputs.\n\nDatabases store rows."},
	}
	req := httptest.NewRequest(http.MethodPost, "/explain", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>Review</strong>") {
		t.Errorf("explanation should be rendered as Markdown: %s", body)
	}
	if strings.Contains(body, "<script>") {
		t.Errorf("raw HTML from the explanation must not be rendered: %s", body)
	}
	if !strings.Contains(body, "XAI explains model outputs.") {
		t.Errorf("page should show evidence")
	}
}

func TestIndexPage(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "MCQ Explainer") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestLectureEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/lectures?source=notes.txt", strings.NewReader("one\n\ntwo\n\nthree"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lectures", nil))
	var paras []model.Paragraph
	if err := json.Unmarshal(rec.Body.Bytes(), &paras); err != nil {
		t.Fatal(err)
	}
	if len(paras) != 3 {
		t.Errorf("expected 3 paragraphs, got %d", len(paras))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.Contains(rec.Body.String(), `"paragraphs":3`) {
		t.Errorf("healthz = %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/lectures/notes.txt", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/lectures/notes.txt", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/lectures", strings.NewReader("x"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing source status = %d", rec.Code)
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/config"
	"github.com/thywilljoshua/pdf-summarizer/internal/extract/pdftest"
	"github.com/thywilljoshua/pdf-summarizer/internal/summarize"
)

func init() { gin.SetMode(gin.TestMode) }

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type fakeSummarizer struct {
	fn func(ai.Request) (string, error)
}

func (f fakeSummarizer) Summarize(_ context.Context, req ai.Request) (string, error) { return f.fn(req) }

func echo(req ai.Request) (string, error) {
	if strings.HasPrefix(req.Prompt, "The following are summaries of every chapter") {
		return "The whole book.", nil
	}
	i := strings.LastIndex(req.Prompt, "\n\n")
	return "Summary: " + req.Prompt[i+2:], nil
}

type harness struct {
	srv *Server
	mu  sync.Mutex
	cfg []config.ModelConfig
}

func newHarness(t *testing.T, fn func(ai.Request) (string, error), mod ...func(*Options)) *harness {
	t.Helper()
	h := &harness{}
	opts := Options{
		Pipeline: summarize.Options{
			MaxAttempts: 2,
			BackOff:     func() backoff.BackOff { return &backoff.ZeroBackOff{} },
			Now:         func() time.Time { return fixedNow },
		},
		NewSummarizer: func(_ context.Context, cfg config.ModelConfig) (ai.Summarizer, error) {
			h.mu.Lock()
			h.cfg = append(h.cfg, cfg)
			h.mu.Unlock()
			return fakeSummarizer{fn: fn}, nil
		},
		Now: func() time.Time { return fixedNow },
	}
	for _, m := range mod {
		m(&opts)
	}
	h.srv = New(opts, nil)
	return h
}

func (h *harness) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) createSession(t *testing.T) string {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var v sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func (h *harness) upload(t *testing.T, id, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return h.do(t, http.MethodPost, "/api/sessions/"+id+"/document", &buf, w.FormDataContentType())
}

func (h *harness) summarize(t *testing.T, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	return h.do(t, http.MethodPost, "/api/sessions/"+id+"/summarize", strings.NewReader(body), "application/json")
}

func book() []byte {
	return pdftest.Build([][]string{
		{"Chapter 1", "Alice went home."},
		{"Chapter 2", "Bob stayed."},
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, echo)
	rec := h.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, echo)
	h.do(t, http.MethodGet, "/healthz", nil, "")
	rec := h.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pdfsum_http_requests_total")
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, echo)
	id := h.createSession(t)

	rec := h.upload(t, id, "book.pdf", book())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sv sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sv))
	assert.Equal(t, "book.pdf", sv.FileName)
	assert.Equal(t, 2, sv.Pages)
	require.Len(t, sv.Chapters, 2)
	assert.Equal(t, "Chapter 1", sv.Chapters[0].Title)
	assert.Equal(t, "Chapter 2", sv.Chapters[1].Title)
	assert.NotContains(t, rec.Body.String(), "Alice went home", "chapter bodies stay server side")

	rec = h.summarize(t, id, `{"provider":"openai","api_key":"sk-test-key"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rv reportView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rv))
	assert.Equal(t, 2, rv.Succeeded)
	require.Len(t, rv.Chapters, 2)
	assert.Equal(t, "Summary: Alice went home.", rv.Chapters[0].Summary)
	assert.Equal(t, summarize.StatusOK, rv.Overall.Status)
	assert.Equal(t, "The whole book.", rv.Overall.Summary)
	assert.Empty(t, rv.Failures)

	require.Len(t, h.cfg, 1)
	assert.Equal(t, "gpt-4o", h.cfg[0].ModelName)

	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=markdown", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=chapter_summaries.md", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "## Chapter 1")
	assert.Contains(t, rec.Body.String(), "- **Model:** openai / gpt-4o")

	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/chapters/1/export?format=text", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=01_chapter_2.txt", rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Summary: Bob stayed.")

	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/chapters/overall/export?format=html", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The whole book.")

	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/chapters/9/export", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadResetsSession(t *testing.T) {
	h := newHarness(t, echo)
	id := h.createSession(t)

	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)
	require.Equal(t, http.StatusOK, h.summarize(t, id, `{"provider":"openai","api_key":"sk-test-key"}`).Code)

	rec := h.upload(t, id, "other.pdf", pdftest.Build([][]string{{"Just one page of text."}}))
	require.Equal(t, http.StatusOK, rec.Code)
	var sv sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sv))
	assert.Equal(t, "other.pdf", sv.FileName)
	assert.Nil(t, sv.Report)
	require.Len(t, sv.Chapters, 1)
	assert.Equal(t, "Full Document", sv.Chapters[0].Title)

	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/export", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSummarizeRejectsBadConfig(t *testing.T) {
	h := newHarness(t, echo)
	id := h.createSession(t)
	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)

	tests := []struct {
		body string
		kind string
	}{
		{`{"provider":"openai"}`, "missing_credential"},
		{`{"provider":"custom","api_key":"sk-test-key","model":"x"}`, "missing_endpoint"},
		{`{"provider":"openai","api_key":"sk-test-key","temperature":1.5}`, "invalid_parameter"},
		{`{"provider":"cohere","api_key":"k"}`, "invalid_parameter"},
	}
	for _, tt := range tests {
		rec := h.summarize(t, id, tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
		assert.Equal(t, tt.kind, decode(t, rec)["kind"], tt.body)
	}
	assert.Empty(t, h.cfg, "no provider client is built for invalid settings")

	rec := h.summarize(t, id, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarizeUsesServerKeys(t *testing.T) {
	h := newHarness(t, echo, func(o *Options) {
		o.Keys = map[config.Provider]string{config.ProviderAnthropic: "sk-ant-from-env"}
	})
	id := h.createSession(t)
	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)

	rec := h.summarize(t, id, `{"provider":"anthropic"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, h.cfg, 1)
	assert.Equal(t, "sk-ant-from-env", h.cfg[0].APIKey.Reveal())
}

func TestServerKeysStayOnConfiguredHosts(t *testing.T) {
	h := newHarness(t, echo, func(o *Options) {
		o.Keys = map[config.Provider]string{
			config.ProviderOpenAI: "sk-server-secret-key-123456",
			config.ProviderCustom: "sk-or-server-key",
		}
	})
	id := h.createSession(t)
	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)

	for _, body := range []string{
		`{"provider":"openai","api_host":"https://elsewhere.example"}`,
		`{"provider":"custom","api_host":"https://elsewhere.example","model":"m"}`,
	} {
		rec := h.summarize(t, id, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "missing_credential", decode(t, rec)["kind"], body)
	}
	assert.Empty(t, h.cfg)

	rec := h.summarize(t, id, `{"provider":"openai","api_host":"https://elsewhere.example","api_key":"sk-client-key-1234567890"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, h.cfg, 1)
	assert.Equal(t, "sk-client-key-1234567890", h.cfg[0].APIKey.Reveal())
	assert.Equal(t, "https://elsewhere.example", h.cfg[0].APIHost)
}

func TestServerCustomKeyUsesConfiguredHost(t *testing.T) {
	h := newHarness(t, echo, func(o *Options) {
		o.Keys = map[config.Provider]string{config.ProviderCustom: "sk-or-server-key"}
		o.Hosts = map[config.Provider]string{config.ProviderCustom: "https://gateway.internal/v1/"}
	})
	id := h.createSession(t)
	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)

	rec := h.summarize(t, id, `{"provider":"custom","model":"m"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, h.cfg, 1)
	assert.Equal(t, "sk-or-server-key", h.cfg[0].APIKey.Reveal())
	assert.Equal(t, "https://gateway.internal/v1", h.cfg[0].APIHost)

	rec = h.summarize(t, id, `{"provider":"custom","model":"m","api_host":"https://gateway.internal/v1"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSummarizeWithoutDocument(t *testing.T) {
	h := newHarness(t, echo)
	id := h.createSession(t)
	rec := h.summarize(t, id, `{"provider":"openai","api_key":"sk-test-key"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSummarizeAuthFailureReturnsPartialReport(t *testing.T) {
	h := newHarness(t, func(ai.Request) (string, error) {
		return "", &ai.ProviderError{Provider: "openai", Kind: ai.Auth, StatusCode: 401, Err: io.EOF}
	})
	id := h.createSession(t)
	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)

	rec := h.summarize(t, id, `{"provider":"openai","api_key":"sk-test-key"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "auth", body["kind"])
	report, ok := body["report"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, report["chapters"], 2)

	// The partial report is kept and exportable.
	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=text", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[Summary unavailable:")
}

func TestUploadErrors(t *testing.T) {
	h := newHarness(t, echo, func(o *Options) { o.MaxUploadBytes = 1 << 10 })
	id := h.createSession(t)

	rec := h.upload(t, id, "notes.pdf", []byte(strings.Repeat("plain text ", 20)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.upload(t, id, "big.pdf", bytes.Repeat([]byte("x"), 4<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/sessions/"+id+"/document", strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.upload(t, "missing", "book.pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	h := newHarness(t, echo)
	id := h.createSession(t)
	require.Equal(t, http.StatusOK, h.upload(t, id, "book.pdf", book()).Code)
	require.Equal(t, http.StatusOK, h.summarize(t, id, `{"provider":"openai","api_key":"sk-test-key"}`).Code)

	rec := h.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=docx", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/sessions/"+id+"/chapters/abc/export", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

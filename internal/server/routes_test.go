// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley/internal/orchestrator"
	"github.com/parley-dev/parley/internal/rag"
	"github.com/parley-dev/parley/internal/server"
	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
	"github.com/parley-dev/parley/pkg/health"
)

type fakeAssistant struct {
	chatResp   orchestrator.ChatResponse
	chatErr    error
	ingestRes  rag.IngestResult
	ingestErr  error
	queryRes   []store.SearchResult
	queryErr   error
	clearErr   error
	cleared    []string
	lastIngest struct {
		tenantID, text, source string
	}
}

func (f *fakeAssistant) Chat(_ context.Context, req orchestrator.ChatRequest) (orchestrator.ChatResponse, error) {
	if f.chatErr != nil {
		return orchestrator.ChatResponse{}, f.chatErr
	}
	resp := f.chatResp
	if resp.TenantID == "" {
		resp.TenantID = req.TenantID
	}
	if resp.SessionID == "" {
		resp.SessionID = req.SessionID
	}
	return resp, nil
}

func (f *fakeAssistant) Ingest(_ context.Context, tenantID, text, source string) (rag.IngestResult, error) {
	f.lastIngest.tenantID = tenantID
	f.lastIngest.text = text
	f.lastIngest.source = source
	return f.ingestRes, f.ingestErr
}

func (f *fakeAssistant) Query(context.Context, string, string) ([]store.SearchResult, error) {
	return f.queryRes, f.queryErr
}

func (f *fakeAssistant) ClearSession(_ context.Context, tenantID, sessionID string) error {
	f.cleared = append(f.cleared, tenantID+"/"+sessionID)
	return f.clearErr
}

func newTestServer(t *testing.T, assistant *fakeAssistant) *server.Server {
	t.Helper()
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterServices(&server.Services{Assistant: assistant})
	return srv
}

func postJSON(t *testing.T, srv *server.Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestChat(t *testing.T) {
	assistant := &fakeAssistant{
		chatResp: orchestrator.ChatResponse{Reply: "Cats nap a lot.", TenantID: "acme", SessionID: "s1"},
	}
	srv := newTestServer(t, assistant)

	rec := postJSON(t, srv, "/api/v1/chat", map[string]string{
		"tenant_id":  "acme",
		"session_id": "s1",
		"message":    "What do cats do?",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Cats nap a lot.", body["response"])
	assert.Equal(t, "acme", body["tenant_id"])
	assert.Equal(t, "s1", body["session_id"])
}

func TestChat_MissingFields(t *testing.T) {
	srv := newTestServer(t, &fakeAssistant{})

	rec := postJSON(t, srv, "/api/v1/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postJSON(t, srv, "/api/v1/chat", map[string]string{"tenant_id": "acme"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChat_InvalidInputFromAssistant(t *testing.T) {
	assistant := &fakeAssistant{
		chatErr: parleyerr.New(parleyerr.CodeChatInputInvalid, "tenant id is required"),
	}
	srv := newTestServer(t, assistant)

	rec := postJSON(t, srv, "/api/v1/chat", map[string]string{
		"tenant_id": "acme",
		"message":   "hi",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestText(t *testing.T) {
	assistant := &fakeAssistant{ingestRes: rag.IngestResult{ChunksIndexed: 3, ChunksFailed: 1}}
	srv := newTestServer(t, assistant)

	rec := postJSON(t, srv, "/api/v1/ingest/text", map[string]string{
		"tenant_id": "acme",
		"text":      "A cat sat.",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status        string `json:"status"`
		ChunksIndexed int    `json:"chunks_indexed"`
		ChunksFailed  int    `json:"chunks_failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 3, body.ChunksIndexed)
	assert.Equal(t, 1, body.ChunksFailed)

	// Omitted source gets the manual-input label.
	assert.Equal(t, "Manual Text Input", assistant.lastIngest.source)
}

func TestIngestText_CustomSource(t *testing.T) {
	assistant := &fakeAssistant{}
	srv := newTestServer(t, assistant)

	rec := postJSON(t, srv, "/api/v1/ingest/text", map[string]string{
		"tenant_id": "acme",
		"text":      "A cat sat.",
		"source":    "pets.txt",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pets.txt", assistant.lastIngest.source)
}

func TestIngestText_StoreFailure(t *testing.T) {
	assistant := &fakeAssistant{
		ingestErr: parleyerr.New(parleyerr.CodeStoreDatabaseFailure, "disk full"),
	}
	srv := newTestServer(t, assistant)

	rec := postJSON(t, srv, "/api/v1/ingest/text", map[string]string{
		"tenant_id": "acme",
		"text":      "A cat sat.",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestQuery(t *testing.T) {
	assistant := &fakeAssistant{queryRes: []store.SearchResult{
		{Text: "A cat sat.", Source: "pets.txt", Score: 0.91},
		{Text: "A dog ran.", Source: "pets.txt", Score: 0.42},
	}}
	srv := newTestServer(t, assistant)

	rec := postJSON(t, srv, "/api/v1/query", map[string]string{
		"tenant_id": "acme",
		"query":     "cat",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []struct {
			Text   string  `json:"text"`
			Source string  `json:"source"`
			Score  float64 `json:"score"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, "A cat sat.", body.Results[0].Text)
	assert.InDelta(t, 0.91, body.Results[0].Score, 1e-9)
}

func TestQuery_EmptyResults(t *testing.T) {
	srv := newTestServer(t, &fakeAssistant{})

	rec := postJSON(t, srv, "/api/v1/query", map[string]string{
		"tenant_id": "unknown",
		"query":     "cat",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Results)
}

func TestClearSession(t *testing.T) {
	assistant := &fakeAssistant{}
	srv := newTestServer(t, assistant)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/tenants/acme/sessions/s1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"acme/s1"}, assistant.cleared)
}

func TestStatus(t *testing.T) {
	tracker := health.NewTracker()
	tracker.RecordFailure("openai")

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	srv.RegisterServices(&server.Services{Assistant: &fakeAssistant{}, Providers: staticHealth{snapshot: tracker.Snapshot()}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status    string `json:"status"`
		Providers map[string]struct {
			FailureCount int64 `json:"failure_count"`
			Available    bool  `json:"available"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Contains(t, body.Providers, "openai")
	assert.False(t, body.Providers["openai"].Available)
	assert.EqualValues(t, 1, body.Providers["openai"].FailureCount)
}

type staticHealth struct {
	snapshot map[string]health.Metrics
}

func (s staticHealth) Health() map[string]health.Metrics { return s.snapshot }

func TestStatus_NoHealthSource(t *testing.T) {
	srv := newTestServer(t, &fakeAssistant{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_RequiresListenAddr(t *testing.T) {
	_, err := server.New(server.Config{})
	require.Error(t, err)
}

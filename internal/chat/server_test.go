package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercelens/commercelens/internal/agent"
	"github.com/commercelens/commercelens/internal/analysis"
	"github.com/commercelens/commercelens/internal/llm"
	"github.com/commercelens/commercelens/internal/prompt"
	"github.com/commercelens/commercelens/internal/schema"
	"github.com/commercelens/commercelens/internal/storage"
)

type stubExecutor struct {
	result *storage.ResultSet
}

func (e *stubExecutor) ExecuteQuery(_ context.Context, _ string) (*storage.ResultSet, error) {
	return e.result, nil
}

func (e *stubExecutor) Introspect(_ context.Context, _ int) (schema.Descriptor, error) {
	return schema.Descriptor{
		Tables: []schema.Table{
			{Name: "orders", Columns: []schema.Column{{Name: "order_id", Type: schema.TypeText}}},
		},
	}, nil
}

type stubLLM struct {
	sql     string
	insight string
}

func (s *stubLLM) GenerateSQL(_ context.Context, _ llm.SQLRequest) (*llm.SQLResult, error) {
	return &llm.SQLResult{SQL: s.sql}, nil
}

func (s *stubLLM) Insight(_ context.Context, _ llm.InsightRequest) (*llm.InsightResult, error) {
	return &llm.InsightResult{Text: s.insight}, nil
}

func (s *stubLLM) Model() string { return "stub" }

func testServer() *Server {
	executor := &stubExecutor{
		result: &storage.ResultSet{
			Columns: []string{"count"},
			Rows:    [][]string{{"99441"}},
		},
	}

	a := agent.New(executor, &stubLLM{
		sql:     "SELECT COUNT(*) FROM orders",
		insight: "Order volume is healthy.",
	}, prompt.DefaultConfig())

	return NewServer(a, analysis.NewRunner(executor), ":0")
}

func TestHandleIndex(t *testing.T) {
	srv := testServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "CommerceLens")
}

func TestHandleHealth(t *testing.T) {
	srv := testServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHandleAsk(t *testing.T) {
	srv := testServer()

	body := strings.NewReader(`{"question":"How many orders are there?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ask", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "SELECT COUNT(*) FROM orders", resp.SQL)
	assert.Equal(t, "Order volume is healthy.", resp.Insight)
	assert.Equal(t, [][]string{{"99441"}}, resp.Rows)
	assert.Equal(t, 1, resp.Attempts)
}

func TestHandleAskBadRequest(t *testing.T) {
	srv := testServer()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing question", `{"question":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleChartList(t *testing.T) {
	srv := testServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var charts []chartInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &charts))
	assert.NotEmpty(t, charts)
}

func TestHandleChart(t *testing.T) {
	srv := testServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/top-states", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp chartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "top-states", resp.Name)
	assert.Equal(t, []string{"count"}, resp.Columns)
}

func TestHandleChartUnknown(t *testing.T) {
	srv := testServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

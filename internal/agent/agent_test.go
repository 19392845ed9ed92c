package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercelens/commercelens/internal/cache"
	"github.com/commercelens/commercelens/internal/errors"
	"github.com/commercelens/commercelens/internal/llm"
	"github.com/commercelens/commercelens/internal/prompt"
	"github.com/commercelens/commercelens/internal/schema"
	"github.com/commercelens/commercelens/internal/storage"
)

// mockLLM returns scripted SQL responses in order, then repeats the last one.
type mockLLM struct {
	sqlResponses []string
	sqlCalls     []llm.SQLRequest
	insightText  string
	insightErr   error
}

func (m *mockLLM) GenerateSQL(_ context.Context, req llm.SQLRequest) (*llm.SQLResult, error) {
	m.sqlCalls = append(m.sqlCalls, req)

	idx := len(m.sqlCalls) - 1
	if idx >= len(m.sqlResponses) {
		idx = len(m.sqlResponses) - 1
	}

	return &llm.SQLResult{
		SQL:   m.sqlResponses[idx],
		Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 10},
	}, nil
}

func (m *mockLLM) Insight(_ context.Context, _ llm.InsightRequest) (*llm.InsightResult, error) {
	if m.insightErr != nil {
		return nil, m.insightErr
	}

	return &llm.InsightResult{
		Text:  m.insightText,
		Usage: llm.Usage{PromptTokens: 50, CompletionTokens: 20},
	}, nil
}

func (m *mockLLM) Model() string { return "mock-model" }

// mockExecutor serves a fixed schema and fails queries listed in failing.
type mockExecutor struct {
	desc    schema.Descriptor
	results *storage.ResultSet
	failing map[string]string
	queries []string
}

func (m *mockExecutor) ExecuteQuery(_ context.Context, query string) (*storage.ResultSet, error) {
	m.queries = append(m.queries, query)

	if msg, ok := m.failing[query]; ok {
		return nil, fmt.Errorf("%s", msg)
	}

	return m.results, nil
}

func (m *mockExecutor) Introspect(_ context.Context, _ int) (schema.Descriptor, error) {
	return m.desc, nil
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		desc: schema.Descriptor{
			Tables: []schema.Table{
				{
					Name: "orders",
					Columns: []schema.Column{
						{Name: "order_id", Type: schema.TypeText},
						{Name: "order_status", Type: schema.TypeText},
					},
					Samples: [][]string{{"o1", "delivered"}},
				},
			},
		},
		results: &storage.ResultSet{
			Columns: []string{"count"},
			Rows:    [][]string{{"99441"}},
		},
		failing: map[string]string{},
	}
}

func TestAskFirstAttemptSucceeds(t *testing.T) {
	executor := newMockExecutor()
	service := &mockLLM{
		sqlResponses: []string{"SELECT COUNT(*) FROM orders"},
		insightText:  "Order volume is healthy.",
	}

	a := New(executor, service, prompt.DefaultConfig())

	answer, err := a.Ask(context.Background(), "How many orders are there?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM orders", answer.SQL)
	assert.Equal(t, "Order volume is healthy.", answer.Insight)
	assert.Empty(t, answer.Attempts)
	require.Len(t, answer.Results.Rows, 1)

	// One generation plus one insight call.
	assert.Equal(t, 150, answer.Usage.PromptTokens)
	assert.Equal(t, 30, answer.Usage.CompletionTokens)
}

func TestAskRetriesOnValidationError(t *testing.T) {
	executor := newMockExecutor()
	service := &mockLLM{
		sqlResponses: []string{
			"SELECT COUNT(*) FROM ordres",
			"SELECT COUNT(*) FROM orders",
		},
		insightText: "ok",
	}

	a := New(executor, service, prompt.DefaultConfig())

	answer, err := a.Ask(context.Background(), "How many orders?")
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) FROM orders", answer.SQL)
	require.Len(t, answer.Attempts, 1)
	assert.Contains(t, answer.Attempts[0].Error, "unknown table")

	// The rejected query never reaches the database.
	assert.Equal(t, []string{"SELECT COUNT(*) FROM orders"}, executor.queries)

	// The retry carries the failed SQL and error back to the model.
	require.Len(t, service.sqlCalls, 2)
	assert.Equal(t, "SELECT COUNT(*) FROM ordres", service.sqlCalls[1].PrevSQL)
	assert.NotEmpty(t, service.sqlCalls[1].PrevError)
}

func TestAskRetriesOnExecutionError(t *testing.T) {
	executor := newMockExecutor()
	executor.failing["SELECT bogus FROM orders"] = "column bogus does not exist"

	service := &mockLLM{
		sqlResponses: []string{
			"SELECT bogus FROM orders",
			"SELECT order_id FROM orders",
		},
		insightText: "ok",
	}

	a := New(executor, service, prompt.DefaultConfig())

	answer, err := a.Ask(context.Background(), "Show order ids")
	require.NoError(t, err)

	assert.Equal(t, "SELECT order_id FROM orders", answer.SQL)
	require.Len(t, answer.Attempts, 1)
	assert.Contains(t, answer.Attempts[0].Error, "column bogus does not exist")
	assert.Len(t, executor.queries, 2)
}

func TestAskGivesUpAfterMaxAttempts(t *testing.T) {
	executor := newMockExecutor()
	service := &mockLLM{
		sqlResponses: []string{"DELETE FROM orders"},
	}

	a := New(executor, service, prompt.DefaultConfig())

	_, err := a.Ask(context.Background(), "Remove everything")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeLLM))
	assert.Len(t, service.sqlCalls, MaxAttempts)

	// Invalid SQL never reaches the database.
	assert.Empty(t, executor.queries)
}

func TestAskInsightFailureKeepsResults(t *testing.T) {
	executor := newMockExecutor()
	service := &mockLLM{
		sqlResponses: []string{"SELECT COUNT(*) FROM orders"},
		insightErr:   fmt.Errorf("model unavailable"),
	}

	a := New(executor, service, prompt.DefaultConfig())

	answer, err := a.Ask(context.Background(), "How many orders?")
	require.NoError(t, err)
	assert.NotNil(t, answer.Results)
	assert.Empty(t, answer.Insight)
}

func TestAskEmptyResultSkipsInsight(t *testing.T) {
	executor := newMockExecutor()
	executor.results = &storage.ResultSet{Columns: []string{"count"}}

	service := &mockLLM{
		sqlResponses: []string{"SELECT COUNT(*) FROM orders"},
		insightText:  "should not appear",
	}

	a := New(executor, service, prompt.DefaultConfig())

	answer, err := a.Ask(context.Background(), "How many orders?")
	require.NoError(t, err)
	assert.Empty(t, answer.Insight)
}

func TestBuildPromptUsesCache(t *testing.T) {
	executor := newMockExecutor()
	service := &mockLLM{sqlResponses: []string{"SELECT 1"}}

	c, err := cache.NewPromptCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	a := New(executor, service, prompt.DefaultConfig(), WithPromptCache(c))

	first, err := a.BuildPrompt(context.Background())
	require.NoError(t, err)

	second, err := a.BuildPrompt(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix())
}

// Package llm abstracts the language model providers behind one Service
// interface. Three providers are supported: OpenAI, Anthropic, and a local
// Ollama server.
package llm

import (
	"context"
	"strings"

	"github.com/commercelens/commercelens/internal/config"
	"github.com/commercelens/commercelens/internal/errors"
)

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the combined token count.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// SQLRequest asks the model to translate a question into a single SQL query.
type SQLRequest struct {
	// SystemPrompt carries the schema description.
	SystemPrompt string

	// Question is the user's natural language question.
	Question string

	// PrevSQL and PrevError carry the failed attempt when retrying, so the
	// model can correct itself.
	PrevSQL   string
	PrevError string
}

// SQLResult is the model's proposed query.
type SQLResult struct {
	SQL   string
	Usage Usage
}

// InsightRequest asks the model to summarize query results as a short
// business insight.
type InsightRequest struct {
	Question string

	// ResultTable is the query result rendered as a markdown table.
	ResultTable string

	// Language selects the answer language: "en" or "fa".
	Language string
}

// InsightResult is the model's summary.
type InsightResult struct {
	Text  string
	Usage Usage
}

// Service generates SQL and insights. Implementations are safe for concurrent
// use.
type Service interface {
	// GenerateSQL produces one SELECT statement answering the question.
	GenerateSQL(ctx context.Context, req SQLRequest) (*SQLResult, error)

	// Insight summarizes query results for the question.
	Insight(ctx context.Context, req InsightRequest) (*InsightResult, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}

// NewService builds the provider named in the configuration.
func NewService(cfg config.LLMConfig) (Service, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIService(cfg)
	case "anthropic":
		return newAnthropicService(cfg)
	case "ollama":
		return newOllamaService(cfg)
	default:
		return nil, errors.Newf(errors.ErrTypeConfig, "unknown LLM provider: %s", cfg.Provider).
			WithSuggestion("Set COMMERCELENS_LLM_PROVIDER to openai, anthropic, or ollama")
	}
}

// sqlInstructions is appended to the schema prompt when asking for SQL.
const sqlInstructions = "\n\nWrite exactly one SQL SELECT statement that answers the question. " +
	"Use DuckDB SQL syntax. Return only the SQL, with no explanation and no markdown fences."

// buildSQLUserMessage assembles the user turn, including retry feedback when
// the previous attempt failed.
func buildSQLUserMessage(req SQLRequest) string {
	var sb strings.Builder

	sb.WriteString("Question: ")
	sb.WriteString(req.Question)

	if req.PrevSQL != "" && req.PrevError != "" {
		sb.WriteString("\n\nYour previous query failed.\nQuery:\n")
		sb.WriteString(req.PrevSQL)
		sb.WriteString("\nError:\n")
		sb.WriteString(req.PrevError)
		sb.WriteString("\n\nWrite a corrected query.")
	}

	return sb.String()
}

// insightSystemPrompt returns the summarization instructions for a language.
func insightSystemPrompt(language string) string {
	if language == "fa" {
		return "شما یک تحلیل‌گر کسب‌وکار هستید. نتایج پرس‌وجوی زیر را در دو تا چهار جمله " +
			"خلاصه کنید. بر روندها، ناهنجاری‌ها و یافته‌های قابل اقدام تمرکز کنید و از تکرار اعداد خام بپرهیزید."
	}

	return "You are a business analyst. Summarize the query results below in two to four " +
		"sentences. Focus on trends, anomalies, and actionable findings rather than restating raw numbers."
}

// buildInsightUserMessage assembles the summarization turn.
func buildInsightUserMessage(req InsightRequest) string {
	var sb strings.Builder

	sb.WriteString("Question: ")
	sb.WriteString(req.Question)
	sb.WriteString("\n\nQuery results:\n")
	sb.WriteString(req.ResultTable)

	return sb.String()
}

// CleanSQL strips markdown fences and trailing semicolons that models often
// wrap around generated queries.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}

	return strings.TrimSuffix(strings.TrimSpace(s), ";")
}

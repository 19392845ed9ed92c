// Package agent orchestrates question answering: it builds the schema prompt,
// asks the language model for SQL, validates and executes it, retries on
// failure, and finally summarizes the results as a business insight.
package agent

import (
	"context"
	"time"

	"github.com/commercelens/commercelens/internal/cache"
	"github.com/commercelens/commercelens/internal/errors"
	"github.com/commercelens/commercelens/internal/llm"
	"github.com/commercelens/commercelens/internal/logging"
	"github.com/commercelens/commercelens/internal/metrics"
	"github.com/commercelens/commercelens/internal/prompt"
	"github.com/commercelens/commercelens/internal/schema"
	"github.com/commercelens/commercelens/internal/storage"
)

// MaxAttempts bounds the generate-validate-execute loop.
const MaxAttempts = 3

// insightRowLimit caps how many result rows are handed to the model for
// summarization.
const insightRowLimit = 50

// Executor runs validated queries. *storage.Repository satisfies it.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string) (*storage.ResultSet, error)
	Introspect(ctx context.Context, samplesPerTable int) (schema.Descriptor, error)
}

// Agent answers natural language questions against the database.
type Agent struct {
	executor    Executor
	llm         llm.Service
	promptCfg   prompt.Config
	promptCache *cache.PromptCache
	logger      *logging.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithPromptCache enables fingerprint-keyed prompt artifact reuse.
func WithPromptCache(c *cache.PromptCache) Option {
	return func(a *Agent) { a.promptCache = c }
}

// New builds an agent.
func New(executor Executor, service llm.Service, promptCfg prompt.Config, opts ...Option) *Agent {
	a := &Agent{
		executor:  executor,
		llm:       service,
		promptCfg: promptCfg,
		logger:    logging.GetLogger().WithField("component", "agent"),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Attempt records one round of the SQL loop.
type Attempt struct {
	SQL   string
	Error string
}

// Answer is the complete response to one question.
type Answer struct {
	Question string
	SQL      string
	Results  *storage.ResultSet
	Insight  string
	Attempts []Attempt
	Usage    llm.Usage
	Duration time.Duration
}

// Ask answers one question. It snapshots the schema, builds the system
// prompt, then loops: generate SQL, validate, execute. Each failure is fed
// back to the model; after MaxAttempts failures the last error is returned.
func (a *Agent) Ask(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	artifact, desc, err := a.buildPrompt(ctx)
	if err != nil {
		return nil, err
	}

	answer := &Answer{Question: question}

	var prevSQL, prevError string

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		result, err := a.llm.GenerateSQL(ctx, llm.SQLRequest{
			SystemPrompt: artifact.Text,
			Question:     question,
			PrevSQL:      prevSQL,
			PrevError:    prevError,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrTypeLLM, "SQL generation failed")
		}

		answer.Usage.PromptTokens += result.Usage.PromptTokens
		answer.Usage.CompletionTokens += result.Usage.CompletionTokens
		metrics.RecordTokens(a.llm.Model(), "generate_sql",
			result.Usage.PromptTokens, result.Usage.CompletionTokens)

		a.logger.WithField("attempt", attempt).Debugf("generated SQL: %s", result.SQL)

		if err := ValidateSQL(result.SQL, desc); err != nil {
			metrics.RecordSQLAttempt("invalid")
			answer.Attempts = append(answer.Attempts, Attempt{SQL: result.SQL, Error: err.Error()})
			prevSQL, prevError = result.SQL, err.Error()

			continue
		}

		rs, err := a.executor.ExecuteQuery(ctx, result.SQL)
		if err != nil {
			metrics.RecordSQLAttempt("failed")
			answer.Attempts = append(answer.Attempts, Attempt{SQL: result.SQL, Error: err.Error()})
			prevSQL, prevError = result.SQL, err.Error()

			a.logger.WithField("attempt", attempt).Warnf("query execution failed: %v", err)

			continue
		}

		metrics.RecordSQLAttempt("ok")
		answer.SQL = result.SQL
		answer.Results = rs

		if err := a.summarize(ctx, question, answer); err != nil {
			// An insight failure does not invalidate the query results.
			a.logger.Warnf("insight generation failed: %v", err)
		}

		answer.Duration = time.Since(start)
		metrics.ObserveResponseTime("ask", answer.Duration)

		return answer, nil
	}

	return nil, errors.Newf(errors.ErrTypeLLM,
		"failed to produce a working query after %d attempts (last error: %s)",
		MaxAttempts, prevError).
		WithSuggestion("Rephrase the question or name the tables and columns explicitly")
}

// BuildPrompt exposes the prompt build for the prompt inspection command.
func (a *Agent) BuildPrompt(ctx context.Context) (*prompt.Artifact, error) {
	artifact, _, err := a.buildPrompt(ctx)
	return artifact, err
}

// buildPrompt snapshots the schema and builds (or reuses) the system prompt.
func (a *Agent) buildPrompt(ctx context.Context) (*prompt.Artifact, schema.Descriptor, error) {
	desc, err := a.executor.Introspect(ctx, a.promptCfg.SampleRowsPerTable)
	if err != nil {
		return nil, schema.Descriptor{}, errors.Wrap(err, errors.ErrTypeSchema,
			"schema introspection failed")
	}

	if a.promptCache != nil {
		if artifact, err := a.promptCache.Get(desc.Fingerprint(), a.promptCfg); err == nil {
			a.logger.Debugf("reusing cached prompt artifact %s", artifact.Fingerprint)
			return artifact, desc, nil
		}
	}

	artifact, err := prompt.Build(desc, a.promptCfg)
	if err != nil {
		return nil, schema.Descriptor{}, err
	}

	if a.promptCache != nil {
		if err := a.promptCache.Put(artifact, a.promptCfg); err != nil {
			a.logger.Warnf("failed to cache prompt artifact: %v", err)
		}
	}

	return artifact, desc, nil
}

// summarize fills in the insight for a successful answer.
func (a *Agent) summarize(ctx context.Context, question string, answer *Answer) error {
	if answer.Results.Empty() {
		answer.Insight = ""
		return nil
	}

	result, err := a.llm.Insight(ctx, llm.InsightRequest{
		Question:    question,
		ResultTable: answer.Results.Truncate(insightRowLimit).Markdown(),
		Language:    a.promptCfg.Language,
	})
	if err != nil {
		return err
	}

	answer.Insight = result.Text
	answer.Usage.PromptTokens += result.Usage.PromptTokens
	answer.Usage.CompletionTokens += result.Usage.CompletionTokens
	metrics.RecordTokens(a.llm.Model(), "insight",
		result.Usage.PromptTokens, result.Usage.CompletionTokens)

	return nil
}

// Package chat serves the browser chat UI: a single-page frontend, a question
// endpoint backed by the agent, and pre-built chart data endpoints.
package chat

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/commercelens/commercelens/internal/agent"
	"github.com/commercelens/commercelens/internal/analysis"
	"github.com/commercelens/commercelens/internal/logging"
)

//go:embed templates/index.html
var indexHTML []byte

// askTimeout bounds one full question round trip, including LLM retries.
const askTimeout = 3 * time.Minute

// Server is the chat HTTP server.
type Server struct {
	agent      *agent.Agent
	reports    *analysis.Runner
	logger     *logging.Logger
	httpServer *http.Server
}

// NewServer wires the routes.
func NewServer(a *agent.Agent, reports *analysis.Runner, addr string) *Server {
	s := &Server{
		agent:   a,
		reports: reports,
		logger:  logging.GetLogger().WithField("component", "chat"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Post("/api/ask", s.handleAsk)
	r.Get("/api/charts", s.handleChartList)
	r.Get("/api/charts/{name}", s.handleChart)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infof("chat server listening on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("chat server failed: %w", err)
	}

	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	RequestID  string     `json:"requestId"`
	SQL        string     `json:"sql,omitempty"`
	Columns    []string   `json:"columns,omitempty"`
	Rows       [][]string `json:"rows,omitempty"`
	Insight    string     `json:"insight,omitempty"`
	Attempts   int        `json:"attempts"`
	DurationMs int64      `json:"durationMs"`
	Error      string     `json:"error,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	logger := s.logger.WithField("request_id", requestID)

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest,
			askResponse{RequestID: requestID, Error: "invalid JSON body"})

		return
	}

	if req.Question == "" {
		respondJSON(w, http.StatusBadRequest,
			askResponse{RequestID: requestID, Error: "question is required"})

		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	logger.Infof("question: %s", req.Question)

	answer, err := s.agent.Ask(ctx, req.Question)
	if err != nil {
		logger.Errorf("ask failed: %v", err)
		respondJSON(w, http.StatusUnprocessableEntity,
			askResponse{RequestID: requestID, Error: err.Error()})

		return
	}

	respondJSON(w, http.StatusOK, askResponse{
		RequestID:  requestID,
		SQL:        answer.SQL,
		Columns:    answer.Results.Columns,
		Rows:       answer.Results.Rows,
		Insight:    answer.Insight,
		Attempts:   len(answer.Attempts) + 1,
		DurationMs: answer.Duration.Milliseconds(),
	})
}

type chartInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleChartList(w http.ResponseWriter, _ *http.Request) {
	list := analysis.List()
	charts := make([]chartInfo, len(list))

	for i, r := range list {
		charts[i] = chartInfo{Name: r.Name, Description: r.Description}
	}

	respondJSON(w, http.StatusOK, charts)
}

type chartResponse struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Error   string     `json:"error,omitempty"`
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if _, err := analysis.Lookup(name); err != nil {
		respondJSON(w, http.StatusNotFound, chartResponse{Name: name, Error: err.Error()})
		return
	}

	rs, err := s.reports.Run(r.Context(), name)
	if err != nil {
		s.logger.Errorf("chart %s failed: %v", name, err)
		respondJSON(w, http.StatusInternalServerError,
			chartResponse{Name: name, Error: err.Error()})

		return
	}

	respondJSON(w, http.StatusOK, chartResponse{
		Name:    name,
		Columns: rs.Columns,
		Rows:    rs.Rows,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

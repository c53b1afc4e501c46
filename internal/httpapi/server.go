package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"repolens/internal/orchestrator"
	"repolens/internal/tools"
)

// Server maps HTTP routes onto tool executions. It holds no business logic;
// every route is a thin adapter over the executor or the orchestrator.
type Server struct {
	executor *tools.Executor
	orch     *orchestrator.Orchestrator
	logger   *zap.Logger
}

// NewServer constructs the HTTP front door.
func NewServer(executor *tools.Executor, orch *orchestrator.Orchestrator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{executor: executor, orch: orch, logger: logger}
}

// Handler returns the route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tools", s.handleListTools)
	mux.HandleFunc("POST /api/execute", s.handleExecute)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/search/repositories", s.handleSearch)
	mux.HandleFunc("GET /api/repository/{owner}/{repo}/stats", s.handleRepoStats)
	mux.HandleFunc("GET /api/repository/{owner}/{repo}/issues", s.handleIssues)
	mux.HandleFunc("GET /api/repository/{owner}/{repo}/pulls", s.handlePulls)
	mux.HandleFunc("GET /api/repository/{owner}/{repo}/contents/{path...}", s.handleFileContents)
	mux.HandleFunc("GET /api/organization/{org}", s.handleOrganization)
	mux.HandleFunc("GET /api/organization/{org}/repositories", s.handleOrgRepositories)
	mux.HandleFunc("POST /api/organization/{org}/analyze", s.handleOrgAnalyze)

	return s.withLogging(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			zap.String("request_id", uuid.NewString()),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, tools.Result{Error: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "repolens analysis server is running"})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tools": s.executor.List()})
}

type executeRequest struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.Tool == "" {
		writeValidationError(w, "Tool name is required")
		return
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}
	writeJSON(w, http.StatusOK, s.executor.Execute(r.Context(), req.Tool, req.Parameters))
}

type queryRequest struct {
	Query      string `json:"query"`
	Repository string `json:"repository"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.Query == "" || req.Repository == "" {
		writeValidationError(w, "Query and repository are required")
		return
	}
	owner, repo, found := strings.Cut(req.Repository, "/")
	if !found || owner == "" || repo == "" {
		writeValidationError(w, `Repository must be in format "owner/repo"`)
		return
	}
	result := s.executor.Execute(r.Context(), "analyze_repository", map[string]any{
		"owner": owner,
		"repo":  repo,
		"query": req.Query,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeValidationError(w, `Query parameter "q" is required`)
		return
	}
	args := map[string]any{"query": query}
	if page := r.URL.Query().Get("page"); page != "" {
		args["page"] = page
	}
	if perPage := r.URL.Query().Get("per_page"); perPage != "" {
		args["perPage"] = perPage
	}
	writeJSON(w, http.StatusOK, s.executor.Execute(r.Context(), "search_repositories", args))
}

func (s *Server) handleRepoStats(w http.ResponseWriter, r *http.Request) {
	result := s.executor.Execute(r.Context(), "get_repo_stats", map[string]any{
		"owner": r.PathValue("owner"),
		"repo":  r.PathValue("repo"),
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{
		"owner": r.PathValue("owner"),
		"repo":  r.PathValue("repo"),
	}
	if state := r.URL.Query().Get("state"); state != "" {
		args["state"] = state
	}
	writeJSON(w, http.StatusOK, s.executor.Execute(r.Context(), "list_issues", args))
}

func (s *Server) handlePulls(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{
		"owner": r.PathValue("owner"),
		"repo":  r.PathValue("repo"),
	}
	if state := r.URL.Query().Get("state"); state != "" {
		args["state"] = state
	}
	writeJSON(w, http.StatusOK, s.executor.Execute(r.Context(), "list_pull_requests", args))
}

func (s *Server) handleFileContents(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{
		"owner": r.PathValue("owner"),
		"repo":  r.PathValue("repo"),
		"path":  r.PathValue("path"),
	}
	if branch := r.URL.Query().Get("branch"); branch != "" {
		args["branch"] = branch
	}
	writeJSON(w, http.StatusOK, s.executor.Execute(r.Context(), "get_file_contents", args))
}

func (s *Server) handleOrganization(w http.ResponseWriter, r *http.Request) {
	result := s.executor.Execute(r.Context(), "get_organization", map[string]any{"org": r.PathValue("org")})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleOrgRepositories(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{"org": r.PathValue("org")}
	query := r.URL.Query()
	if sort := query.Get("sort"); sort != "" {
		args["sort"] = sort
	}
	if repoType := query.Get("type"); repoType != "" {
		args["type"] = repoType
	}
	if perPage := query.Get("per_page"); perPage != "" {
		args["perPage"] = perPage
	}
	writeJSON(w, http.StatusOK, s.executor.Execute(r.Context(), "list_org_repositories", args))
}

type orgAnalyzeRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleOrgAnalyze(w http.ResponseWriter, r *http.Request) {
	var req orgAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeValidationError(w, "Analysis query is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	analysis, err := s.orch.AnalyzeOrganization(r.Context(), r.PathValue("org"), req.Query, req.Limit)
	if err != nil {
		writeJSON(w, http.StatusOK, tools.Result{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tools.Result{Success: true, Data: analysis})
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"crowdfund/internal/crowdfund"
	"crowdfund/internal/models"
	"crowdfund/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = 1 << 20

// handleIndex returns basic service information
// GET / - Returns service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"service":     "Crowdfund Escrow",
		"version":     "1.0.0",
		"description": "Deadline-based crowdfunding escrow with refunds and reward tokens",
		"endpoints": map[string]string{
			"GET /":                                      "This page - Service information",
			"GET /health":                                "Health check endpoint",
			"GET /metrics":                               "Prometheus metrics for monitoring",
			"POST /requests":                             "Submit a request (create_project, contribute, withdraw, refund, mint_reward, ...)",
			"GET /projects":                              "List projects (supports ?limit=, ?offset=)",
			"GET /projects/{id}":                         "Get a project with its current phase",
			"GET /projects/{id}/contributions/{account}": "Get one account's contribution to a project",
			"GET /projects/{id}/rewards/{account}":       "Get the reward token issued to an account",
			"GET /custody":                               "Custody address and balance",
			"GET /activities":                            "Processed requests (supports ?project_id=, ?sender=, ?limit=, ?offset=)",
		},
	}

	s.sendJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
// GET /health - Health check for monitoring systems
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if err := s.repository.Ping(r.Context()); err != nil {
		slog.Warn("Health check failed", "error", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "crowdfund",
	}

	s.sendJSON(w, code, health)
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// =============================================================================
// REQUEST SUBMISSION
// =============================================================================

// handleSubmit runs one request through the host
// POST /requests - 200 with the receipt when accepted; the rejection's status otherwise
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body models.SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.sendError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := body.Validate(); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	receipt, err := s.host.Submit(r.Context(), body.Submission())
	if err != nil {
		slog.Error("Failed to process request", "kind", body.Kind, "sender", body.Sender, "error", err)
		s.sendError(w, "Failed to process request", http.StatusInternalServerError)
		return
	}

	code := http.StatusOK
	if !receipt.Accepted {
		code = StatusForCode(receipt.Code)
	}
	s.sendJSON(w, code, receipt)
}

// =============================================================================
// PROJECT ENDPOINTS
// =============================================================================

// handleListProjects lists projects in creation order
// GET /projects?limit=50&offset=0
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50, 100)
	state := s.host.State()
	now := s.host.Now()

	total, err := crowdfund.ProjectCount(state)
	if err != nil {
		slog.Error("Failed to read project count", "error", err)
		s.sendError(w, "Failed to list projects", http.StatusInternalServerError)
		return
	}

	projects := make([]models.ProjectResponse, 0, limit)
	for id := uint64(offset); id < total && len(projects) < limit; id++ {
		p, err := crowdfund.LoadProject(state, id)
		if err != nil {
			slog.Error("Failed to load project", "project_id", id, "error", err)
			s.sendError(w, "Failed to list projects", http.StatusInternalServerError)
			return
		}
		if p == nil {
			continue
		}
		projects = append(projects, BuildProjectResponse(p, now))
	}

	s.sendJSON(w, http.StatusOK, models.ProjectListResponse{
		Projects: projects,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// handleGetProject retrieves a single project
// GET /projects/{id}
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	s.sendJSON(w, http.StatusOK, BuildProjectResponse(p, s.host.Now()))
}

// handleGetContribution reports one account's position in a project
// GET /projects/{id}/contributions/{account}
func (s *Server) handleGetContribution(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	account := r.PathValue("account")
	if !crowdfund.ValidAccount(account) {
		s.sendError(w, "Invalid account address", http.StatusBadRequest)
		return
	}

	amount, err := crowdfund.ContributionOf(s.host.State(), p.ID, account)
	if err != nil {
		slog.Error("Failed to read contribution", "project_id", p.ID, "account", account, "error", err)
		s.sendError(w, "Failed to read contribution", http.StatusInternalServerError)
		return
	}

	s.sendJSON(w, http.StatusOK, models.ContributionResponse{
		ProjectID:      p.ID,
		Contributor:    account,
		AmountStroops:  amount,
		AmountXLM:      StroopsToXLM(amount),
		RewardEligible: p.TargetReached() && amount >= p.RewardThreshold,
	})
}

// handleGetReward reports the reward token issued to an account, if any
// GET /projects/{id}/rewards/{account}
func (s *Server) handleGetReward(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	account := r.PathValue("account")
	if !crowdfund.ValidAccount(account) {
		s.sendError(w, "Invalid account address", http.StatusBadRequest)
		return
	}

	tokenID, err := crowdfund.RewardOf(s.host.State(), p.ID, account)
	if err != nil {
		slog.Error("Failed to read reward record", "project_id", p.ID, "account", account, "error", err)
		s.sendError(w, "Failed to read reward", http.StatusInternalServerError)
		return
	}

	resp := models.RewardResponse{ProjectID: p.ID, Contributor: account}
	if tokenID != 0 {
		resp.Issued = true
		resp.TokenID = tokenID
		token, err := s.host.Tokens().GetToken(r.Context(), tokenID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			slog.Warn("Reward record points at a missing token", "project_id", p.ID, "token_id", tokenID)
		case err != nil:
			slog.Error("Failed to get reward token", "token_id", tokenID, "error", err)
			s.sendError(w, "Failed to read reward", http.StatusInternalServerError)
			return
		default:
			resp.Token = token
		}
	}

	s.sendJSON(w, http.StatusOK, resp)
}

// =============================================================================
// CUSTODY & ACTIVITY ENDPOINTS
// =============================================================================

// handleCustody reports the custody address and balance
// GET /custody
func (s *Server) handleCustody(w http.ResponseWriter, r *http.Request) {
	balance := s.host.CustodyBalance()
	s.sendJSON(w, http.StatusOK, models.CustodyResponse{
		Address:        s.host.Custody(),
		BalanceStroops: balance,
		BalanceXLM:     StroopsToXLM(balance),
	})
}

// handleListActivities lists processed requests, newest first
// GET /activities?project_id=0&sender=GXXX...&limit=50&offset=0
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 50, 500)
	filter := storage.ActivityFilter{
		Sender: r.URL.Query().Get("sender"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.sendError(w, "Invalid project_id", http.StatusBadRequest)
			return
		}
		filter.ProjectID = &id
	}

	activities, err := s.repository.ListActivities(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to list activities", "error", err)
		s.sendError(w, "Failed to list activities", http.StatusInternalServerError)
		return
	}
	if activities == nil {
		activities = []*models.Activity{}
	}

	s.sendJSON(w, http.StatusOK, models.ActivityListResponse{
		Activities: activities,
		Limit:      limit,
		Offset:     offset,
	})
}

// loadProject resolves {id}, writing the error response itself on failure
func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := parseProjectID(r)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	p, err := crowdfund.LoadProject(s.host.State(), id)
	if err != nil {
		slog.Error("Failed to load project", "project_id", id, "error", err)
		s.sendError(w, "Failed to load project", http.StatusInternalServerError)
		return nil, false
	}
	if p == nil {
		s.sendError(w, "Project not found", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

// sendJSON writes a JSON response with the given status
func (s *Server) sendJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	s.sendJSON(w, code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}

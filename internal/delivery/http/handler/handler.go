package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/site-crawler/internal/delivery/http/request"
	"github.com/user/site-crawler/internal/delivery/http/response"
	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/usecase"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	crawlManager usecase.CrawlManager
	checks       map[string]HealthCheck
}

func NewHandler(crawlManager usecase.CrawlManager, checks map[string]HealthCheck) *Handler {
	return &Handler{
		crawlManager: crawlManager,
		checks:       checks,
	}
}

func (h *Handler) HandleSubmitCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		h.writeJSONError(w, "Invalid URL format", http.StatusBadRequest)
		return
	}

	run, err := h.crawlManager.Submit(r.Context(), req.URL, req.Fresh)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingHost):
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, usecase.ErrCrawlInProgress):
			h.writeJSON(w, http.StatusConflict, response.NewCrawlRunResponse(run))
		case errors.Is(err, usecase.ErrShuttingDown):
			h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		default:
			slog.Error("Failed to submit crawl", "url", req.URL, "error", err)
			h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	resp := response.SubmitCrawlResponse{
		Status:  "success",
		Message: "Crawl started",
		CrawlID: run.ID,
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) HandleGetCrawlRun(w http.ResponseWriter, r *http.Request) {
	crawlID := chi.URLParam(r, "id")

	run, err := h.crawlManager.GetRun(r.Context(), crawlID)
	if err != nil {
		if errors.Is(err, usecase.ErrUnknownCrawl) {
			h.writeJSONError(w, "Crawl not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get crawl run", "crawl_id", crawlID, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewCrawlRunResponse(run))
}

func (h *Handler) HandleGetPageStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeJSONError(w, "URL query parameter is required", http.StatusBadRequest)
		return
	}

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		h.writeJSONError(w, "Invalid URL format in query parameter", http.StatusBadRequest)
		return
	}

	status, err := h.crawlManager.GetPageStatus(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, usecase.ErrResultsDisabled) {
			h.writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		slog.Error("Failed to get page status", "url", rawURL, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if status.CurrentStatus == entity.PageNotFound {
		h.writeJSONError(w, "Crawl status not found for the given URL", http.StatusNotFound)
		return
	}

	resp := response.PageStatusResponse{
		URL:                status.URL,
		CurrentStatus:      status.CurrentStatus,
		LinkCount:          status.LinkCount,
		Links:              status.Links,
		LastCrawlTimestamp: status.LastCrawlTimestamp,
		FailureReason:      status.FailureReason,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok"}
	code := http.StatusOK
	if len(h.checks) > 0 {
		resp.Components = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			slog.Error("Health check failed", "component", name, "error", err)
			resp.Components[name] = "unhealthy"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "healthy"
	}
	h.writeJSON(w, code, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

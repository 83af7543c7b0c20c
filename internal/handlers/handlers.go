package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contest-notifier/internal/aggregator"
	"github.com/contest-notifier/internal/cleanup"
	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/query"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/internal/storage"
	"github.com/contest-notifier/pkg/logger"
)

// Version is reported by the root banner and health endpoints
const Version = "1.0.0"

// Handler holds the services the HTTP surface delegates to. The cleanup
// service and repository are nil in cache-only deployments; the endpoints
// that need them report 503 in that case.
type Handler struct {
	query      *query.Service
	manager    *scraper.Manager
	aggregator *aggregator.Service
	cleanup    *cleanup.Service
	repo       storage.Repository
	log        *logger.Logger
	startedAt  time.Time
}

// New creates a new HTTP handler; cleanupSvc and repo may be nil
func New(q *query.Service, m *scraper.Manager, agg *aggregator.Service, cleanupSvc *cleanup.Service, repo storage.Repository, log *logger.Logger) *Handler {
	return &Handler{
		query:      q,
		manager:    m,
		aggregator: agg,
		cleanup:    cleanupSvc,
		repo:       repo,
		log:        log.WithComponent("http"),
		startedAt:  time.Now(),
	}
}

// Root returns a service banner with the available endpoints
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Contest Notifier API",
		"version": Version,
		"endpoints": map[string]string{
			"contests":  "/api/contests",
			"live":      "/api/contests/live",
			"upcoming":  "/api/contests/upcoming",
			"platforms": "/api/contests/platforms",
			"stats":     "/api/contests/stats/summary",
			"scrape":    "/api/scraper/{platform}",
			"health":    "/health",
		},
	})
}

// Health reports service liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// GetContests returns the aggregated contest list, filtered by the
// platform, status and limit query parameters. Filters that match
// nothing return an empty list rather than an error.
func (h *Handler) GetContests(w http.ResponseWriter, r *http.Request) {
	filter := query.Filter{
		Platform: r.URL.Query().Get("platform"),
		Status:   r.URL.Query().Get("status"),
		Limit:    parseIntParam(r, "limit", query.DefaultLimit),
	}

	contests := h.query.ListAll(r.Context(), filter)
	h.respondList(w, contests)
}

// GetLiveContests returns contests running right now
func (h *Handler) GetLiveContests(w http.ResponseWriter, r *http.Request) {
	contests := h.query.ListLive(r.Context(), r.URL.Query().Get("platform"))
	h.respondList(w, contests)
}

// GetUpcomingContests returns future contests, optionally bounded to the
// next week or month via the range query parameter
func (h *Handler) GetUpcomingContests(w http.ResponseWriter, r *http.Request) {
	rng := query.Range(r.URL.Query().Get("range"))
	switch rng {
	case query.RangeAll, query.RangeWeek, query.RangeMonth:
	default:
		// Unknown ranges fall back to the unbounded listing
		rng = query.RangeAll
	}

	contests := h.query.ListUpcoming(r.Context(), rng, r.URL.Query().Get("platform"))
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(contests),
		"range":   string(rng),
		"data":    emptyAsSlice(contests),
	})
}

// GetPlatforms returns the distinct platforms present in the aggregated set
func (h *Handler) GetPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms := h.query.Platforms(r.Context())
	if platforms == nil {
		platforms = []string{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(platforms),
		"data":    platforms,
	})
}

// GetStats summarizes the aggregated set by status and platform. When the
// persistent store is enabled its counts are included alongside.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, byPlatform := h.query.Stats(r.Context())

	payload := map[string]interface{}{
		"success":    true,
		"stats":      stats,
		"byPlatform": byPlatform,
	}

	if h.repo != nil {
		dbStats, err := h.repo.Stats(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to collect database stats")
		} else {
			payload["database"] = dbStats
		}
	}

	h.respondJSON(w, http.StatusOK, payload)
}

// TriggerScraper runs a single platform's scraper on demand and returns
// its raw result without touching the cache
func (h *Handler) TriggerScraper(w http.ResponseWriter, r *http.Request) {
	platform := strings.ToLower(chi.URLParam(r, "platform"))
	if !models.ValidPlatform(platform) {
		h.respondError(w, http.StatusBadRequest, "Unknown platform", nil)
		return
	}

	s := h.manager.Get(models.Platform(platform))
	if s == nil {
		h.respondError(w, http.StatusNotFound, "No scraper registered for platform", nil)
		return
	}

	contests, err := s.Scrape(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Scrape failed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"platform": platform,
		"count":    len(contests),
		"data":     emptyAsSlice(contests),
	})
}

// TriggerAllScrapers runs a full scrape cycle across every platform and
// republishes the cache snapshot
func (h *Handler) TriggerAllScrapers(w http.ResponseWriter, r *http.Request) {
	result := h.aggregator.Run(r.Context())
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": result.Succeeded > 0,
		"summary": map[string]int{
			"totalContests": result.Total,
			"succeeded":     result.Succeeded,
			"failed":        result.Failed,
		},
		"platforms": result.Platforms,
	})
}

// TriggerCleanup runs the full cleanup pipeline against the persistent store
func (h *Handler) TriggerCleanup(w http.ResponseWriter, r *http.Request) {
	if h.cleanup == nil {
		h.respondError(w, http.StatusServiceUnavailable, "Database is not enabled", nil)
		return
	}

	result := h.cleanup.FullCleanup(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	h.respondJSON(w, status, result)
}

// ScraperStatus reports per-platform counts from the persistent store
func (h *Handler) ScraperStatus(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.respondError(w, http.StatusServiceUnavailable, "Database is not enabled", nil)
		return
	}

	counts, err := h.repo.CountByPlatform(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to read scraper status", err)
		return
	}

	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to read scraper status", err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"stats":      stats,
		"byPlatform": counts,
	})
}

// respondList writes the standard list envelope
func (h *Handler) respondList(w http.ResponseWriter, contests []models.Contest) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(contests),
		"data":    emptyAsSlice(contests),
	})
}

// respondJSON writes a JSON response with the given status code
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes the standard error envelope
func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	payload := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	h.respondJSON(w, status, payload)
}

// parseIntParam reads an integer query parameter, falling back to a
// default for missing or malformed values
func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// emptyAsSlice keeps empty results serializing as [] instead of null
func emptyAsSlice(contests []models.Contest) []models.Contest {
	if contests == nil {
		return []models.Contest{}
	}
	return contests
}

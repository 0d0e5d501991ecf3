package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sitesmith/ai-gateway/internal/errors"
	"github.com/sitesmith/ai-gateway/internal/logger"
)

const (
	defaultUsageLimit = 20
	maxUsageLimit     = 100
	defaultUsageSince = 24 * time.Hour
)

// HandleUsage reports recorded generation activity
// @Summary      Usage report
// @Description  Returns per-capability request counts and recent generation records; a request_id query returns the single matching record
// @Tags         discovery
// @Produce      json
// @Param        request_id   query  string  false  "Look up the record for one request"
// @Param        limit        query  int     false  "Maximum recent entries (default 20, max 100)"
// @Param        offset       query  int     false  "Pagination offset into recent entries"
// @Param        since_hours  query  int     false  "Counting window in hours (default 24)"
// @Success      200  {object}  map[string]interface{}  "Usage report"
// @Failure      404  {object}  errors.ErrorResponse  "Unknown request ID"
// @Failure      503  {object}  errors.ErrorResponse  "Usage reporting requires a database"
// @Router       /v1/usage [get]
func (h *Handlers) HandleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := logger.WithComponent(r.Context(), "RequestGateway")

	if h.logs == nil {
		errors.HandleError(w, errors.NewConfigurationError("usage reporting requires a configured database"), http.StatusServiceUnavailable)
		return
	}

	if requestID := r.URL.Query().Get("request_id"); requestID != "" {
		entry, err := h.logs.GetByRequestID(ctx, requestID)
		if err != nil {
			logger.Error(ctx, "Failed to load generation record", err, "request_id", requestID)
			errors.HandleError(w, errors.NewInternalError("failed to load the usage record"), http.StatusInternalServerError)
			return
		}
		if entry == nil {
			errors.HandleError(w, errors.NewValidationError(fmt.Sprintf("no generation recorded for request %s", requestID)), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, entry)
		return
	}

	limit := queryInt(r, "limit", defaultUsageLimit)
	if limit < 1 || limit > maxUsageLimit {
		limit = defaultUsageLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	since := time.Now().Add(-defaultUsageSince)
	if hours := queryInt(r, "since_hours", 0); hours > 0 {
		since = time.Now().Add(-time.Duration(hours) * time.Hour)
	}

	counts, err := h.logs.CountByCapability(ctx, since)
	if err != nil {
		logger.Error(ctx, "Failed to aggregate usage counts", err)
		errors.HandleError(w, errors.NewInternalError("failed to aggregate usage counts"), http.StatusInternalServerError)
		return
	}

	recent, err := h.logs.GetRecent(ctx, int64(limit), int64(offset))
	if err != nil {
		logger.Error(ctx, "Failed to load recent generation records", err)
		errors.HandleError(w, errors.NewInternalError("failed to load recent usage records"), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"since":  since.UTC().Format(time.RFC3339),
		"counts": counts,
		"recent": recent,
	})
}

// queryInt parses an optional integer query parameter, keeping the fallback
// on absent or unparseable values
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

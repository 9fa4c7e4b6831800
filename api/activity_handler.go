package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type activityHandler struct {
	responder       Responder
	logger          zerolog.Logger
	activityLogRepo *database.ActivityLogRepo
}

func newActivityHandler(activityLogRepo *database.ActivityLogRepo) activityHandler {
	logger := log.With().Str("handlerName", "activityHandler").Logger()

	return activityHandler{
		responder:       NewResponder(logger),
		logger:          logger,
		activityLogRepo: activityLogRepo,
	}
}

// getActivity lists recent activity, newest first
// @Summary List activity
// @Tags Activity
// @Produce json
// @Param limit query int false "Entries to return (default 50, max 500)"
// @Success 200 {array} models.ActivityLog
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid limit"
// @Router /api/activity [get]
func (h activityHandler) getActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultActivityLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				h.responder.WriteError(w, errs.NewInvalidFieldError("limit", "must be a positive integer"))
				return
			}
			limit = min(n, maxActivityLimit)
		}

		entries, err := h.activityLogRepo.List(r.Context(), limit)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list", "activity", err))
			return
		}
		h.responder.WriteJSON(w, entries)
	}
}

// clearActivity deletes the whole log
// @Summary Clear activity
// @Tags Activity
// @Produce json
// @Success 200 {object} CountResponse
// @Router /api/activity [delete]
func (h activityHandler) clearActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.activityLogRepo.Clear(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewTransactionFailedError("clear activity log", err))
			return
		}
		h.logger.Info().Int64("count", count).Msg("activity log cleared")
		h.responder.WriteJSON(w, CountResponse{Count: count})
	}
}

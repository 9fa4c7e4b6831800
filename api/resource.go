package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

// orderedRecord is implemented by the pointer types of the ordered content
// models (skills, experience, education, services).
type orderedRecord[T any] interface {
	*T
	GetID() uuid.UUID
	Label() string
	GetOrder() int
	SetOrder(order int)
	OrderScope() map[string]any
	ResetIdentity()
}

// patch is the partial-update payload of T.
type patch[T any] interface {
	Updates(existing T) map[string]any
}

// resource serves the admin CRUD and public list endpoints of one ordered
// content type. T is the model, PT its pointer and P its patch payload.
type resource[T any, PT orderedRecord[T], P patch[T]] struct {
	responder  Responder
	logger     zerolog.Logger
	repo       *database.Repo[T]
	activity   activityRecorder
	entityType string
	filters    []string
	newRecord  func() T
}

func newResource[T any, PT orderedRecord[T], P patch[T]](entityType string, repo *database.Repo[T], activityRepo *database.ActivityLogRepo, newRecord func() T, filters ...string) resource[T, PT, P] {
	logger := log.With().Str("handlerName", entityType+"Handler").Logger()

	return resource[T, PT, P]{
		responder:  NewResponder(logger),
		logger:     logger,
		repo:       repo,
		activity:   newActivityRecorder(activityRepo, logger),
		entityType: entityType,
		filters:    filters,
		newRecord:  newRecord,
	}
}

func (h resource[T, PT, P]) queryFilters(r *http.Request) map[string]any {
	filters := map[string]any{}
	for _, name := range h.filters {
		if v := r.URL.Query().Get(name); v != "" {
			filters[name] = v
		}
	}
	return filters
}

// list returns every record, optionally filtered by the configured query params
// @Summary List records
// @Tags Content
// @Produce json
// @Success 200 {array} object
// @Failure 401 {object} ErrorResponse
// @Router /api/{entity} [get]
func (h resource[T, PT, P]) list() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.repo.FindAll(r.Context(), h.queryFilters(r), false)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list", h.entityType+"s", err))
			return
		}
		h.responder.WriteJSON(w, records)
	}
}

// listPublic returns only visible records
// @Summary List visible records
// @Tags Public
// @Produce json
// @Success 200 {array} object
// @Router /api/public/{entity} [get]
func (h resource[T, PT, P]) listPublic() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.repo.FindAll(r.Context(), h.queryFilters(r), true)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("list", h.entityType+"s", err))
			return
		}
		h.responder.WriteJSON(w, records)
	}
}

// get returns one record
// @Summary Get record
// @Tags Content
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid id"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /api/{entity}/{id} [get]
func (h resource[T, PT, P]) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		record, err := h.repo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", h.entityType, err))
			return
		}
		if record == nil {
			h.responder.WriteError(w, errs.NewNotFound(h.entityType))
			return
		}
		h.responder.WriteJSON(w, record)
	}
}

// create validates and stores a new record. When order is omitted it goes
// after the last record of its scope.
// @Summary Create record
// @Tags Content
// @Accept json
// @Produce json
// @Success 201 {object} object
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors"
// @Router /api/{entity} [post]
func (h resource[T, PT, P]) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record := h.newRecord()
		body, err := decodeJSON(w, r, PT(&record))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		PT(&record).ResetIdentity()

		if fields := validateStruct(record); !fields.Empty() {
			h.responder.WriteError(w, fields.Err())
			return
		}

		if !hasKey(body, "order") {
			next, err := h.repo.NextOrder(r.Context(), PT(&record).OrderScope())
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("compute order for", h.entityType, err))
				return
			}
			PT(&record).SetOrder(next)
		}

		if err := h.repo.Add(r.Context(), &record); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", h.entityType, err))
			return
		}

		id := PT(&record).GetID()
		h.activity.record(r.Context(), models.ActionCreate, h.entityType, &id,
			fmt.Sprintf("Created %s %q", h.entityType, PT(&record).Label()),
			map[string]any{"order": PT(&record).GetOrder()})
		h.responder.WriteJSONStatus(w, http.StatusCreated, record)
	}
}

// update applies a partial payload; absent keys are left unchanged
// @Summary Update record
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Success 200 {object} object
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /api/{entity}/{id} [put]
func (h resource[T, PT, P]) update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.repo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", h.entityType, err))
			return
		}
		if existing == nil {
			h.responder.WriteError(w, errs.NewNotFound(h.entityType))
			return
		}

		var p P
		if _, err := decodeJSON(w, r, &p); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if fields := validateStruct(p); !fields.Empty() {
			h.responder.WriteError(w, fields.Err())
			return
		}

		updates := p.Updates(*existing)
		updated, err := h.repo.Updates(r.Context(), id, updates)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", h.entityType, err))
			return
		}
		if updated == nil {
			h.responder.WriteError(w, errs.NewNotFound(h.entityType))
			return
		}

		h.activity.record(r.Context(), models.ActionUpdate, h.entityType, &id,
			fmt.Sprintf("Updated %s %q", h.entityType, PT(updated).Label()),
			map[string]any{"fields": updateKeys(updates)})
		h.responder.WriteJSON(w, updated)
	}
}

// remove deletes one record
// @Summary Delete record
// @Tags Content
// @Param id path string true "Record ID" format(uuid)
// @Success 200 {object} CountResponse
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /api/{entity}/{id} [delete]
func (h resource[T, PT, P]) remove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.repo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", h.entityType, err))
			return
		}
		if existing == nil {
			h.responder.WriteError(w, errs.NewNotFound(h.entityType))
			return
		}

		count, err := h.repo.Delete(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", h.entityType, err))
			return
		}

		label := PT(existing).Label()
		h.activity.record(r.Context(), models.ActionDelete, h.entityType, &id,
			fmt.Sprintf("Deleted %s %q", h.entityType, label),
			map[string]any{"label": label})
		h.responder.WriteJSON(w, CountResponse{Count: count})
	}
}

// bulkRemove deletes every listed record in one transaction
// @Summary Bulk delete records
// @Tags Content
// @Accept json
// @Param body body BulkDeleteRequest true "IDs to delete"
// @Success 200 {object} CountResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or invalid ids"
// @Router /api/{entity}/bulk [delete]
func (h resource[T, PT, P]) bulkRemove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := decodeBulkIDs(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		count, err := h.repo.DeleteMany(r.Context(), ids)
		if err != nil {
			h.responder.WriteError(w, errs.NewTransactionFailedError("bulk delete", err))
			return
		}

		h.activity.record(r.Context(), models.ActionBulkDelete, h.entityType, nil,
			fmt.Sprintf("Deleted %d %s records", count, h.entityType),
			map[string]any{"ids": ids, "count": count})
		h.responder.WriteJSON(w, CountResponse{Count: count})
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewMissingRequiredFieldError(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewBadRequestErrorWithField("invalid "+name, name, "must be a UUID")
	}
	return id, nil
}

// decodeBulkIDs reads a BulkDeleteRequest and rejects an empty or malformed
// id list.
func decodeBulkIDs(w http.ResponseWriter, r *http.Request) ([]uuid.UUID, error) {
	var req BulkDeleteRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if len(req.IDs) == 0 {
		return nil, errs.NewValidationError([]errs.FieldError{{Field: "ids", Message: "at least one id is required"}})
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	var fields errs.FieldErrors
	for i, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			fields.Add(fmt.Sprintf("ids[%d]", i), "must be a UUID")
			continue
		}
		ids = append(ids, id)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// hasKey reports whether the top-level JSON object in body carries key.
func hasKey(body []byte, key string) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return false
	}
	v, ok := keys[key]
	return ok && string(v) != "null"
}

func updateKeys(updates map[string]any) []string {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

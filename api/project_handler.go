package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

const projectEntity = "project"

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
	activity    activityRecorder
	now         func() time.Time
}

func newProjectHandler(projectRepo *database.ProjectRepo, activityRepo *database.ActivityLogRepo) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
		activity:    newActivityRecorder(activityRepo, logger),
		now:         time.Now,
	}
}

// getAllProjects retrieves all projects with their images
// @Summary Get all projects
// @Description Retrieves all projects, newest first, optionally filtered by category, featured or published
// @Tags Projects
// @Produce json
// @Param category query string false "web, game, mobile or tool"
// @Param featured query bool false "Only featured (true) or non-featured (false) projects"
// @Param published query bool false "Only published (true) or draft (false) projects"
// @Success 200 {array} models.Project "List of projects"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid filter"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := database.ProjectFilter{Category: r.URL.Query().Get("category")}
		var err error
		if filter.Featured, err = boolQuery(r, "featured"); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if filter.Published, err = boolQuery(r, "published"); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		projects, err := h.projectRepo.FindAll(r.Context(), filter)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "projects", err))
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// getProject retrieves a specific project by ID with its images
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} models.Project "Project details with images"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid id"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{id} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseIDParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", projectEntity, err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFound(projectEntity))
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// createProject creates a new project and its image gallery
// @Summary Create project
// @Tags Projects
// @Accept json
// @Produce json
// @Param project body models.ProjectInput true "Project data"
// @Success 201 {object} models.Project "Created project with images"
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors or slug already in use"
// @Router /api/projects [post]
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input models.ProjectInput
		if _, err := decodeJSON(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		input.Project.ResetIdentity()

		if fields := validateStruct(input); !fields.Empty() {
			h.responder.WriteError(w, fields.Err())
			return
		}
		if err := h.checkSlug(r, input.Slug, uuid.Nil); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project := input.ToProject(h.now())
		if err := h.projectRepo.Add(r.Context(), &project, input.Images); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", projectEntity, err))
			return
		}

		h.activity.record(r.Context(), models.ActionCreate, projectEntity, &project.ID,
			fmt.Sprintf("Created project %q", project.Label()), nil)
		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

// updateProject applies a partial update. A present images key replaces the
// whole gallery.
// @Summary Update project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID" format(uuid)
// @Param project body models.ProjectPatch true "Changed fields"
// @Success 200 {object} models.Project "Updated project"
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors or slug already in use"
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{id} [put]
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseIDParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", projectEntity, err))
			return
		}
		if existing == nil {
			h.responder.WriteError(w, errs.NewNotFound(projectEntity))
			return
		}

		var patch models.ProjectPatch
		if _, err := decodeJSON(w, r, &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if fields := validateStruct(patch); !fields.Empty() {
			h.responder.WriteError(w, fields.Err())
			return
		}
		if patch.Slug != nil && *patch.Slug != existing.Slug {
			if err := h.checkSlug(r, *patch.Slug, projectID); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		updates := patch.Updates(*existing, h.now())
		updated, err := h.projectRepo.Update(r.Context(), projectID, updates, patch.Images)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", projectEntity, err))
			return
		}
		if updated == nil {
			h.responder.WriteError(w, errs.NewNotFound(projectEntity))
			return
		}

		fields := updateKeys(updates)
		if patch.Images != nil {
			fields = append(fields, "images")
		}
		h.activity.record(r.Context(), models.ActionUpdate, projectEntity, &projectID,
			fmt.Sprintf("Updated project %q", updated.Label()),
			map[string]any{"fields": fields})
		h.responder.WriteJSON(w, updated)
	}
}

// deleteProject removes a project and its images
// @Summary Delete project
// @Tags Projects
// @Param id path string true "Project ID" format(uuid)
// @Success 200 {object} CountResponse
// @Failure 404 {object} ErrorResponse "Not Found - Project not found"
// @Router /api/projects/{id} [delete]
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := parseIDParam(r, "id")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		existing, err := h.projectRepo.FindByID(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", projectEntity, err))
			return
		}
		if existing == nil {
			h.responder.WriteError(w, errs.NewNotFound(projectEntity))
			return
		}

		count, err := h.projectRepo.Delete(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, errs.NewTransactionFailedError("delete project", err))
			return
		}

		h.activity.record(r.Context(), models.ActionDelete, projectEntity, &projectID,
			fmt.Sprintf("Deleted project %q", existing.Label()),
			map[string]any{"slug": existing.Slug, "title": existing.Title})
		h.responder.WriteJSON(w, CountResponse{Count: count})
	}
}

// bulkDeleteProjects removes the listed projects in one transaction
// @Summary Bulk delete projects
// @Tags Projects
// @Accept json
// @Param body body BulkDeleteRequest true "IDs to delete"
// @Success 200 {object} CountResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or invalid ids"
// @Router /api/projects/bulk [delete]
func (h projectHandler) bulkDeleteProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := decodeBulkIDs(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		count, err := h.projectRepo.DeleteMany(r.Context(), ids)
		if err != nil {
			h.responder.WriteError(w, errs.NewTransactionFailedError("bulk delete projects", err))
			return
		}

		h.activity.record(r.Context(), models.ActionBulkDelete, projectEntity, nil,
			fmt.Sprintf("Deleted %d projects", count),
			map[string]any{"ids": ids, "count": count})
		h.responder.WriteJSON(w, CountResponse{Count: count})
	}
}

// getPublishedProjects lists published projects, featured first
// @Summary List published projects
// @Tags Public
// @Produce json
// @Param category query string false "web, game, mobile or tool"
// @Success 200 {array} models.Project
// @Router /api/public/projects [get]
func (h projectHandler) getPublishedProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projectRepo.FindPublished(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "projects", err))
			return
		}
		h.responder.WriteJSON(w, projects)
	}
}

// getPublishedProject returns one published project by slug
// @Summary Get published project
// @Tags Public
// @Produce json
// @Param slug path string true "Project slug"
// @Success 200 {object} models.Project
// @Failure 404 {object} ErrorResponse "Not Found - No published project with this slug"
// @Router /api/public/projects/{slug} [get]
func (h projectHandler) getPublishedProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		project, err := h.projectRepo.FindBySlug(r.Context(), slug, true)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", projectEntity, err))
			return
		}
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFound(projectEntity))
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

// checkSlug rejects a slug that another project already uses.
func (h projectHandler) checkSlug(r *http.Request, slug string, exclude uuid.UUID) error {
	taken, err := h.projectRepo.SlugTaken(r.Context(), slug, exclude)
	if err != nil {
		return wrapDatabaseError("check slug of", projectEntity, err)
	}
	if taken {
		return errs.NewConflictError("slug", fmt.Sprintf("slug %q is already used by another project", slug))
	}
	return nil
}

func boolQuery(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errs.NewInvalidFieldError(name, "must be true or false")
	}
	return &v, nil
}

package api

import (
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler     authHandler
	profileHandler  profileHandler
	projectHandler  projectHandler
	skills          resource[models.Skill, *models.Skill, models.SkillPatch]
	experience      resource[models.WorkExperience, *models.WorkExperience, models.WorkExperiencePatch]
	education       resource[models.Education, *models.Education, models.EducationPatch]
	services        resource[models.Service, *models.Service, models.ServicePatch]
	settingsHandler settingsHandler
	uploadHandler   uploadHandler
	activityHandler activityHandler
	contactHandler  contactHandler
	publicHandler   publicHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string            `json:"error" example:"Internal Server Error"`
	Status  string            `json:"status" example:"error"`
	Field   string            `json:"field,omitempty" example:"title"`
	Details string            `json:"details,omitempty" example:"Additional error details"`
	Errors  []errs.FieldError `json:"errors,omitempty"`
}

// BulkDeleteRequest lists the records to delete in one transaction
// @Description Bulk delete payload
type BulkDeleteRequest struct {
	IDs []string `json:"ids" example:"3f0e8f6e-6a43-4a43-9d55-1f0c3b8f7a11"`
}

// CountResponse reports how many records an operation touched
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
	Uptime   string `json:"uptime" example:"1h2m3s"`
}

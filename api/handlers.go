package api

import (
	"github.com/rpupo63/portfolio-cms-backend/config"
	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, cfg map[string]string, deps Dependencies, m *metrics) *routeHandlers {
	activityRepo := db.ActivityLogRepo()

	return &routeHandlers{
		authHandler:    newAuthHandler(db.UserRepo(), activityRepo, deps.Tokens, config.GetBool(cfg, "COOKIE_SECURE", false)),
		profileHandler: newProfileHandler(db.UserRepo(), activityRepo),
		projectHandler: newProjectHandler(db.ProjectRepo(), activityRepo),
		skills: newResource[models.Skill, *models.Skill, models.SkillPatch](
			"skill", db.SkillRepo(), activityRepo,
			func() models.Skill { return models.Skill{Visible: true} },
			"category",
		),
		experience: newResource[models.WorkExperience, *models.WorkExperience, models.WorkExperiencePatch](
			"experience", db.ExperienceRepo(), activityRepo,
			func() models.WorkExperience {
				return models.WorkExperience{Visible: true, Technologies: models.StringList{}}
			},
		),
		education: newResource[models.Education, *models.Education, models.EducationPatch](
			"education", db.EducationRepo(), activityRepo,
			func() models.Education {
				return models.Education{Visible: true, Achievements: models.StringList{}}
			},
		),
		services: newResource[models.Service, *models.Service, models.ServicePatch](
			"service", db.ServiceRepo(), activityRepo,
			func() models.Service { return models.Service{Visible: true, Features: models.StringList{}} },
		),
		settingsHandler: newSettingsHandler(db.SettingsRepo(), activityRepo),
		uploadHandler:   newUploadHandler(deps.Store, activityRepo, m),
		activityHandler: newActivityHandler(activityRepo),
		contactHandler: newContactHandler(db.SettingsRepo(), deps.Email, deps.SMS,
			config.GetString(cfg, "CONTACT_EMAIL", ""), m),
		publicHandler: newPublicHandler(db),
	}
}

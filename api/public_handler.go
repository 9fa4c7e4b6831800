package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

// PortfolioResponse is everything the public site renders, in one document
type PortfolioResponse struct {
	Settings   *models.SiteSettings     `json:"settings"`
	Projects   []*models.Project        `json:"projects"`
	Skills     []*models.Skill          `json:"skills"`
	Experience []*models.WorkExperience `json:"experience"`
	Education  []*models.Education      `json:"education"`
	Services   []*models.Service        `json:"services"`
}

type publicHandler struct {
	responder Responder
	logger    zerolog.Logger
	database  database.Database
}

func newPublicHandler(db database.Database) publicHandler {
	logger := log.With().Str("handlerName", "publicHandler").Logger()

	return publicHandler{
		responder: NewResponder(logger),
		logger:    logger,
		database:  db,
	}
}

// getPortfolio loads settings and every visible collection concurrently
// @Summary Get the whole public portfolio
// @Tags Public
// @Produce json
// @Success 200 {object} PortfolioResponse
// @Router /api/public/portfolio [get]
func (h publicHandler) getPortfolio() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out PortfolioResponse
		g, ctx := errgroup.WithContext(r.Context())

		g.Go(func() (err error) {
			out.Settings, err = h.database.SettingsRepo().Get(ctx)
			return err
		})
		g.Go(func() (err error) {
			out.Projects, err = h.database.ProjectRepo().FindPublished(ctx, "")
			return err
		})
		g.Go(func() (err error) {
			out.Skills, err = h.database.SkillRepo().FindAll(ctx, nil, true)
			return err
		})
		g.Go(func() (err error) {
			out.Experience, err = h.database.ExperienceRepo().FindAll(ctx, nil, true)
			return err
		})
		g.Go(func() (err error) {
			out.Education, err = h.database.EducationRepo().FindAll(ctx, nil, true)
			return err
		})
		g.Go(func() (err error) {
			out.Services, err = h.database.ServiceRepo().FindAll(ctx, nil, true)
			return err
		})

		if err := g.Wait(); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("load", "portfolio", err))
			return
		}
		h.responder.WriteJSON(w, out)
	}
}

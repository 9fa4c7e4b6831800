package api

import (
	"net/http"
	"net/mail"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

const settingsEntity = "site settings"

type settingsHandler struct {
	responder    Responder
	logger       zerolog.Logger
	settingsRepo *database.SettingsRepo
	activity     activityRecorder
}

func newSettingsHandler(settingsRepo *database.SettingsRepo, activityRepo *database.ActivityLogRepo) settingsHandler {
	logger := log.With().Str("handlerName", "settingsHandler").Logger()

	return settingsHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		settingsRepo: settingsRepo,
		activity:     newActivityRecorder(activityRepo, logger),
	}
}

// getSettings returns the site settings, creating defaults on first read
// @Summary Get site settings
// @Tags Settings
// @Produce json
// @Success 200 {object} models.SiteSettings
// @Router /api/settings [get]
// @Router /api/public/settings [get]
func (h settingsHandler) getSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := h.settingsRepo.Get(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("load", settingsEntity, err))
			return
		}
		h.responder.WriteJSON(w, settings)
	}
}

// updateSettings applies a partial update to the singleton row
// @Summary Update site settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body models.SiteSettingsPatch true "Changed fields"
// @Success 200 {object} models.SiteSettings
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors"
// @Router /api/settings [put]
func (h settingsHandler) updateSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch models.SiteSettingsPatch
		if _, err := decodeJSON(w, r, &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		fields := validateStruct(patch)
		if patch.ContactEmail != nil && *patch.ContactEmail != "" {
			if _, err := mail.ParseAddress(*patch.ContactEmail); err != nil {
				fields.Add("contactEmail", "must be a valid email address")
			}
		}
		if patch.SocialLinks != nil {
			for network, link := range *patch.SocialLinks {
				if link != "" && !isURLish(link) {
					fields.Add("socialLinks."+network, "must be an http(s) URL")
				}
			}
		}
		if err := fields.Err(); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		updates := patch.Updates()
		settings, err := h.settingsRepo.Update(r.Context(), updates)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", settingsEntity, err))
			return
		}

		h.activity.record(r.Context(), models.ActionUpdate, "settings", nil,
			"Updated site settings", map[string]any{"fields": updateKeys(updates)})
		h.responder.WriteJSON(w, settings)
	}
}

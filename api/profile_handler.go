package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/auth"
	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

type profileHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
	activity  activityRecorder
}

func newProfileHandler(userRepo *database.UserRepo, activityRepo *database.ActivityLogRepo) profileHandler {
	logger := log.With().Str("handlerName", "profileHandler").Logger()

	return profileHandler{
		responder: NewResponder(logger),
		logger:    logger,
		userRepo:  userRepo,
		activity:  newActivityRecorder(activityRepo, logger),
	}
}

// getProfile returns the signed-in user
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/profile [get]
func (h profileHandler) getProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, user)
	}
}

// updateProfile changes name, email or password of the signed-in user.
// A password change needs the current password.
// @Summary Update profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param profile body models.ProfilePatch true "Changed fields"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors or email in use"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/profile [put]
func (h profileHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var patch models.ProfilePatch
		if _, err := decodeJSON(w, r, &patch); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if fields := validateStruct(patch); !fields.Empty() {
			h.responder.WriteError(w, fields.Err())
			return
		}

		updates := map[string]any{}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Email != nil {
			email := models.NormalizeEmail(*patch.Email)
			if email != user.Email {
				other, err := h.userRepo.FindByEmail(r.Context(), email)
				if err != nil {
					h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
					return
				}
				if other != nil {
					h.responder.WriteError(w, errs.NewAlreadyExists("user", "email"))
					return
				}
				updates["email"] = email
			}
		}
		if patch.NewPassword != nil {
			if !auth.CheckPassword(user.PasswordHash, patch.CurrentPassword) {
				h.responder.WriteValidationError(w, "currentPassword", "is incorrect")
				return
			}
			hash, err := auth.HashPassword(*patch.NewPassword)
			if err != nil {
				if errors.Is(err, auth.ErrPasswordTooLong) {
					h.responder.WriteValidationError(w, "newPassword", "must be at most 72 bytes")
					return
				}
				h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not hash password", err))
				return
			}
			updates["password_hash"] = hash
		}

		if len(updates) == 0 {
			h.responder.WriteJSON(w, user)
			return
		}

		updated, err := h.userRepo.Updates(r.Context(), user.ID, updates)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "user", err))
			return
		}

		fields := updateKeys(updates)
		for i, f := range fields {
			if f == "password_hash" {
				fields[i] = "password"
			}
		}
		h.activity.record(r.Context(), models.ActionUpdate, "user", &user.ID, "Updated profile",
			map[string]any{"fields": fields})
		h.responder.WriteJSON(w, updated)
	}
}

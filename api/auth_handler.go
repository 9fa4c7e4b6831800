package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/auth"
	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

type authHandler struct {
	responder    Responder
	logger       zerolog.Logger
	userRepo     *database.UserRepo
	activity     activityRecorder
	tokens       *auth.Tokens
	secureCookie bool
}

func newAuthHandler(userRepo *database.UserRepo, activityRepo *database.ActivityLogRepo, tokens *auth.Tokens, secureCookie bool) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		userRepo:     userRepo,
		activity:     newActivityRecorder(activityRepo, logger),
		tokens:       tokens,
		secureCookie: secureCookie,
	}
}

// LoginRequest holds admin credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"notblank,email"`
	Password string `json:"password" validate:"notblank"`
}

// SessionResponse is returned by login and session lookups
type SessionResponse struct {
	User      models.User `json:"user"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt *time.Time  `json:"expiresAt,omitempty"`
}

// login checks credentials and starts a session
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Email and password"
// @Success 200 {object} SessionResponse "Session cookie set; token also returned for Bearer use"
// @Failure 400 {object} ErrorResponse "Bad Request - Validation errors"
// @Failure 401 {object} ErrorResponse "Unauthorized - Invalid credentials"
// @Failure 429 {object} ErrorResponse "Too Many Requests"
// @Router /api/auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if _, err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if fields := validateStruct(req); !fields.Empty() {
			h.responder.WriteError(w, fields.Err())
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), req.Email)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			h.logger.Info().Str("email", models.NormalizeEmail(req.Email)).Str("ip", clientIP(r)).Msg("failed login")
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		token, expires, err := h.tokens.Issue(user.ID, user.Email)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not start session", err))
			return
		}
		cookie := h.sessionCookie(token, expires)
		cookie.MaxAge = int(h.tokens.TTL().Seconds())
		http.SetCookie(w, cookie)

		ctx := ctxWithUserID(r.Context(), user.ID)
		h.activity.record(ctx, models.ActionLogin, "user", &user.ID, "Signed in as "+user.Email,
			map[string]any{"ip": clientIP(r)})
		h.responder.WriteJSON(w, SessionResponse{User: *user, Token: token, ExpiresAt: &expires})
	}
}

// logout clears the session cookie
// @Summary Log out
// @Tags Auth
// @Success 204
// @Router /api/auth/logout [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := h.sessionCookie("", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
		w.WriteHeader(http.StatusNoContent)
	}
}

// session returns the signed-in user
// @Summary Current session
// @Tags Auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/auth/session [get]
func (h authHandler) session() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r, h.userRepo)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, SessionResponse{User: *user})
	}
}

func (h authHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

// currentUser loads the user named by the session. A token whose user has
// since been deleted is treated as no session.
func currentUser(r *http.Request, userRepo *database.UserRepo) (*models.User, error) {
	userID, ok := ctxGetUserID(r.Context())
	if !ok {
		return nil, errs.Unauthorized
	}
	user, err := userRepo.FindByID(r.Context(), userID)
	if err != nil {
		return nil, wrapDatabaseError("find", "user", err)
	}
	if user == nil {
		return nil, errs.Unauthorized
	}
	return user, nil
}

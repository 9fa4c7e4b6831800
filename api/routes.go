package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpupo63/portfolio-cms-backend/services"
)

// crudHandlers is the route set shared by every admin collection.
type crudHandlers struct {
	list, create, get, update, remove, bulkRemove http.HandlerFunc
}

func (h resource[T, PT, P]) crud() crudHandlers {
	return crudHandlers{
		list:       h.list(),
		create:     h.create(),
		get:        h.get(),
		update:     h.update(),
		remove:     h.remove(),
		bulkRemove: h.bulkRemove(),
	}
}

func (h projectHandler) crud() crudHandlers {
	return crudHandlers{
		list:       h.getAllProjects(),
		create:     h.createProject(),
		get:        h.getProject(),
		update:     h.updateProject(),
		remove:     h.deleteProject(),
		bulkRemove: h.bulkDeleteProjects(),
	}
}

func mountCRUD(r chi.Router, pattern string, h crudHandlers) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		// registered before /{id} so "bulk" is never parsed as an id
		r.Delete("/bulk", h.bulkRemove)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

// setupAuthRoutes mounts login, logout and session lookup. Only login is
// rate limited.
func setupAuthRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, loginLimit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", handlers.authHandler.login())
		r.Post("/logout", handlers.authHandler.logout())
		r.With(authMiddleware.authenticate).Get("/session", handlers.authHandler.session())
	})
}

// setupPublicRoutes mounts the unauthenticated read API used by the site
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, contactLimit func(http.Handler) http.Handler) {
	r.Route("/api/public", func(r chi.Router) {
		r.Get("/portfolio", handlers.publicHandler.getPortfolio())
		r.Get("/settings", handlers.settingsHandler.getSettings())
		r.Get("/projects", handlers.projectHandler.getPublishedProjects())
		r.Get("/projects/{slug}", handlers.projectHandler.getPublishedProject())
		r.Get("/skills", handlers.skills.listPublic())
		r.Get("/experience", handlers.experience.listPublic())
		r.Get("/education", handlers.education.listPublic())
		r.Get("/services", handlers.services.listPublic())
		r.With(contactLimit).Post("/contact", handlers.contactHandler.sendMessage())
	})
}

// setupAdminRoutes sets up all routes that require a session
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)

		mountCRUD(r, "/api/projects", handlers.projectHandler.crud())
		mountCRUD(r, "/api/skills", handlers.skills.crud())
		mountCRUD(r, "/api/experience", handlers.experience.crud())
		mountCRUD(r, "/api/education", handlers.education.crud())
		mountCRUD(r, "/api/services", handlers.services.crud())

		r.Get("/api/settings", handlers.settingsHandler.getSettings())
		r.Put("/api/settings", handlers.settingsHandler.updateSettings())

		r.Get("/api/profile", handlers.profileHandler.getProfile())
		r.Put("/api/profile", handlers.profileHandler.updateProfile())

		r.Post("/api/upload", handlers.uploadHandler.uploadFile())

		r.Get("/api/activity", handlers.activityHandler.getActivity())
		r.Delete("/api/activity", handlers.activityHandler.clearActivity())
	})
}

// setupUploadFiles serves locally stored uploads. S3 uploads are served by
// the bucket itself.
func setupUploadFiles(r chi.Router, store services.Store) {
	local, ok := store.(*services.LocalStore)
	if !ok {
		return
	}
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Dir())))
	r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		fs.ServeHTTP(w, r)
	})
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rearqui/portfolio/logger"
)

// APIRoutes holds the handlers mounted by the API backend.
type APIRoutes struct {
	Prefix   string
	Projects *ProjectHandler
	Photos   *PhotoHandler
	Auth     *AuthMiddleware
	Health   http.HandlerFunc
	Logger   logger.Logger
}

// NewAPIRouter builds the typed JSON API. Reads are public; every mutation
// and the CSV export require a bearer credential.
func NewAPIRouter(routes APIRoutes) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(routes.Logger), RecoverJSON(routes.Logger))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := router.PathPrefix(routes.Prefix).Subrouter()
	protect := func(fn http.HandlerFunc) http.Handler {
		return routes.Auth.Handler(WriteScopeMiddleware(fn))
	}

	api.HandleFunc("/health", routes.Health).Methods(http.MethodGet)

	// Public
	api.HandleFunc("/projects/list/", routes.Projects.List).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id:[0-9]+}/", routes.Projects.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id:[0-9]+}/photos/", routes.Photos.ListByProject).Methods(http.MethodGet)

	// Authenticated
	api.Handle("/project/", protect(routes.Projects.Create)).Methods(http.MethodPost)
	api.Handle("/projects/{id:[0-9]+}/", protect(routes.Projects.Update)).Methods(http.MethodPut)
	api.Handle("/projects/delete/", protect(routes.Projects.DeleteAll)).Methods(http.MethodDelete)
	api.Handle("/projects/delete/{id:[0-9]+}/", protect(routes.Projects.Delete)).Methods(http.MethodDelete)
	api.Handle("/projects/import-csv/", protect(routes.Projects.ImportCSV)).Methods(http.MethodPost)
	api.Handle("/projects/export-csv/", protect(routes.Projects.ExportCSV)).Methods(http.MethodGet)
	api.Handle("/photos/", protect(routes.Photos.Upload)).Methods(http.MethodPost)
	api.Handle("/photos/batch/", protect(routes.Photos.Batch)).Methods(http.MethodPost)
	api.Handle("/photos/{id:[0-9]+}/", protect(routes.Photos.Update)).Methods(http.MethodPut)
	api.Handle("/photos/{id:[0-9]+}/", protect(routes.Photos.Delete)).Methods(http.MethodDelete)

	return router
}

// PageRoutes holds the handlers mounted by the pages backend.
type PageRoutes struct {
	Pages  *PagesHandler
	Admin  *AdminHandler
	Health http.HandlerFunc
	Logger logger.Logger
}

// NewPagesRouter builds the rendered site and the admin endpoints.
func NewPagesRouter(routes PageRoutes) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(routes.Logger), RecoverHTML(routes.Logger))

	router.HandleFunc("/health", routes.Health).Methods(http.MethodGet)

	router.HandleFunc("/", routes.Pages.Home).Methods(http.MethodGet)
	router.HandleFunc("/project/{id:[0-9]+}/", routes.Pages.Project).Methods(http.MethodGet)
	router.HandleFunc("/about/", routes.Pages.About).Methods(http.MethodGet)
	router.HandleFunc("/media/{path:.+}", routes.Pages.Media).Methods(http.MethodGet, http.MethodHead)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/login", routes.Admin.Login).Methods(http.MethodPost)
	admin.HandleFunc("/logout", routes.Admin.Logout).Methods(http.MethodPost)
	admin.Handle("/tokens", routes.Admin.RequireSession(routes.Admin.CreateToken)).Methods(http.MethodPost)
	admin.Handle("/tokens", routes.Admin.RequireSession(routes.Admin.ListTokens)).Methods(http.MethodGet)
	admin.Handle("/tokens/{id:[0-9]+}", routes.Admin.RequireSession(routes.Admin.RevokeToken)).Methods(http.MethodDelete)

	return router
}

package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// PagesHandler renders the public portfolio pages and serves media.
type PagesHandler struct {
	projectStore project.Store
	photoStore   photo.Store
	media        storage.BlobStorage
	templates    map[string]*template.Template
	logger       logger.Logger
}

// NewPagesHandler parses the embedded templates and creates a pages handler.
func NewPagesHandler(projectStore project.Store, photoStore photo.Store, media storage.BlobStorage, log logger.Logger) (*PagesHandler, error) {
	templates := make(map[string]*template.Template)
	for _, page := range []string{"home.html", "project.html", "about.html"} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		templates[page] = t
	}

	return &PagesHandler{
		projectStore: projectStore,
		photoStore:   photoStore,
		media:        media,
		templates:    templates,
		logger:       log,
	}, nil
}

// ProjectCard is a project with its cover image for listing pages.
type ProjectCard struct {
	*project.Project
	CoverURL string
}

type pageData struct {
	Title   string
	Now     time.Time
	Cards   []ProjectCard
	Project *project.Project
	Photos  []*photo.Photo
}

// render executes a template into a buffer so a failure can still become a 500.
func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	data.Now = time.Now()

	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error(r.Context(), "failed to render page", map[string]interface{}{
			"page":  page,
			"error": err.Error(),
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Home lists projects in showcase order.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectStore.List(r.Context(), project.OrderShowcase)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list projects", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	cards := make([]ProjectCard, 0, len(projects))
	for _, p := range projects {
		cards = append(cards, ProjectCard{Project: p, CoverURL: h.coverURL(r.Context(), p.ID)})
	}

	h.render(w, r, "home.html", pageData{Title: "Projects", Cards: cards})
}

func (h *PagesHandler) coverURL(ctx context.Context, projectID uint) string {
	cover, err := h.photoStore.Cover(ctx, projectID)
	if err != nil {
		return ""
	}
	url, err := h.media.GetURL(ctx, cover.ImagePath)
	if err != nil {
		return ""
	}
	return url
}

// Project shows a project with its photos.
func (h *PagesHandler) Project(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, err := h.projectStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	photos, err := h.photoStore.ListByProject(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	for _, ph := range photos {
		if url, err := h.media.GetURL(r.Context(), ph.ImagePath); err == nil {
			ph.ImageURL = url
		}
	}

	h.render(w, r, "project.html", pageData{Title: p.Name, Project: p, Photos: photos})
}

// About renders the static about page.
func (h *PagesHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "about.html", pageData{Title: "About"})
}

// Media streams a blob from media storage.
func (h *PagesHandler) Media(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(path.Clean("/"+mux.Vars(r)["path"]), "/")
	if key == "" {
		http.NotFound(w, r)
		return
	}

	reader, err := h.media.Download(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error(r.Context(), "failed to open media", map[string]interface{}{
			"path":  key,
			"error": err.Error(),
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		// Disconnects are handled by the dispatcher's writer.
		h.logger.Debug(r.Context(), "media copy interrupted", map[string]interface{}{
			"path":  key,
			"error": err.Error(),
		})
	}
}

// RecoverHTML is Recover with a plain error page.
func RecoverHTML(log logger.Logger) func(http.Handler) http.Handler {
	return Recover(log, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	})
}

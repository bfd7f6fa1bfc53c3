package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rearqui/portfolio/importer"
	"github.com/rearqui/portfolio/internal/optional"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/storage"
)

// ProjectHandler handles project-related requests.
type ProjectHandler struct {
	projectStore project.Store
	photoStore   photo.Store
	media        storage.BlobStorage
	importer     *importer.Importer
	maxUpload    int64
	logger       logger.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(
	projectStore project.Store,
	photoStore photo.Store,
	media storage.BlobStorage,
	imp *importer.Importer,
	maxUpload int64,
	log logger.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectStore: projectStore,
		photoStore:   photoStore,
		media:        media,
		importer:     imp,
		maxUpload:    maxUpload,
		logger:       log,
	}
}

// CreateProjectRequest represents a project creation request.
type CreateProjectRequest struct {
	Name                 string  `json:"name"`
	Description          *string `json:"description"`
	Client               *string `json:"client"`
	ProjectYear          *int    `json:"project_year"`
	ConstructionYear     *int    `json:"construction_year"`
	Architect            *string `json:"architect"`
	Builder              *string `json:"builder"`
	Site                 *string `json:"site"`
	PublicPrivateProject int     `json:"public_private_project"`
	Other                *string `json:"other"`
}

// UpdateProjectRequest is a field mask: absent fields are left untouched and
// null clears a field.
type UpdateProjectRequest struct {
	Name                 optional.Value[string] `json:"name"`
	Description          optional.Value[string] `json:"description"`
	Client               optional.Value[string] `json:"client"`
	ProjectYear          optional.Value[int]    `json:"project_year"`
	ConstructionYear     optional.Value[int]    `json:"construction_year"`
	Architect            optional.Value[string] `json:"architect"`
	Builder              optional.Value[string] `json:"builder"`
	Site                 optional.Value[string] `json:"site"`
	PublicPrivateProject optional.Value[int]    `json:"public_private_project"`
	Other                optional.Value[string] `json:"other"`
}

// Setters converts the mask into project setters.
func (req *UpdateProjectRequest) Setters() ([]project.UpdateSetter, error) {
	var setters []project.UpdateSetter

	if req.Name.Present {
		if !req.Name.Valid {
			return nil, project.ErrInvalidProjectName
		}
		setters = append(setters, project.SetName(req.Name.V))
	}
	if req.PublicPrivateProject.Present {
		if !req.PublicPrivateProject.Valid {
			return nil, fmt.Errorf("public_private_project cannot be null")
		}
		setters = append(setters, project.SetPublicPrivateProject(req.PublicPrivateProject.V))
	}

	strs := []struct {
		v   optional.Value[string]
		set func(*string) project.UpdateSetter
	}{
		{req.Description, project.SetDescription},
		{req.Client, project.SetClient},
		{req.Architect, project.SetArchitect},
		{req.Builder, project.SetBuilder},
		{req.Site, project.SetSite},
		{req.Other, project.SetOther},
	}
	for _, f := range strs {
		if f.v.Present {
			setters = append(setters, f.set(f.v.Ptr()))
		}
	}

	if req.ProjectYear.Present {
		setters = append(setters, project.SetProjectYear(req.ProjectYear.Ptr()))
	}
	if req.ConstructionYear.Present {
		setters = append(setters, project.SetConstructionYear(req.ConstructionYear.Ptr()))
	}

	return setters, nil
}

// ProjectResponse is a project with its cover image URL.
type ProjectResponse struct {
	*project.Project
	CoverImageURL *string `json:"cover_image_url"`
}

// List handles listing all projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectStore.List(r.Context(), project.OrderByID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list projects", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	respondJSON(w, http.StatusOK, projects)
}

// GetByID handles getting a single project by ID.
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "project")
	if !ok {
		return
	}

	proj, err := h.projectStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get project")
		return
	}

	respondJSON(w, http.StatusOK, ProjectResponse{
		Project:       proj,
		CoverImageURL: h.coverURL(r.Context(), proj.ID),
	})
}

func (h *ProjectHandler) coverURL(ctx context.Context, projectID uint) *string {
	cover, err := h.photoStore.Cover(ctx, projectID)
	if err != nil {
		if !errors.Is(err, photo.ErrNoCover) {
			h.logger.Warn(ctx, "failed to get cover photo", map[string]interface{}{
				"project_id": projectID,
				"error":      err.Error(),
			})
		}
		return nil
	}

	url, err := h.media.GetURL(ctx, cover.ImagePath)
	if err != nil {
		return nil
	}
	return &url
}

// Create handles creating a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proj := &project.Project{
		Name:                 req.Name,
		Description:          req.Description,
		Client:               req.Client,
		ProjectYear:          req.ProjectYear,
		ConstructionYear:     req.ConstructionYear,
		Architect:            req.Architect,
		Builder:              req.Builder,
		Site:                 req.Site,
		PublicPrivateProject: req.PublicPrivateProject,
		Other:                req.Other,
	}

	if err := h.projectStore.Create(r.Context(), proj); err != nil {
		if isProjectValidation(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create project", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	respondJSON(w, http.StatusCreated, proj)
}

// Update handles partial updates of a project.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "project")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setters, err := req.Setters()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	proj, err := h.projectStore.Update(r.Context(), id, setters...)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		if isProjectValidation(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to update project", map[string]interface{}{
			"error":      err.Error(),
			"project_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	respondJSON(w, http.StatusOK, proj)
}

// Delete handles deleting a project with its photos.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "project")
	if !ok {
		return
	}

	photos, err := h.photoStore.ListByProject(r.Context(), id)
	if err != nil {
		h.logger.Warn(r.Context(), "failed to list photos before delete", map[string]interface{}{
			"project_id": id,
			"error":      err.Error(),
		})
	}

	if err := h.projectStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		h.logger.Error(r.Context(), "failed to delete project", map[string]interface{}{
			"error":      err.Error(),
			"project_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	h.removeBlobs(r.Context(), photos)

	respondSuccess(w, fmt.Sprintf("Project %d deleted successfully", id))
}

// DeleteAll handles deleting every project.
func (h *ProjectHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.projectStore.DeleteAll(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "failed to delete all projects", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to delete projects")
		return
	}

	h.logger.Info(r.Context(), "all projects deleted", map[string]interface{}{
		"count": n,
	})
	respondSuccess(w, "All projects deleted successfully")
}

// removeBlobs deletes the images of already removed photos. Failures leave
// orphaned blobs and are only logged.
func (h *ProjectHandler) removeBlobs(ctx context.Context, photos []*photo.Photo) {
	ctx = context.WithoutCancel(ctx)
	for _, ph := range photos {
		if err := h.media.Delete(ctx, ph.ImagePath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			h.logger.Warn(ctx, "failed to delete photo blob", map[string]interface{}{
				"photo_id": ph.ID,
				"path":     ph.ImagePath,
				"error":    err.Error(),
			})
		}
	}
}

// ImportCSV handles bulk project creation from an uploaded CSV file.
func (h *ProjectHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	result, err := h.importer.Import(r.Context(), file)
	if err != nil {
		if errors.Is(err, importer.ErrEmptyInput) || errors.Is(err, importer.ErrMissingColumn) ||
			errors.Is(err, importer.ErrInvalidEncoding) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if result == nil {
			h.logger.Error(r.Context(), "failed to import projects", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusBadRequest, fmt.Sprintf("error importing CSV: %v", err))
			return
		}
		h.logger.Warn(r.Context(), "import stopped early", map[string]interface{}{
			"error":   err.Error(),
			"created": result.CreatedCount,
		})
	}

	respondJSON(w, http.StatusOK, ImportResponse{
		Message: fmt.Sprintf("Successfully imported %d projects", result.CreatedCount),
		Result:  result,
	})
}

// ImportResponse reports the outcome of a CSV import.
type ImportResponse struct {
	Message string `json:"message"`
	*importer.Result
}

// ExportCSV handles downloading every project as CSV.
func (h *ProjectHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=projects.csv")

	n, err := h.importer.Export(r.Context(), w)
	if err != nil {
		// Headers are already sent once the first row is written.
		h.logger.Error(r.Context(), "failed to export projects", map[string]interface{}{
			"error":   err.Error(),
			"written": n,
		})
		if n == 0 {
			respondError(w, http.StatusInternalServerError, "failed to export projects")
		}
	}
}

func isProjectValidation(err error) bool {
	return errors.Is(err, project.ErrInvalidProjectName) || errors.Is(err, project.ErrNameTooLong)
}

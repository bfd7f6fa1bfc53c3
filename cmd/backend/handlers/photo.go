package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rearqui/portfolio/ingest"
	"github.com/rearqui/portfolio/internal/optional"
	"github.com/rearqui/portfolio/internal/uuidutil"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/storage"
)

// MaxBatchItems bounds the size of a batch ingestion request.
const MaxBatchItems = 1000

// PhotoHandler handles photo-related requests.
type PhotoHandler struct {
	photoStore   photo.Store
	projectStore project.Store
	media        storage.BlobStorage
	ingestor     *ingest.Ingestor
	maxUpload    int64
	logger       logger.Logger
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(
	photoStore photo.Store,
	projectStore project.Store,
	media storage.BlobStorage,
	ingestor *ingest.Ingestor,
	maxUpload int64,
	log logger.Logger,
) *PhotoHandler {
	return &PhotoHandler{
		photoStore:   photoStore,
		projectStore: projectStore,
		media:        media,
		ingestor:     ingestor,
		maxUpload:    maxUpload,
		logger:       log,
	}
}

// UpdatePhotoRequest is a field mask over the editable photo fields.
type UpdatePhotoRequest struct {
	Title        optional.Value[string] `json:"title"`
	Index        optional.Value[int]    `json:"index"`
	IsCoverImage optional.Value[bool]   `json:"is_cover_image"`
}

// Setters converts the mask into photo setters.
func (req *UpdatePhotoRequest) Setters() ([]photo.UpdateSetter, error) {
	var setters []photo.UpdateSetter
	if req.Title.Present {
		if !req.Title.Valid {
			return nil, photo.ErrInvalidTitle
		}
		setters = append(setters, photo.SetTitle(req.Title.V))
	}
	if req.Index.Present {
		setters = append(setters, photo.SetIndex(req.Index.Ptr()))
	}
	if req.IsCoverImage.Present {
		setters = append(setters, photo.SetIsCoverImage(req.IsCoverImage.Valid && req.IsCoverImage.V))
	}
	return setters, nil
}

// withURL fills the derived image URL of each photo.
func (h *PhotoHandler) withURL(ctx context.Context, photos ...*photo.Photo) {
	for _, ph := range photos {
		url, err := h.media.GetURL(ctx, ph.ImagePath)
		if err != nil {
			h.logger.Warn(ctx, "failed to build image URL", map[string]interface{}{
				"photo_id": ph.ID,
				"error":    err.Error(),
			})
			continue
		}
		ph.ImageURL = url
	}
}

// ListByProject handles listing a project's photos.
func (h *PhotoHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseIDOrRespond(w, r, "id", "project")
	if !ok {
		return
	}

	if _, err := h.projectStore.GetByID(r.Context(), projectID); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get project")
		return
	}

	photos, err := h.photoStore.ListByProject(r.Context(), projectID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to list photos", map[string]interface{}{
			"error":      err.Error(),
			"project_id": projectID,
		})
		respondError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}

	h.withURL(r.Context(), photos...)
	respondJSON(w, http.StatusOK, photos)
}

// Upload handles a single multipart photo upload. The image is stored
// before the record and removed again if the record cannot be written.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	ph := &photo.Photo{
		Title: strings.TrimSpace(r.FormValue("title")),
	}

	projectID, err := strconv.ParseUint(r.FormValue("project_id"), 10, 64)
	if err != nil || projectID == 0 {
		respondError(w, http.StatusBadRequest, "project_id must be a positive integer")
		return
	}
	ph.ProjectID = uint(projectID)

	if v := r.FormValue("is_cover_image"); v != "" {
		cover, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "is_cover_image must be a boolean")
			return
		}
		ph.IsCoverImage = cover
	}
	if v := r.FormValue("index"); v != "" {
		index, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "index must be an integer")
			return
		}
		ph.Index = &index
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	ph.ImagePath = uuidutil.BlobKey(ingest.PhotoDir, header.Filename)
	if err := ph.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.projectStore.GetByID(r.Context(), ph.ProjectID); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get project")
		return
	}

	if err := h.media.Upload(r.Context(), ph.ImagePath, file); err != nil {
		h.logger.Error(r.Context(), "failed to store image", map[string]interface{}{
			"error": err.Error(),
			"path":  ph.ImagePath,
		})
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	if err := h.photoStore.Create(r.Context(), ph); err != nil {
		if delErr := h.media.Delete(context.WithoutCancel(r.Context()), ph.ImagePath); delErr != nil {
			h.logger.Warn(r.Context(), "failed to remove orphaned image", map[string]interface{}{
				"path":  ph.ImagePath,
				"error": delErr.Error(),
			})
		}
		if errors.Is(err, project.ErrProjectNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		h.logger.Error(r.Context(), "failed to create photo", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to create photo")
		return
	}

	h.withURL(r.Context(), ph)
	respondJSON(w, http.StatusCreated, ph)
}

// Update handles partial updates of a photo. Setting is_cover_image
// replaces the project's previous cover.
func (h *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "photo")
	if !ok {
		return
	}

	var req UpdatePhotoRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setters, err := req.Setters()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ph, err := h.photoStore.Update(r.Context(), id, setters...)
	if err != nil {
		switch {
		case errors.Is(err, photo.ErrPhotoNotFound):
			respondError(w, http.StatusNotFound, "photo not found")
		case errors.Is(err, photo.ErrInvalidTitle), errors.Is(err, photo.ErrTitleTooLong):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error(r.Context(), "failed to update photo", map[string]interface{}{
				"error":    err.Error(),
				"photo_id": id,
			})
			respondError(w, http.StatusInternalServerError, "failed to update photo")
		}
		return
	}

	h.withURL(r.Context(), ph)
	respondJSON(w, http.StatusOK, ph)
}

// Delete handles deleting a photo and its image.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDOrRespond(w, r, "id", "photo")
	if !ok {
		return
	}

	ph, err := h.photoStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, photo.ErrPhotoNotFound) {
			respondError(w, http.StatusNotFound, "photo not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}

	if err := h.photoStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, photo.ErrPhotoNotFound) {
			respondError(w, http.StatusNotFound, "photo not found")
			return
		}
		h.logger.Error(r.Context(), "failed to delete photo", map[string]interface{}{
			"error":    err.Error(),
			"photo_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}

	if err := h.media.Delete(context.WithoutCancel(r.Context()), ph.ImagePath); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		h.logger.Warn(r.Context(), "failed to delete photo blob", map[string]interface{}{
			"photo_id": id,
			"path":     ph.ImagePath,
			"error":    err.Error(),
		})
	}

	respondSuccess(w, "photo deleted successfully")
}

// Batch handles batch ingestion of existing images.
func (h *PhotoHandler) Batch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var items []json.RawMessage
	if err := parseJSON(r, &items, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "request body must be a JSON array of items")
		return
	}
	if len(items) > MaxBatchItems {
		respondError(w, http.StatusRequestEntityTooLarge, "too many items in batch")
		return
	}

	result, err := h.ingestor.IngestJSON(r.Context(), items)
	if err != nil {
		h.logger.Warn(r.Context(), "batch ingestion stopped early", map[string]interface{}{
			"error":     err.Error(),
			"succeeded": len(result.Results),
		})
	}

	respondJSON(w, http.StatusOK, result)
}

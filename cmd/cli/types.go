package main

import "time"

// ErrorResponse matches handlers.ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse matches handlers.SuccessResponse.
type SuccessResponse struct {
	Message string `json:"message"`
}

// ProjectResponse matches handlers.ProjectResponse.
type ProjectResponse struct {
	ID                   uint      `json:"id"`
	Name                 string    `json:"name"`
	Description          *string   `json:"description"`
	Client               *string   `json:"client"`
	ProjectYear          *int      `json:"project_year"`
	ConstructionYear     *int      `json:"construction_year"`
	Architect            *string   `json:"architect"`
	Builder              *string   `json:"builder"`
	Site                 *string   `json:"site"`
	PublicPrivateProject int       `json:"public_private_project"`
	Other                *string   `json:"other"`
	CoverImageURL        *string   `json:"cover_image_url,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PhotoResponse matches photo.Photo.
type PhotoResponse struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Index        *int   `json:"index"`
	ImagePath    string `json:"image_path"`
	ImageURL     string `json:"image_url"`
	ProjectID    uint   `json:"project_id"`
	IsCoverImage bool   `json:"is_cover_image"`
}

// ImportResponse matches handlers.ImportResponse.
type ImportResponse struct {
	Message      string `json:"message"`
	CreatedCount int    `json:"created_count"`
	ProjectIDs   []uint `json:"created_ids"`
	Skipped      []struct {
		Row           int      `json:"row"`
		Reason        string   `json:"reason"`
		MissingFields []string `json:"missing_fields"`
		Error         string   `json:"error"`
	} `json:"skipped_rows"`
}

// BatchItem matches ingest.Item.
type BatchItem struct {
	Title        string `json:"title"`
	ImagePath    string `json:"image_path"`
	Catalog      string `json:"catalog,omitempty"`
	ProjectID    *uint  `json:"project_id,omitempty"`
	IsCoverImage *bool  `json:"is_cover_image,omitempty"`
	Index        *int   `json:"index,omitempty"`
}

// BatchResponse matches ingest.Result.
type BatchResponse struct {
	Results []struct {
		Index       int    `json:"index"`
		ID          uint   `json:"id"`
		Title       string `json:"title"`
		ProjectID   uint   `json:"project_id"`
		ProjectName string `json:"project_name"`
		ImageURL    string `json:"image_url"`
	} `json:"results"`
	Errors []struct {
		Index int    `json:"index"`
		Error string `json:"error"`
	} `json:"errors"`
}

// UpdatePhotoRequest matches the cover-only subset of handlers.UpdatePhotoRequest.
type UpdatePhotoRequest struct {
	IsCoverImage bool `json:"is_cover_image"`
}

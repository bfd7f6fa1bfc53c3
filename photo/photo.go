package photo

import (
	"errors"
	"time"
)

var (
	// ErrPhotoNotFound is returned when a photo is not found.
	ErrPhotoNotFound = errors.New("photo not found")

	// ErrNoCover is returned when a project has no cover photo.
	ErrNoCover = errors.New("project has no cover photo")

	// ErrInvalidTitle is returned when a photo title is empty.
	ErrInvalidTitle = errors.New("photo title is required")

	// ErrTitleTooLong is returned when a title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("photo title exceeds 100 characters")

	// ErrInvalidImagePath is returned when a photo has no image.
	ErrInvalidImagePath = errors.New("photo image path is required")

	// ErrInvalidProjectID is returned when a photo is not attached to a project.
	ErrInvalidProjectID = errors.New("photo project ID is required")
)

// MaxTitleLength is the column width of Title.
const MaxTitleLength = 100

// Photo is an image belonging to a project.
type Photo struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Title string `json:"title" gorm:"type:varchar(100);not null"`
	// Index orders photos within a project. Unset photos sort last.
	Index *int `json:"index" gorm:"column:display_index"`
	// ImagePath is the blob key in media storage.
	ImagePath    string    `json:"image_path" gorm:"type:varchar(255);not null"`
	ImageURL     string    `json:"image_url" gorm:"-"`
	ProjectID    uint      `json:"project_id" gorm:"not null;index:idx_photos_project"`
	IsCoverImage bool      `json:"is_cover_image" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Photo) TableName() string {
	return "photos"
}

// Validate checks if the photo has valid required fields.
func (p *Photo) Validate() error {
	if p.Title == "" {
		return ErrInvalidTitle
	}
	if len([]rune(p.Title)) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if p.ImagePath == "" {
		return ErrInvalidImagePath
	}
	if p.ProjectID == 0 {
		return ErrInvalidProjectID
	}
	return nil
}

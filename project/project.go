package project

import (
	"errors"
	"time"
)

var (
	// ErrProjectNotFound is returned when a project is not found.
	ErrProjectNotFound = errors.New("project not found")

	// ErrInvalidProjectName is returned when a project name is empty or invalid.
	ErrInvalidProjectName = errors.New("project name is required")

	// ErrAmbiguousName is returned when a name lookup matches more than one project.
	ErrAmbiguousName = errors.New("project name matches more than one project")

	// ErrNameTooLong is returned when a name or short text field exceeds MaxNameLength.
	ErrNameTooLong = errors.New("value exceeds 255 characters")
)

// MaxNameLength is the column width of the short text fields.
const MaxNameLength = 255

// Project is an architecture project shown in the portfolio.
// Nullable attributes are pointers; nil means unset.
type Project struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	Name                 string    `json:"name" gorm:"type:varchar(255);not null;index:idx_projects_name"`
	Description          *string   `json:"description" gorm:"type:text"`
	Client               *string   `json:"client" gorm:"type:varchar(255)"`
	ProjectYear          *int      `json:"project_year"`
	ConstructionYear     *int      `json:"construction_year"`
	Architect            *string   `json:"architect" gorm:"type:varchar(255)"`
	Builder              *string   `json:"builder" gorm:"type:varchar(255)"`
	Site                 *string   `json:"site" gorm:"type:varchar(255)"`
	PublicPrivateProject int       `json:"public_private_project" gorm:"not null;default:0"`
	Other                *string   `json:"other" gorm:"type:text"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (Project) TableName() string {
	return "projects"
}

// Validate checks if the project has valid required fields.
func (p *Project) Validate() error {
	if p.Name == "" {
		return ErrInvalidProjectName
	}
	for _, v := range []*string{&p.Name, p.Client, p.Architect, p.Builder, p.Site} {
		if v != nil && len([]rune(*v)) > MaxNameLength {
			return ErrNameTooLong
		}
	}
	return nil
}

// ShowcaseYear is the year used to order projects on the home page:
// construction year, else project year, else zero.
func (p *Project) ShowcaseYear() int {
	if p.ConstructionYear != nil {
		return *p.ConstructionYear
	}
	if p.ProjectYear != nil {
		return *p.ProjectYear
	}
	return 0
}

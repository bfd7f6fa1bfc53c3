package photo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoto_Validate(t *testing.T) {
	tests := []struct {
		name    string
		photo   Photo
		wantErr error
	}{
		{
			name:    "valid photo",
			photo:   Photo{Title: "Facade", ImagePath: "project/photos/a.jpg", ProjectID: 1},
			wantErr: nil,
		},
		{
			name:    "missing title",
			photo:   Photo{ImagePath: "project/photos/a.jpg", ProjectID: 1},
			wantErr: ErrInvalidTitle,
		},
		{
			name:    "title too long",
			photo:   Photo{Title: strings.Repeat("x", MaxTitleLength+1), ImagePath: "a.jpg", ProjectID: 1},
			wantErr: ErrTitleTooLong,
		},
		{
			name:    "title at limit",
			photo:   Photo{Title: strings.Repeat("ã", MaxTitleLength), ImagePath: "a.jpg", ProjectID: 1},
			wantErr: nil,
		},
		{
			name:    "missing image",
			photo:   Photo{Title: "Facade", ProjectID: 1},
			wantErr: ErrInvalidImagePath,
		},
		{
			name:    "missing project",
			photo:   Photo{Title: "Facade", ImagePath: "a.jpg"},
			wantErr: ErrInvalidProjectID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.photo.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetters(t *testing.T) {
	p := &Photo{Title: "Old", ImagePath: "a.jpg", ProjectID: 1}
	idx := 3

	err := Apply(p, SetTitle("New"), SetIndex(&idx), SetIsCoverImage(true))
	assert.NoError(t, err)
	assert.Equal(t, "New", p.Title)
	assert.Equal(t, 3, *p.Index)
	assert.True(t, p.IsCoverImage)

	assert.ErrorIs(t, Apply(p, SetTitle("")), ErrInvalidTitle)
	assert.ErrorIs(t, Apply(p, SetImagePath("")), ErrInvalidImagePath)
	assert.Equal(t, "New", p.Title)
}

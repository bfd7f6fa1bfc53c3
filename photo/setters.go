package photo

// SetTitle returns an UpdateSetter that sets the photo's title.
func SetTitle(title string) UpdateSetter {
	return func(p *Photo) error {
		if title == "" {
			return ErrInvalidTitle
		}
		p.Title = title
		return nil
	}
}

// SetIndex returns an UpdateSetter that sets or clears the display index.
func SetIndex(index *int) UpdateSetter {
	return func(p *Photo) error {
		p.Index = index
		return nil
	}
}

// SetImagePath returns an UpdateSetter that points the photo at another blob.
func SetImagePath(path string) UpdateSetter {
	return func(p *Photo) error {
		if path == "" {
			return ErrInvalidImagePath
		}
		p.ImagePath = path
		return nil
	}
}

// SetIsCoverImage returns an UpdateSetter that marks or unmarks the photo as cover.
func SetIsCoverImage(cover bool) UpdateSetter {
	return func(p *Photo) error {
		p.IsCoverImage = cover
		return nil
	}
}

// Apply runs setters against p in order and stops at the first error.
func Apply(p *Photo, setters ...UpdateSetter) error {
	for _, setter := range setters {
		if err := setter(p); err != nil {
			return err
		}
	}
	return nil
}

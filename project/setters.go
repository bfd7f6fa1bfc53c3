package project

// SetName returns an UpdateSetter that sets the project's name.
func SetName(name string) UpdateSetter {
	return func(p *Project) error {
		if name == "" {
			return ErrInvalidProjectName
		}
		p.Name = name
		return nil
	}
}

// SetDescription returns an UpdateSetter that sets or clears the description.
func SetDescription(description *string) UpdateSetter {
	return func(p *Project) error {
		p.Description = description
		return nil
	}
}

// SetClient returns an UpdateSetter that sets or clears the client.
func SetClient(client *string) UpdateSetter {
	return func(p *Project) error {
		p.Client = client
		return nil
	}
}

// SetArchitect returns an UpdateSetter that sets or clears the architect.
func SetArchitect(architect *string) UpdateSetter {
	return func(p *Project) error {
		p.Architect = architect
		return nil
	}
}

// SetBuilder returns an UpdateSetter that sets or clears the builder.
func SetBuilder(builder *string) UpdateSetter {
	return func(p *Project) error {
		p.Builder = builder
		return nil
	}
}

// SetSite returns an UpdateSetter that sets or clears the site.
func SetSite(site *string) UpdateSetter {
	return func(p *Project) error {
		p.Site = site
		return nil
	}
}

// SetProjectYear returns an UpdateSetter that sets or clears the project year.
func SetProjectYear(year *int) UpdateSetter {
	return func(p *Project) error {
		p.ProjectYear = year
		return nil
	}
}

// SetConstructionYear returns an UpdateSetter that sets or clears the construction year.
func SetConstructionYear(year *int) UpdateSetter {
	return func(p *Project) error {
		p.ConstructionYear = year
		return nil
	}
}

// SetPublicPrivateProject returns an UpdateSetter that sets the public/private flag.
func SetPublicPrivateProject(flag int) UpdateSetter {
	return func(p *Project) error {
		p.PublicPrivateProject = flag
		return nil
	}
}

// SetOther returns an UpdateSetter that sets or clears the free text notes.
func SetOther(other *string) UpdateSetter {
	return func(p *Project) error {
		p.Other = other
		return nil
	}
}

// Apply runs setters against p in order and stops at the first error.
func Apply(p *Project, setters ...UpdateSetter) error {
	for _, setter := range setters {
		if err := setter(p); err != nil {
			return err
		}
	}
	return nil
}

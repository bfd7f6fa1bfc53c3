package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rearqui/portfolio/delimited"
	"github.com/rearqui/portfolio/project"
)

// ExportColumns is the header written by Export. Import accepts it back.
var ExportColumns = []string{
	"id", "name", "description", "client", "project_year", "construction_year",
	"architect", "builder", "site", "public_private_project", "other",
}

// Export writes every project to w, header first, in ID order.
// It returns the number of projects written.
func (im *Importer) Export(ctx context.Context, w io.Writer) (int, error) {
	projects, err := im.projects.List(ctx, project.OrderByID)
	if err != nil {
		return 0, err
	}

	out := delimited.NewWriter(w)
	if err := out.WriteRow(ExportColumns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range projects {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := out.WriteRow(exportRow(p)); err != nil {
			return i, fmt.Errorf("failed to write project %d: %w", p.ID, err)
		}
	}

	return len(projects), nil
}

func exportRow(p *project.Project) []string {
	return []string{
		strconv.FormatUint(uint64(p.ID), 10),
		p.Name,
		str(p.Description),
		str(p.Client),
		num(p.ProjectYear),
		num(p.ConstructionYear),
		str(p.Architect),
		str(p.Builder),
		str(p.Site),
		strconv.Itoa(p.PublicPrivateProject),
		str(p.Other),
	}
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

// Package importer creates projects in bulk from delimited text and writes
// them back out in the same layout.
//
// Import is best effort: the header must name every required column, after
// which each row succeeds or is skipped on its own.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rearqui/portfolio/delimited"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/project"
)

var (
	// ErrEmptyInput is returned when the input holds no header row.
	ErrEmptyInput = errors.New("empty CSV file")

	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidEncoding is returned when the header is not valid UTF-8.
	ErrInvalidEncoding = errors.New("CSV file must be UTF-8 encoded")
)

// RequiredColumns must all appear in the header and be non-empty in a row
// for the row to be created.
var RequiredColumns = []string{"name", "client", "architect", "builder", "site"}

// Skip reasons reported in SkippedRow.Reason.
const (
	ReasonMissingFields   = "missing required fields"
	ReasonRejected        = "rejected by store"
	ReasonInvalidEncoding = "invalid UTF-8"
)

// SkippedRow records a data row that did not produce a project.
type SkippedRow struct {
	// Row is the 1-based line of the row, counting the header as row 1.
	Row           int      `json:"row"`
	Reason        string   `json:"reason"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Result summarizes an import.
type Result struct {
	CreatedCount int          `json:"created_count"`
	ProjectIDs   []uint       `json:"created_ids"`
	Skipped      []SkippedRow `json:"skipped_rows"`
}

// Importer creates projects from delimited text.
type Importer struct {
	projects project.Store
	logger   logger.Logger
}

// New creates an Importer writing to projects.
func New(projects project.Store, log logger.Logger) *Importer {
	return &Importer{
		projects: projects,
		logger:   log,
	}
}

// Import reads a header and data rows from r and creates one project per
// complete row. If ctx is cancelled no further rows are started and the
// partial result is returned together with ctx.Err().
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	scanner := delimited.NewScanner(r)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, ErrEmptyInput
	}

	if !validUTF8(scanner.Row()) {
		return nil, ErrInvalidEncoding
	}
	header := parseHeader(scanner.Row())
	if len(header) == 0 {
		return nil, ErrEmptyInput
	}
	for _, col := range RequiredColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	result := &Result{
		ProjectIDs: []uint{},
		Skipped:    []SkippedRow{},
	}

	line := 1
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			im.logger.Warn(ctx, "import cancelled", map[string]interface{}{
				"row":     line,
				"created": result.CreatedCount,
			})
			return result, err
		}

		row := scanner.Row()
		if isBlank(row) {
			continue
		}
		if !validUTF8(row) {
			im.logger.Warn(ctx, "skipping row with invalid UTF-8", map[string]interface{}{
				"row": line,
			})
			result.Skipped = append(result.Skipped, SkippedRow{
				Row:    line,
				Reason: ReasonInvalidEncoding,
			})
			continue
		}

		im.importRow(ctx, line, header, row, result)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read row %d: %w", line+1, err)
	}

	im.logger.Info(ctx, "import finished", map[string]interface{}{
		"created": result.CreatedCount,
		"skipped": len(result.Skipped),
	})

	return result, nil
}

func (im *Importer) importRow(ctx context.Context, line int, header map[string]int, row []string, result *Result) {
	fields := make(map[string]string, len(header))
	for col, pos := range header {
		if pos >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[pos]); v != "" {
			fields[col] = v
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := fields[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		im.logger.Warn(ctx, "skipping row with missing fields", map[string]interface{}{
			"row":            line,
			"missing_fields": strings.Join(missing, ","),
		})
		result.Skipped = append(result.Skipped, SkippedRow{
			Row:           line,
			Reason:        ReasonMissingFields,
			MissingFields: missing,
		})
		return
	}

	p := &project.Project{}
	for col, v := range fields {
		setter, err := columnSetter(col, v)
		if err != nil {
			im.logger.Debug(ctx, "dropping unparsable value", map[string]interface{}{
				"row":    line,
				"column": col,
				"value":  v,
			})
			continue
		}
		if setter != nil {
			// Values are non-empty here, so no setter can fail.
			_ = setter(p)
		}
	}

	if err := im.projects.Create(ctx, p); err != nil {
		im.logger.Warn(ctx, "skipping row rejected by store", map[string]interface{}{
			"row":   line,
			"error": err.Error(),
		})
		result.Skipped = append(result.Skipped, SkippedRow{
			Row:    line,
			Reason: ReasonRejected,
			Error:  err.Error(),
		})
		return
	}

	result.CreatedCount++
	result.ProjectIDs = append(result.ProjectIDs, p.ID)
}

// parseHeader maps normalized column names to their first position.
func parseHeader(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for i, name := range row {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, seen := header[name]; !seen {
			header[name] = i
		}
	}
	return header
}

func validUTF8(row []string) bool {
	for _, f := range row {
		if !utf8.ValidString(f) {
			return false
		}
	}
	return true
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// columnSetter returns the setter for a known column, nil for unknown ones,
// or an error if an integer column does not parse as a 32-bit integer.
func columnSetter(col, v string) (project.UpdateSetter, error) {
	switch col {
	case "name":
		return project.SetName(v), nil
	case "description":
		return project.SetDescription(&v), nil
	case "client":
		return project.SetClient(&v), nil
	case "architect":
		return project.SetArchitect(&v), nil
	case "builder":
		return project.SetBuilder(&v), nil
	case "site":
		return project.SetSite(&v), nil
	case "other":
		return project.SetOther(&v), nil
	case "project_year":
		n, err := parseInt32(v)
		if err != nil {
			return nil, err
		}
		return project.SetProjectYear(&n), nil
	case "construction_year":
		n, err := parseInt32(v)
		if err != nil {
			return nil, err
		}
		return project.SetConstructionYear(&n), nil
	case "public_private_project":
		n, err := parseInt32(v)
		if err != nil {
			return nil, err
		}
		return project.SetPublicPrivateProject(n), nil
	default:
		return nil, nil
	}
}

// parseInt32 parses v within the range of the INT columns.
func parseInt32(v string) (int, error) {
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

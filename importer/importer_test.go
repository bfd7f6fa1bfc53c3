package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/rearqui/portfolio/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("row missing a required value is skipped", func(t *testing.T) {
		im, store, log := setupTestImporter(t)
		input := "name,client,architect,builder,site,project_year\n" +
			"Casa A,Ana,Rui,Obras SA,Porto,2010\n" +
			"Casa B,Ana,Rui,Obras SA,,2012\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)

		assert.Equal(t, 1, result.CreatedCount)
		require.Len(t, result.ProjectIDs, 1)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, 3, result.Skipped[0].Row)
		assert.Equal(t, ReasonMissingFields, result.Skipped[0].Reason)
		assert.Equal(t, []string{"site"}, result.Skipped[0].MissingFields)

		projects, err := store.List(ctx, project.OrderByID)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Casa A", projects[0].Name)
		assert.Equal(t, 2010, *projects[0].ProjectYear)

		assert.Len(t, log.EntriesWithMessage("skipping row with missing fields"), 1)
	})

	t.Run("unparsable integer drops only that field", func(t *testing.T) {
		im, store, _ := setupTestImporter(t)
		input := "name,client,architect,builder,site,project_year,construction_year\n" +
			"Casa C,Ana,Rui,Obras SA,Braga,abc,2015\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, 1, result.CreatedCount)

		p, err := store.GetByID(ctx, result.ProjectIDs[0])
		require.NoError(t, err)
		assert.Nil(t, p.ProjectYear)
		assert.Equal(t, 2015, *p.ConstructionYear)
	})

	t.Run("missing header column rejects the import", func(t *testing.T) {
		im, store, _ := setupTestImporter(t)
		input := "name,client,architect,site\nCasa D,Ana,Rui,Faro\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), "builder")
		assert.Nil(t, result)

		projects, err := store.List(ctx, project.OrderByID)
		require.NoError(t, err)
		assert.Empty(t, projects)
	})

	t.Run("empty input", func(t *testing.T) {
		im, _, _ := setupTestImporter(t)

		_, err := im.Import(ctx, strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyInput)

		_, err = im.Import(ctx, strings.NewReader(" , \n"))
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("blank cells stay unset and unknown columns are ignored", func(t *testing.T) {
		im, store, _ := setupTestImporter(t)
		input := "id,Name , client,architect,builder,site,description,colour,other\n" +
			"77,Casa E,Ana,Rui,Obras SA,Évora,   ,blue\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, 1, result.CreatedCount)

		p, err := store.GetByID(ctx, result.ProjectIDs[0])
		require.NoError(t, err)
		assert.NotEqual(t, uint(77), p.ID)
		assert.Equal(t, "Casa E", p.Name)
		assert.Equal(t, "Évora", *p.Site)
		assert.Nil(t, p.Description)
		assert.Nil(t, p.Other)
		assert.Equal(t, 0, p.PublicPrivateProject)
	})

	t.Run("quoted fields, blank lines and CRLF", func(t *testing.T) {
		im, store, _ := setupTestImporter(t)
		input := "\ufeffname,client,architect,builder,site,description,public_private_project\r\n" +
			"\r\n" +
			"\"Casa \"\"F\"\"\",\"Silva, Lda\",Rui,Obras SA,Sintra,\"two\nlines\",1\r\n" +
			",,,,,,\r\n" +
			"Casa G,Ana,Rui,Obras SA,Porto,,0"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 2, result.CreatedCount)
		assert.Empty(t, result.Skipped)

		first, err := store.GetByID(ctx, result.ProjectIDs[0])
		require.NoError(t, err)
		assert.Equal(t, `Casa "F"`, first.Name)
		assert.Equal(t, "Silva, Lda", *first.Client)
		assert.Equal(t, "two\nlines", *first.Description)
		assert.Equal(t, 1, first.PublicPrivateProject)

		second, err := store.GetByID(ctx, result.ProjectIDs[1])
		require.NoError(t, err)
		assert.Equal(t, "Casa G", second.Name)
		assert.Equal(t, "Porto", *second.Site)
	})

	t.Run("short rows and store rejections are skipped, later rows continue", func(t *testing.T) {
		im, _, _ := setupTestImporter(t)
		input := "name,client,architect,builder,site\n" +
			"Short,Ana\n" +
			strings.Repeat("n", project.MaxNameLength+1) + ",Ana,Rui,Obras SA,Porto\n" +
			"Casa H,Ana,Rui,Obras SA,Porto\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 1, result.CreatedCount)
		require.Len(t, result.Skipped, 2)

		assert.Equal(t, 2, result.Skipped[0].Row)
		assert.Equal(t, []string{"architect", "builder", "site"}, result.Skipped[0].MissingFields)

		assert.Equal(t, 3, result.Skipped[1].Row)
		assert.Equal(t, ReasonRejected, result.Skipped[1].Reason)
		assert.Contains(t, result.Skipped[1].Error, project.ErrNameTooLong.Error())
	})

	t.Run("out of range integer drops only that field", func(t *testing.T) {
		im, store, _ := setupTestImporter(t)
		input := "name,client,architect,builder,site,project_year,construction_year,public_private_project\n" +
			"Casa J,Ana,Rui,Obras SA,Braga,99999999999,2015,4294967297\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)
		require.Equal(t, 1, result.CreatedCount)
		assert.Empty(t, result.Skipped)

		p, err := store.GetByID(ctx, result.ProjectIDs[0])
		require.NoError(t, err)
		assert.Nil(t, p.ProjectYear)
		assert.Equal(t, 2015, *p.ConstructionYear)
		assert.Equal(t, 0, p.PublicPrivateProject)
	})

	t.Run("row with invalid UTF-8 is skipped", func(t *testing.T) {
		im, store, log := setupTestImporter(t)
		input := "name,client,architect,builder,site\n" +
			"Casa \xff\xfe,Ana,Rui,Obras SA,Porto\n" +
			"Casa K,Ana,Rui,Obras SA,Évora\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, 1, result.CreatedCount)
		require.Len(t, result.Skipped, 1)
		assert.Equal(t, 2, result.Skipped[0].Row)
		assert.Equal(t, ReasonInvalidEncoding, result.Skipped[0].Reason)
		assert.Len(t, log.EntriesWithMessage("skipping row with invalid UTF-8"), 1)

		projects, err := store.List(ctx, project.OrderByID)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "Évora", *projects[0].Site)
	})

	t.Run("header with invalid UTF-8 rejects the import", func(t *testing.T) {
		im, _, _ := setupTestImporter(t)
		input := "name,client,architect,builder,site\xff\nCasa L,Ana,Rui,Obras SA,Porto\n"

		result, err := im.Import(ctx, strings.NewReader(input))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
		assert.Nil(t, result)
	})

	t.Run("cancelled context stops before the next row", func(t *testing.T) {
		im, store, _ := setupTestImporter(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		input := "name,client,architect,builder,site\nCasa I,Ana,Rui,Obras SA,Porto\n"
		result, err := im.Import(cctx, strings.NewReader(input))
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Zero(t, result.CreatedCount)

		projects, err := store.List(ctx, project.OrderByID)
		require.NoError(t, err)
		assert.Empty(t, projects)
	})
}

func TestImporter_ExportThenImport(t *testing.T) {
	ctx := context.Background()
	im, store, _ := setupTestImporter(t)

	desc := "Line one\nLine \"two\", with comma"
	year := 2004
	require.NoError(t, store.Create(ctx, &project.Project{
		Name:        "Casa J",
		Description: &desc,
		Client:      strPtr("Ana"),
		Architect:   strPtr("Rui"),
		Builder:     strPtr("Obras SA"),
		Site:        strPtr("Lagos"),
		ProjectYear: &year,
	}))

	var buf strings.Builder
	n, err := im.Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(ExportColumns, ",")+"\n"))

	result, err := im.Import(ctx, strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Equal(t, 1, result.CreatedCount)

	copied, err := store.GetByID(ctx, result.ProjectIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Casa J", copied.Name)
	assert.Equal(t, desc, *copied.Description)
	assert.Equal(t, 2004, *copied.ProjectYear)
	assert.Nil(t, copied.ConstructionYear)
	assert.Nil(t, copied.Other)
}

func strPtr(s string) *string {
	return &s
}

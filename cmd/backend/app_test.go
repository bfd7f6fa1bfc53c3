package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/database"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	server    *httptest.Server
	db        *gorm.DB
	sourceDir string
	userID    uint
	token     string
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()

	cfg := &Config{
		Server:   ServerConfig{MaxUploadMB: 8},
		Database: DatabaseConfig{Driver: database.DriverSQLite, Path: filepath.Join(dir, "portfolio.db")},
		Session: SessionConfig{
			CookieName:   "portfolio_session",
			CookieSecret: strings.Repeat("s", 32),
			Duration:     time.Hour,
		},
		Storage:  StorageConfig{Type: "local", BaseDir: filepath.Join(dir, "media"), BaseURL: "/media"},
		Ingest:   IngestConfig{SourceType: "local", SourceDir: filepath.Join(dir, "import")},
		Dispatch: DispatchConfig{APIPrefix: "/api"},
		Auth:     AuthConfig{Mode: "token"},
	}
	require.NoError(t, os.MkdirAll(cfg.Ingest.SourceDir, 0o755))

	db, err := connectDatabase(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.RunMigrations(sqlDB, database.DriverSQLite, ""))

	log := logger.NewTestLogger()
	app, err := newApplication(cfg, db, log)
	require.NoError(t, err)

	ctx := context.Background()
	admin := &user.User{Username: "admin", IsActive: true}
	require.NoError(t, admin.SetPassword("correct-horse"))
	require.NoError(t, user.NewMySQLStore(db, log).Create(ctx, admin))

	token, raw, err := apitoken.New(admin.ID, "test", apitoken.ScopeReadWrite, 0)
	require.NoError(t, err)
	require.NoError(t, apitoken.NewMySQLStore(db, log).Create(ctx, token))

	server := httptest.NewServer(app.handler)
	t.Cleanup(server.Close)

	return &testApp{
		server:    server,
		db:        db,
		sourceDir: cfg.Ingest.SourceDir,
		userID:    admin.ID,
		token:     raw,
	}
}

func (a *testApp) do(t *testing.T, method, path, token, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) doJSON(t *testing.T, method, path string, payload interface{}) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return a.do(t, method, path, a.token, "application/json", body)
}

func decode(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestApp_PublicReadsAndAuthenticatedWrites(t *testing.T) {
	app := setupTestApp(t)

	resp := app.do(t, http.MethodGet, "/api/projects/list/", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/project/", "", "application/json", strings.NewReader(`{"name":"House"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.do(t, http.MethodPost, "/api/project/", "pft_bogus", "application/json", strings.NewReader(`{"name":"House"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = app.doJSON(t, http.MethodPost, "/api/project/", map[string]interface{}{"name": "House", "client": "Ana"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID     uint    `json:"id"`
		Name   string  `json:"name"`
		Client *string `json:"client"`
	}
	decode(t, resp, &created)
	assert.Equal(t, "House", created.Name)

	resp = app.doJSON(t, http.MethodPut, "/api/projects/"+itoa(created.ID)+"/", map[string]interface{}{"client": nil, "site": "Lima"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Name   string  `json:"name"`
		Client *string `json:"client"`
		Site   *string `json:"site"`
	}
	decode(t, resp, &updated)
	assert.Equal(t, "House", updated.Name)
	assert.Nil(t, updated.Client)
	require.NotNil(t, updated.Site)
	assert.Equal(t, "Lima", *updated.Site)

	resp = app.do(t, http.MethodGet, "/api/projects/999/photos/", "", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.doJSON(t, http.MethodDelete, "/api/projects/delete/"+itoa(created.ID)+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.doJSON(t, http.MethodDelete, "/api/projects/delete/"+itoa(created.ID)+"/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApp_ReadOnlyTokenCannotWrite(t *testing.T) {
	app := setupTestApp(t)
	log := logger.NewTestLogger()

	token, raw, err := apitoken.New(app.userID, "ro", apitoken.ScopeReadOnly, 0)
	require.NoError(t, err)
	require.NoError(t, apitoken.NewMySQLStore(app.db, log).Create(context.Background(), token))

	resp := app.do(t, http.MethodPost, "/api/project/", raw, "application/json", strings.NewReader(`{"name":"House"}`))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/api/projects/export-csv/", raw, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_ImportExportCSV(t *testing.T) {
	app := setupTestApp(t)

	csv := "name,client,architect,builder,site,project_year\n" +
		"House,Ana,Arq,Build,Lima,2020\n" +
		"Incomplete,Ana,,Build,Lima,\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "projects.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := app.do(t, http.MethodPost, "/api/projects/import-csv/", app.token, mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		CreatedCount int    `json:"created_count"`
		ProjectIDs   []uint `json:"created_ids"`
		Skipped      []struct {
			Row           int      `json:"row"`
			MissingFields []string `json:"missing_fields"`
		} `json:"skipped_rows"`
	}
	decode(t, resp, &result)
	assert.Equal(t, 1, result.CreatedCount)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Row)
	assert.Equal(t, []string{"architect"}, result.Skipped[0].MissingFields)

	resp = app.do(t, http.MethodGet, "/api/projects/export-csv/", app.token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "id,name,description,client,project_year")
	assert.Contains(t, string(body), ",House,,Ana,2020,,Arq,Build,Lima,0,")
}

func TestApp_BatchIngestAndPages(t *testing.T) {
	app := setupTestApp(t)

	resp := app.doJSON(t, http.MethodPost, "/api/project/", map[string]interface{}{"name": "Casa Azul"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var proj struct {
		ID uint `json:"id"`
	}
	decode(t, resp, &proj)

	require.NoError(t, os.WriteFile(filepath.Join(app.sourceDir, "front.jpg"), []byte("front-bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(app.sourceDir, "back.jpg"), []byte("back-bytes"), 0o644))

	resp = app.doJSON(t, http.MethodPost, "/api/photos/batch/", []map[string]interface{}{
		{"title": "Front", "image_path": "front.jpg", "catalog": "Casa Azul", "is_cover_image": true},
		{"title": "Back", "image_path": "back.jpg", "project_id": proj.ID, "is_cover_image": true, "index": 1},
		{"title": "Missing", "image_path": "nope.jpg", "project_id": proj.ID},
		{"image_path": "front.jpg", "project_id": proj.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch struct {
		Results []struct {
			Index       int    `json:"index"`
			ProjectName string `json:"project_name"`
			ImageURL    string `json:"image_url"`
		} `json:"results"`
		Errors []struct {
			Index int    `json:"index"`
			Error string `json:"error"`
		} `json:"errors"`
	}
	decode(t, resp, &batch)
	require.Len(t, batch.Results, 2)
	require.Len(t, batch.Errors, 2)
	assert.Equal(t, "Casa Azul", batch.Results[0].ProjectName)
	assert.Equal(t, 2, batch.Errors[0].Index)
	assert.Equal(t, 3, batch.Errors[1].Index)

	resp = app.do(t, http.MethodGet, "/api/projects/"+itoa(proj.ID)+"/photos/", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var photos []struct {
		Title        string `json:"title"`
		ImageURL     string `json:"image_url"`
		IsCoverImage bool   `json:"is_cover_image"`
	}
	decode(t, resp, &photos)
	require.Len(t, photos, 2)
	covers := 0
	for _, p := range photos {
		if p.IsCoverImage {
			covers++
			assert.Equal(t, "Back", p.Title)
		}
	}
	assert.Equal(t, 1, covers)

	// Media is served by the pages backend.
	resp = app.do(t, http.MethodGet, batch.Results[1].ImageURL, "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "back-bytes", string(body))

	resp = app.do(t, http.MethodGet, "/", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Casa Azul")
	assert.Contains(t, string(page), batch.Results[1].ImageURL)

	resp = app.do(t, http.MethodGet, "/project/"+itoa(proj.ID)+"/", "", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/project/999/", "", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApp_AdminLoginIssuesToken(t *testing.T) {
	app := setupTestApp(t)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := app.server.Client()
	client.Jar = jar

	post := func(path, body string) *http.Response {
		resp, err := client.Post(app.server.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/admin/tokens", `{"name":"laptop"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/admin/login", `{"username":"admin","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/admin/login", `{"username":"admin","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/admin/tokens", `{"name":"laptop","scope":"read_write"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var issued struct {
		Token string `json:"token"`
	}
	decode(t, resp, &issued)
	assert.True(t, strings.HasPrefix(issued.Token, apitoken.Prefix))

	create := app.do(t, http.MethodPost, "/api/project/", issued.Token, "application/json", strings.NewReader(`{"name":"From laptop"}`))
	assert.Equal(t, http.StatusCreated, create.StatusCode)

	resp = post("/admin/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/admin/tokens", `{"name":"again"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

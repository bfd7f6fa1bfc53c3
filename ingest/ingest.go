// Package ingest attaches batches of existing images to projects as photos.
//
// Each item is processed on its own: a failing item is reported at its index
// and never stops the items after it. For every item the image is copied into
// media storage before the photo record is written, and the copy is removed
// again if the record cannot be written.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rearqui/portfolio/internal/uuidutil"
	"github.com/rearqui/portfolio/logger"
	"github.com/rearqui/portfolio/photo"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/storage"
)

// PhotoDir is the media storage directory photos are copied into.
const PhotoDir = "project/photos"

// Success describes an ingested item.
type Success struct {
	Index       int    `json:"index"`
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	ProjectID   uint   `json:"project_id"`
	ProjectName string `json:"project_name"`
	ImageURL    string `json:"image_url"`
}

// Failure describes an item that was not ingested.
type Failure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Result lists outcomes in input order.
type Result struct {
	Results []Success `json:"results"`
	Errors  []Failure `json:"errors"`
}

// Ingestor turns items into photos.
type Ingestor struct {
	projects project.Store
	photos   photo.Store
	source   storage.BlobStorage
	media    storage.BlobStorage
	logger   logger.Logger
}

// New creates an Ingestor reading images from source and storing them in media.
func New(projects project.Store, photos photo.Store, source, media storage.BlobStorage, log logger.Logger) *Ingestor {
	return &Ingestor{
		projects: projects,
		photos:   photos,
		source:   source,
		media:    media,
		logger:   log,
	}
}

// Ingest processes items in order. If ctx is cancelled no further items are
// started; the partial result is returned together with ctx.Err().
func (in *Ingestor) Ingest(ctx context.Context, items []Item) (*Result, error) {
	return in.ingest(ctx, items, make(map[int]error))
}

// IngestJSON is Ingest over undecoded elements. An element that does not
// decode fails at its index without affecting the others.
func (in *Ingestor) IngestJSON(ctx context.Context, raw []json.RawMessage) (*Result, error) {
	items, invalid := DecodeItems(raw)
	return in.ingest(ctx, items, invalid)
}

func (in *Ingestor) ingest(ctx context.Context, items []Item, invalid map[int]error) (*Result, error) {
	result := &Result{
		Results: []Success{},
		Errors:  []Failure{},
	}

	for i := range items {
		if _, ok := invalid[i]; ok {
			continue
		}
		if err := items[i].Validate(); err != nil {
			invalid[i] = err
		}
	}

	for i := range items {
		if err := ctx.Err(); err != nil {
			in.logger.Warn(ctx, "batch ingestion cancelled", map[string]interface{}{
				"index":     i,
				"succeeded": len(result.Results),
			})
			return result, err
		}

		if err, ok := invalid[i]; ok {
			result.Errors = append(result.Errors, Failure{Index: i, Error: err.Error()})
			continue
		}

		success, err := in.ingestItem(ctx, &items[i])
		if err != nil {
			in.logger.Warn(ctx, "batch item failed", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			result.Errors = append(result.Errors, Failure{Index: i, Error: err.Error()})
			continue
		}

		success.Index = i
		result.Results = append(result.Results, *success)
	}

	in.logger.Info(ctx, "batch ingestion finished", map[string]interface{}{
		"succeeded": len(result.Results),
		"failed":    len(result.Errors),
	})

	return result, nil
}

func (in *Ingestor) ingestItem(ctx context.Context, item *Item) (success *Success, err error) {
	defer func() {
		if r := recover(); r != nil {
			success = nil
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	p, err := in.resolveProject(ctx, item)
	if err != nil {
		return nil, err
	}

	key := uuidutil.BlobKey(PhotoDir, item.ImagePath)
	if err := storage.Copy(ctx, in.source, item.ImagePath, in.media, key); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, fmt.Errorf("%w: %s", ErrImageNotFound, item.ImagePath)
		}
		in.discard(ctx, key)
		return nil, fmt.Errorf("failed to copy image: %w", err)
	}

	ph := &photo.Photo{
		Title:     item.Title,
		ImagePath: key,
		ProjectID: p.ID,
		Index:     item.Index,
	}
	if item.IsCoverImage != nil {
		ph.IsCoverImage = *item.IsCoverImage
	}

	if err := in.createPhoto(ctx, ph); err != nil {
		in.discard(ctx, key)
		return nil, err
	}

	url, err := in.media.GetURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to build image URL: %w", err)
	}

	return &Success{
		ID:          ph.ID,
		Title:       ph.Title,
		ProjectID:   p.ID,
		ProjectName: p.Name,
		ImageURL:    url,
	}, nil
}

// createPhoto writes the record; a panic in the store is turned into an
// error so the copied blob can still be discarded.
func (in *Ingestor) createPhoto(ctx context.Context, ph *photo.Photo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()
	return in.photos.Create(ctx, ph)
}

// resolveProject tries the catalog name first, then the project id.
// An ambiguous name counts as a failed lookup.
func (in *Ingestor) resolveProject(ctx context.Context, item *Item) (*project.Project, error) {
	if item.Catalog != "" {
		p, err := in.projects.GetByName(ctx, item.Catalog)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, project.ErrProjectNotFound), errors.Is(err, project.ErrAmbiguousName):
		default:
			return nil, err
		}
	}

	if item.ProjectID != nil {
		p, err := in.projects.GetByID(ctx, *item.ProjectID)
		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, project.ErrProjectNotFound):
		default:
			return nil, err
		}
	}

	return nil, item.unresolved()
}

func (in *Ingestor) discard(ctx context.Context, key string) {
	// The request context may already be cancelled.
	if err := in.media.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		in.logger.Error(ctx, "failed to remove orphaned image", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
	}
}

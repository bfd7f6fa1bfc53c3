package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingTitle is returned for an item without a title.
	ErrMissingTitle = errors.New("title is required")

	// ErrMissingImagePath is returned for an item without an image locator.
	ErrMissingImagePath = errors.New("image_path is required")

	// ErrProjectUnresolved is returned when neither the catalog name nor the
	// project id identifies a project.
	ErrProjectUnresolved = errors.New("project not found")

	// ErrImageNotFound is returned when the image locator names no readable blob.
	ErrImageNotFound = errors.New("image not found")

	// ErrMalformedItem is returned for an item that does not decode.
	ErrMalformedItem = errors.New("malformed item")
)

// Item describes one photo to ingest.
type Item struct {
	Title string `json:"title"`
	// ImagePath locates the image in the source storage.
	ImagePath string `json:"image_path"`
	// Catalog is the exact name of the owning project. It is tried before ProjectID.
	Catalog      string `json:"catalog,omitempty"`
	ProjectID    *uint  `json:"project_id,omitempty"`
	IsCoverImage *bool  `json:"is_cover_image,omitempty"`
	Index        *int   `json:"index,omitempty"`
}

// UnmarshalJSON decodes an item, accepting project_id and index as numbers
// or numeric strings.
func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var aux struct {
		plain
		ProjectID json.RawMessage `json:"project_id"`
		Index     json.RawMessage `json:"index"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	item := Item(aux.plain)
	id, err := parseInteger(aux.ProjectID, "project_id", 64)
	if err != nil {
		return err
	}
	if id != nil {
		if *id <= 0 {
			return fmt.Errorf("project_id must be a positive integer")
		}
		v := uint(*id)
		item.ProjectID = &v
	}

	index, err := parseInteger(aux.Index, "index", 32)
	if err != nil {
		return err
	}
	if index != nil {
		v := int(*index)
		item.Index = &v
	}

	*it = item
	return nil
}

func parseInteger(raw json.RawMessage, field string, bits int) (*int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, fmt.Errorf("%s must be an integer", field)
		}
		text = strings.TrimSpace(text)
	}

	n, err := strconv.ParseInt(text, 10, bits)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", field)
	}
	return &n, nil
}

// DecodeItems decodes each raw element into an Item. Elements that do not
// decode are reported by index and left zero in the returned slice.
func DecodeItems(raw []json.RawMessage) ([]Item, map[int]error) {
	items := make([]Item, len(raw))
	invalid := make(map[int]error)
	for i, r := range raw {
		if err := json.Unmarshal(r, &items[i]); err != nil {
			items[i] = Item{}
			invalid[i] = fmt.Errorf("%w: %v", ErrMalformedItem, err)
		}
	}
	return items, invalid
}

// Validate checks the fields every item needs before any work is done.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.Title) == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(it.ImagePath) == "" {
		return ErrMissingImagePath
	}
	return nil
}

func (it *Item) unresolved() error {
	id := "none"
	if it.ProjectID != nil {
		id = fmt.Sprint(*it.ProjectID)
	}
	catalog := it.Catalog
	if catalog == "" {
		catalog = "none"
	}
	return fmt.Errorf("%w: catalog=%q, project_id=%s", ErrProjectUnresolved, catalog, id)
}

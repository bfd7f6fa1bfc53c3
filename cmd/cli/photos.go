package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Manage project photos",
	}

	cmd.AddCommand(newPhotosBatchCmd())
	cmd.AddCommand(newPhotosCoverCmd())
	return cmd
}

func newPhotosBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file.json>",
		Short: "Attach existing images to projects",
		Long: `Reads a JSON array of items and ingests them in one request. Each item names
a title, an image_path in the server's import storage, and its project by
catalog name or project_id. Failed items are reported by index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readBatchFile(args[0])
			if err != nil {
				return err
			}

			client, err := getClient(true)
			if err != nil {
				return err
			}

			body, err := client.Post("/photos/batch/", items)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var resp BatchResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(resp.Results) > 0 {
				headers := []string{"INDEX", "ID", "TITLE", "PROJECT", "URL"}
				var rows [][]string
				for _, r := range resp.Results {
					rows = append(rows, []string{
						strconv.Itoa(r.Index),
						strconv.FormatUint(uint64(r.ID), 10),
						r.Title,
						r.ProjectName,
						r.ImageURL,
					})
				}
				printTable(headers, rows)
			}

			if len(resp.Errors) > 0 {
				printMessage("")
				headers := []string{"INDEX", "ERROR"}
				var rows [][]string
				for _, e := range resp.Errors {
					rows = append(rows, []string{strconv.Itoa(e.Index), e.Error})
				}
				printTable(headers, rows)
			}

			printMessage(fmt.Sprintf("\n%d ingested, %d failed", len(resp.Results), len(resp.Errors)))
			return nil
		},
	}
}

func readBatchFile(path string) ([]BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var items []BatchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("batch file must hold a JSON array of items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("batch file %s holds no items", path)
	}
	return items, nil
}

func newPhotosCoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cover <photo-id>",
		Short: "Make a photo the cover of its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			client, err := getClient(true)
			if err != nil {
				return err
			}

			body, err := client.Put(fmt.Sprintf("/photos/%d/", id), UpdatePhotoRequest{IsCoverImage: true})
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var p PhotoResponse
			if err := json.Unmarshal(body, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Photo %d (%s) is now the cover of project %d", p.ID, p.Title, p.ProjectID))
			return nil
		},
	}
}

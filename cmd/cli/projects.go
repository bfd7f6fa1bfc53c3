package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}

	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsGetCmd())
	cmd.AddCommand(newProjectsDeleteCmd())
	cmd.AddCommand(newProjectsImportCmd())
	cmd.AddCommand(newProjectsExportCmd())
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient(false)
			if err != nil {
				return err
			}

			body, err := client.Get("/projects/list/", nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var projects []ProjectResponse
			if err := json.Unmarshal(body, &projects); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "NAME", "CLIENT", "ARCHITECT", "YEAR", "SITE"}
			var rows [][]string
			for _, p := range projects {
				rows = append(rows, []string{
					strconv.FormatUint(uint64(p.ID), 10),
					truncate(p.Name, 40),
					deref(p.Client),
					deref(p.Architect),
					derefInt(p.ProjectYear),
					deref(p.Site),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nTotal: %d projects", len(projects)))
			return nil
		},
	}
}

func newProjectsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a project by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			client, err := getClient(false)
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/projects/%d/", id), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var p ProjectResponse
			if err := json.Unmarshal(body, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			visibility := "private"
			if p.PublicPrivateProject == 1 {
				visibility = "public"
			}

			headers := []string{"FIELD", "VALUE"}
			rows := [][]string{
				{"ID", strconv.FormatUint(uint64(p.ID), 10)},
				{"Name", p.Name},
				{"Description", truncate(deref(p.Description), 60)},
				{"Client", deref(p.Client)},
				{"Architect", deref(p.Architect)},
				{"Builder", deref(p.Builder)},
				{"Site", deref(p.Site)},
				{"Project Year", derefInt(p.ProjectYear)},
				{"Construction Year", derefInt(p.ConstructionYear)},
				{"Visibility", visibility},
				{"Cover", deref(p.CoverImageURL)},
				{"Created At", p.CreatedAt.Format("2006-01-02 15:04:05")},
				{"Updated At", p.UpdatedAt.Format("2006-01-02 15:04:05")},
			}
			printTable(headers, rows)
			return nil
		},
	}
}

func newProjectsDeleteCmd() *cobra.Command {
	var all, yes bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a project, or every project with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/projects/delete/"
			prompt := "Delete ALL projects and their photos?"
			if !all {
				id, err := parseIDArg(args[0])
				if err != nil {
					return err
				}
				path = fmt.Sprintf("/projects/delete/%d/", id)
				prompt = fmt.Sprintf("Delete project %d and its photos?", id)
			}

			if !confirmAction(prompt, yes) {
				printMessage("Aborted.")
				return nil
			}

			client, err := getClient(true)
			if err != nil {
				return err
			}

			body, err := client.Delete(path)
			if err != nil {
				return err
			}

			var resp SuccessResponse
			if err := json.Unmarshal(body, &resp); err != nil || resp.Message == "" {
				printMessage("Deleted.")
				return nil
			}
			printMessage(resp.Message)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every project")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip confirmation")
	return cmd
}

func newProjectsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create projects from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient(true)
			if err != nil {
				return err
			}

			body, err := client.PostFile("/projects/import-csv/", "file", args[0])
			if err != nil {
				return err
			}

			if flagJSON {
				printRawJSON(body)
				return nil
			}

			var resp ImportResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(resp.Message)
			if len(resp.Skipped) == 0 {
				return nil
			}

			headers := []string{"ROW", "REASON", "DETAIL"}
			var rows [][]string
			for _, s := range resp.Skipped {
				detail := s.Error
				if len(s.MissingFields) > 0 {
					detail = fmt.Sprintf("%v", s.MissingFields)
				}
				rows = append(rows, []string{strconv.Itoa(s.Row), s.Reason, detail})
			}
			printMessage("")
			printTable(headers, rows)
			return nil
		},
	}
}

func newProjectsExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every project as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient(true)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := client.Download("/projects/export-csv/", w)
			if err != nil {
				return err
			}

			if w != os.Stdout {
				printMessage(fmt.Sprintf("Wrote %d bytes to %s", n, output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func parseIDArg(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

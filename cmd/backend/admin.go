package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rearqui/portfolio/apitoken"
	"github.com/rearqui/portfolio/auth"
	"github.com/rearqui/portfolio/importer"
	"github.com/rearqui/portfolio/project"
	"github.com/rearqui/portfolio/user"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	createUserEmail string

	tokenName   string
	tokenScope  string
	tokenExpiry time.Duration
)

var createUserCmd = &cobra.Command{
	Use:   "createuser <username>",
	Short: "Create an admin user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		db, err := connectDatabase(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		u := &user.User{
			Username: args[0],
			Email:    createUserEmail,
			IsActive: true,
		}
		if err := u.SetPassword(password); err != nil {
			return err
		}

		if err := user.NewMySQLStore(db, log).Create(cmd.Context(), u); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (id %d)\n", u.Username, u.ID)
		return nil
	},
}

// promptPassword reads a password twice, without echo when in is a terminal.
func promptPassword(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, "Password: ")
		first, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		fmt.Fprint(out, "Password (again): ")
		second, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "API token commands",
}

var tokenCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Issue an API token for an admin user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		db, err := connectDatabase(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cfg)
		ctx := cmd.Context()

		u, err := user.NewMySQLStore(db, log).GetByUsername(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to find user %q: %w", args[0], err)
		}

		expiry := apitoken.ClampExpiry(tokenExpiry)

		if cfg.Auth.Mode == "jwt" {
			v, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
			if err != nil {
				return err
			}
			signed, err := v.Issue(u.ID, tokenScope, expiry)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		}

		token, raw, err := apitoken.New(u.ID, tokenName, tokenScope, expiry)
		if err != nil {
			return err
		}
		if err := apitoken.NewMySQLStore(db, log).Create(ctx, token); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), raw)
		fmt.Fprintf(cmd.ErrOrStderr(), "token %d expires %s\n", token.ID, token.ExpiresAt.Format(time.RFC3339))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import projects from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		cfg, err := LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		db, err := connectDatabase(cfg)
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		return runImport(cmd.Context(), importer.New(project.NewMySQLStore(db, log), log), f, cmd.OutOrStdout())
	},
}

func runImport(ctx context.Context, im *importer.Importer, r io.Reader, out io.Writer) error {
	result, err := im.Import(ctx, r)
	if result != nil {
		fmt.Fprintf(out, "Created %d projects\n", result.CreatedCount)
		for _, s := range result.Skipped {
			detail := s.Error
			if len(s.MissingFields) > 0 {
				detail = strings.Join(s.MissingFields, ", ")
			}
			fmt.Fprintf(out, "  row %d skipped: %s (%s)\n", s.Row, s.Reason, detail)
		}
	}
	return err
}

func init() {
	createUserCmd.Flags().StringVar(&createUserEmail, "email", "", "optional email address")

	tokenCreateCmd.Flags().StringVar(&tokenName, "name", "cli", "token name")
	tokenCreateCmd.Flags().StringVar(&tokenScope, "scope", apitoken.ScopeReadWrite, "read_only or read_write")
	tokenCreateCmd.Flags().DurationVar(&tokenExpiry, "expiry", apitoken.DefaultExpiry, "token lifetime")
	tokenCmd.AddCommand(tokenCreateCmd)

	for _, c := range []*cobra.Command{createUserCmd, tokenCmd, importCmd} {
		c.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
		rootCmd.AddCommand(c)
	}
}

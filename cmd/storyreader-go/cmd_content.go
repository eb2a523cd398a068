package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AtRiskMedia/storyreader-go/internal/application/services"
	"github.com/AtRiskMedia/storyreader-go/internal/application/startup"
	"github.com/AtRiskMedia/storyreader-go/internal/domain/authoring"
	"github.com/spf13/cobra"
)

var (
	generateCount     int
	importTitle       string
	importDescription string
	importFormat      string
)

// migrateCmd applies the schema and optionally seeds demo content
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Creates every table and index that does not exist yet. The command is
safe to run repeatedly. With --seed the Demo story is added to an empty database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := startup.NewLogger()
		if err != nil {
			return err
		}
		defer logger.Close()

		db, err := startup.OpenDatabase(cmd.Context(), logger, seed)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

// generateCmd creates stories from the embedded templates
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate sample stories from the built-in templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateCount <= 0 {
			return fmt.Errorf("--count must be positive")
		}
		appContainer, cleanup, err := startup.Bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer cleanup()

		for i := 0; i < generateCount; i++ {
			result, err := appContainer.AuthoringService.GenerateStory(cmd.Context(), authoring.AdminCapability)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d pages\n", result.Story.ID, result.Story.Title, result.Pages)
		}
		return nil
	},
}

// importCmd splits a local text or HTML file into a new story
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a text or HTML file as a story",
	Long: `Splits the file into chapters and pages. Lines such as "Chapter 3" or
"Chapter 3: Title" start a chapter. Files without headings become a single
chapter split by word count. The format is taken from the extension unless
--format is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		format := importFormat
		if format == "" {
			format = services.FormatText
			if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
				format = services.FormatHTML
			}
		}
		title := importTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		appContainer, cleanup, err := startup.Bootstrap(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := appContainer.AuthoringService.ImportStory(cmd.Context(), authoring.AdminCapability, services.ImportInput{
			Title:       title,
			Description: importDescription,
			Format:      format,
			Content:     string(data),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "imported %q as %s: %d chapters, %d pages\n",
			result.Story.Title, result.Story.ID, result.Chapters, result.Pages)
		return nil
	},
}

// hashPasswordCmd prints a bcrypt hash for ADMIN_PASSWORD
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash suitable for ADMIN_PASSWORD",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hashed, err := services.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&seed, "seed", false, "insert the Demo story when the database is empty")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1, "number of stories to generate")
	importCmd.Flags().StringVar(&importTitle, "title", "", "story title (default: file name)")
	importCmd.Flags().StringVar(&importDescription, "description", "", "story description")
	importCmd.Flags().StringVar(&importFormat, "format", "", "text or html (default: from extension)")
}

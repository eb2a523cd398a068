package main

import (
	"fmt"
	"log"
	"os"

	"github.com/AtRiskMedia/storyreader-go/internal/application/startup"
	"github.com/spf13/cobra"
)

var (
	port string
	seed bool
)

var rootCmd = &cobra.Command{
	Use:   "storyreader-go",
	Short: "Story reader API server and content tools",
	Long: `storyreader-go serves stories split into chapters and pages, with
likes, comments and reading progress keyed by an anonymous reader session.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVarP(&port, "port", "p", "", "port to listen on (default from PORT)")
		cmd.Flags().BoolVar(&seed, "seed", false, "insert the Demo story when the database is empty")
	}

	rootCmd.AddCommand(serveCmd, migrateCmd, generateCmd, importCmd, hashPasswordCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := startup.Initialize(startup.Options{Port: port, Seed: seed}); err != nil {
		return fmt.Errorf("application startup failed: %w", err)
	}
	log.Println("Application has shut down gracefully.")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

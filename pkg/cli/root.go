package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set by main from its ldflags variables
	Version = "dev"
	// Commit is the VCS revision of the build
	Commit = "none"
	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// EnvURL overrides the default server URL of the client commands.
const EnvURL = "RECORDD_URL"

const defaultURL = "http://localhost:3001"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	url  string
	json bool
}

// NewRootCommand builds the recordd command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := &serveOptions{}

	rootCmd := &cobra.Command{
		Use:   "recordd",
		Short: "recordd is a small in-memory HTTP server for notes and phonebook entries",
		Long: `recordd serves record collections (notes and phonebook persons) over a JSON
HTTP API, keeping everything in memory.

Without a subcommand it starts the server. Configuration can be provided via
flags, RECORDD_* environment variables, or a YAML/JSON configuration file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd, serve)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.url, "url", defaultServerURL(), "Server base URL for client commands")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Output command results in JSON format")
	serve.addFlags(rootCmd)

	rootCmd.AddCommand(
		newServeCommand(),
		newVersionCommand(opts),
		newListCommand(opts),
		newGetCommand(opts),
		newAddCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
	)
	return rootCmd
}

// Execute runs the command line and exits with status 1 on error.
// This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

func formatError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Error: %s (HTTP %d)", apiErr.Message, apiErr.StatusCode)
	}
	return "Error: " + err.Error()
}

func defaultServerURL() string {
	if v := os.Getenv(EnvURL); v != "" {
		return v
	}
	return defaultURL
}

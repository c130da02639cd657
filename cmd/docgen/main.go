package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var (
	// Global flags
	appRoot string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "docgen",
	Short: "Quote and invoice PDF generator",
	Long: `docgen serves a form that turns customer details and line items into
quote or invoice PDFs, with preview, download and share links.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Reads <root>/config/.core.json and .company.json and serves the form,
previews, PDFs and the JSON API until SIGINT or SIGTERM.`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "docgen", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&appRoot, "root", ".", "app root holding the config/ directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug level logging")

	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (default: the document filename)")
	renderCmd.Flags().StringVar(&renderType, "type", "", "override the document type: quote or invoice")
	renderCmd.Flags().StringVar(&renderEngine, "engine", "native", "render engine: native or html")
	renderCmd.Flags().StringVar(&renderChrome, "chrome-path", "", "chrome binary for the html engine")

	rootCmd.AddCommand(serveCmd, renderCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

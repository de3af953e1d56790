// Package cmd implements the mcp-hub CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "mcp-hub",
	Short: "mcp-hub — an MCP tool server gateway for LLM chat",
	Long: "mcp-hub supervises MCP tool server subprocesses, aggregates their tools\n" +
		"into one namespaced catalog, and answers chat requests with a two-phase\n" +
		"reason-then-summarize dispatch.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(toolsCmd)
}

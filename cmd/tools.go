package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/7divs7/mcp-hub/internal/config"
	"github.com/7divs7/mcp-hub/internal/mcp"
	"github.com/7divs7/mcp-hub/internal/registry"
	"github.com/7divs7/mcp-hub/internal/supervisor"
)

var toolsConfig string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Start the configured tool servers and print their catalog",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsConfig, "config", "c", "mcp_servers.yaml", "Tool server config file")
}

func runTools(_ *cobra.Command, _ []string) error {
	setupLogging(false)

	specs, err := config.LoadServers(toolsConfig)
	if err != nil {
		return fmt.Errorf("load server config: %w", err)
	}
	if len(specs) == 0 {
		fmt.Println("No tool servers configured.")
		return nil
	}

	timeouts := config.DefaultTimeouts()
	sup := supervisor.New(mcp.NewSession, timeouts.Handshake)
	defer sup.StopAll()

	ctx := context.Background()
	for name, st := range sup.StartAll(ctx, specs) {
		fmt.Printf("%-20s %s\n", name, st.Status)
	}

	reg := registry.New(sup)
	descriptors := reg.ListAll(ctx)
	if len(descriptors) == 0 {
		fmt.Println("No tools discovered.")
		return nil
	}

	fmt.Printf("\n%d tools:\n", len(descriptors))
	for _, d := range descriptors {
		fmt.Printf("  %-30s %s\n", d.ID(), d.Description)
	}
	return nil
}

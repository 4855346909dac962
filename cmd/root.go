package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cloud-run-mcp",
	Short: "MCP server for deploying and inspecting Google Cloud Run services",
	Long: `cloud-run-mcp exposes Google Cloud Run deployment and inspection
actions as MCP tools so that AI assistants can list projects, deploy code,
read service logs, and proxy traffic to a remote service.`,
	// SilenceUsage prevents printing the usage message on errors we handle
	// ourselves (invalid arguments, failed startup).
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "cloud-run-mcp version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

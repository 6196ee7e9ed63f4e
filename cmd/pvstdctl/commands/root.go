package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errEmptyResponse is returned when the control socket closes without
// sending a response line.
var errEmptyResponse = errors.New("no response from daemon")

var (
	// cl is the control-socket client, initialized in PersistentPreRunE.
	cl *client

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// socketPath is the daemon's control socket path.
	socketPath string
)

// rootCmd is the top-level cobra command for pvstdctl.
var rootCmd = &cobra.Command{
	Use:   "pvstdctl",
	Short: "CLI client for the pvstd daemon",
	Long:  "pvstdctl communicates with the pvstd daemon over its Unix control socket to manage VLAN spanning tree instances.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		cl = newClient(socketPath)
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "/run/pvstd/control.sock",
		"pvstd control socket path")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(vlanCmd())
	rootCmd.AddCommand(portCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

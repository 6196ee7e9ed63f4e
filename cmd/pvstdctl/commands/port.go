package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vlanspan/pvstd/internal/management"
)

func portCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port",
		Short: "Manage physical port spanning tree settings",
	}

	cmd.AddCommand(portSetCmd())

	return cmd
}

// --- port set ---

func portSetCmd() *cobra.Command {
	var (
		enabled    bool
		rootGuard  bool
		bpduGuard  bool
		portFast   bool
		uplinkFast bool
	)

	cmd := &cobra.Command{
		Use:   "set <interface>",
		Short: "Configure a physical port's spanning tree settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			err := cl.apply(management.Message{
				Kind:       management.KindPortConfig,
				IfName:     args[0],
				Enabled:    enabled,
				RootGuard:  rootGuard,
				BpduGuard:  bpduGuard,
				PortFast:   portFast,
				UplinkFast: uplinkFast,
			})
			if err != nil {
				return fmt.Errorf("apply port config: %w", err)
			}

			fmt.Printf("Port %s configured.\n", args[0])

			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&enabled, "enabled", true, "whether spanning tree runs on this port")
	flags.BoolVar(&rootGuard, "root-guard", false, "enable root guard")
	flags.BoolVar(&bpduGuard, "bpdu-guard", false, "enable BPDU guard")
	flags.BoolVar(&portFast, "portfast", false, "enable PortFast")
	flags.BoolVar(&uplinkFast, "uplinkfast", false, "enable UplinkFast")

	return cmd
}

package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vlanspan/pvstd/internal/management"
)

// Sentinel errors for CLI validation.
var (
	errVlanIDRequired = errors.New("--id flag is required")
	errVlanNotFound   = errors.New("vlan not found")
)

func vlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vlan",
		Short: "Manage per-VLAN spanning tree instances",
	}

	cmd.AddCommand(vlanListCmd())
	cmd.AddCommand(vlanShowCmd())
	cmd.AddCommand(vlanSetCmd())
	cmd.AddCommand(vlanDeleteCmd())

	return cmd
}

// --- vlan list ---

func vlanListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every VLAN instance's spanning tree state",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			resp, err := cl.snapshot()
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}

			out, err := formatInstances(resp.Snapshot.Instances, outputFormat)
			if err != nil {
				return fmt.Errorf("format instances: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// --- vlan show ---

func vlanShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <vlan-id>",
		Short: "Show one VLAN instance's ports",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			vlanID, err := parseVlanID(args[0])
			if err != nil {
				return err
			}

			resp, err := cl.snapshot()
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}

			inst := findInstance(resp.Snapshot.Instances, vlanID)
			if inst == nil {
				return fmt.Errorf("%w: %d", errVlanNotFound, vlanID)
			}

			out, err := formatInstanceDetail(*inst, outputFormat)
			if err != nil {
				return fmt.Errorf("format instance: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

func parseVlanID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse vlan id %q: %w", s, err)
	}
	return uint16(v), nil
}

// --- vlan set ---

func vlanSetCmd() *cobra.Command {
	var (
		vlanID       uint16
		priority     uint16
		maxAge       uint8
		helloTime    uint8
		forwardDelay uint8
		newInstance  bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update a VLAN spanning tree instance",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if vlanID == 0 {
				return errVlanIDRequired
			}

			err := cl.apply(management.Message{
				Kind:         management.KindVlanConfig,
				Opcode:       management.OpcodeSet,
				NewInstance:  newInstance,
				VlanID:       vlanID,
				Priority:     priority,
				MaxAge:       maxAge,
				HelloTime:    helloTime,
				ForwardDelay: forwardDelay,
			})
			if err != nil {
				return fmt.Errorf("apply vlan config: %w", err)
			}

			fmt.Printf("VLAN %d configured.\n", vlanID)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint16Var(&vlanID, "id", 0, "VLAN id (required)")
	flags.Uint16Var(&priority, "priority", 32768, "bridge priority, multiple of 4096")
	flags.Uint8Var(&maxAge, "max-age", 20, "max age, seconds")
	flags.Uint8Var(&helloTime, "hello-time", 2, "hello time, seconds")
	flags.Uint8Var(&forwardDelay, "forward-delay", 15, "forward delay, seconds")
	flags.BoolVar(&newInstance, "new", false, "create a new instance instead of updating an existing one")

	return cmd
}

// --- vlan delete ---

func vlanDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <vlan-id>",
		Short: "Delete a VLAN spanning tree instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			vlanID, err := parseVlanID(args[0])
			if err != nil {
				return err
			}

			if err := cl.apply(management.Message{
				Kind:   management.KindVlanConfig,
				Opcode: management.OpcodeDel,
				VlanID: vlanID,
			}); err != nil {
				return fmt.Errorf("delete vlan: %w", err)
			}

			fmt.Printf("VLAN %d deleted.\n", vlanID)

			return nil
		},
	}
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/vlanspan/pvstd/internal/stp"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatInstances renders every VLAN instance in the requested format.
func formatInstances(instances []stp.InstanceSnapshot, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatInstancesJSON(instances)
	case formatTable:
		return formatInstancesTable(instances)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatInstanceDetail renders one VLAN instance's ports in the requested format.
func formatInstanceDetail(inst stp.InstanceSnapshot, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatInstanceJSON(inst)
	case formatTable:
		return formatInstanceDetailTable(inst), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// findInstance returns the instance with the given VLAN id, or nil.
func findInstance(instances []stp.InstanceSnapshot, vlanID uint16) *stp.InstanceSnapshot {
	for i := range instances {
		if instances[i].VlanID == vlanID {
			return &instances[i]
		}
	}
	return nil
}

// --- Table formatters ---

func formatInstancesTable(instances []stp.InstanceSnapshot) (string, error) {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VLAN\tSTATE\tBRIDGE-ID\tROOT-ID\tROOT-COST\tPORTS")

	for _, inst := range instances {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n",
			inst.VlanID,
			inst.State,
			inst.BridgeID,
			inst.RootID,
			inst.RootPathCost,
			len(inst.Ports),
		)
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush tabwriter: %w", err)
	}

	return buf.String(), nil
}

func formatInstanceDetailTable(inst stp.InstanceSnapshot) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "VLAN:\t\t%d\n", inst.VlanID)
	fmt.Fprintf(&buf, "State:\t\t%s\n", inst.State)
	fmt.Fprintf(&buf, "Bridge ID:\t%s\n", inst.BridgeID)
	fmt.Fprintf(&buf, "Root ID:\t%s\n", inst.RootID)
	fmt.Fprintf(&buf, "Root Path Cost:\t%d\n", inst.RootPathCost)
	fmt.Fprintln(&buf)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTERFACE\tSTATE\tROLE")
	for _, p := range inst.Ports {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.IfName, p.State, p.Role)
	}
	w.Flush() //nolint:errcheck // writing to a strings.Builder never fails

	return buf.String()
}

// --- JSON formatters ---

func formatInstancesJSON(instances []stp.InstanceSnapshot) (string, error) {
	data, err := json.MarshalIndent(instances, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal instances to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatInstanceJSON(inst stp.InstanceSnapshot) (string, error) {
	data, err := json.MarshalIndent(inst, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal instance to JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// pvstdctl -- CLI client for the pvstd daemon.
package main

import "github.com/vlanspan/pvstd/cmd/pvstdctl/commands"

func main() {
	commands.Execute()
}

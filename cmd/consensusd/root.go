// Command consensusd runs one validator's consensus core as a standalone
// process: it loads the committee and this node's key, opens the durable
// badger store, wires up the Core and its collaborators, and serves the
// BlockGossip gRPC API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "consensusd",
		Short:         "Per-validator DAG-BFT consensus core",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newRunCmd(v))
	root.AddCommand(newFollowCmd())
	return root
}

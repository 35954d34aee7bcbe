// Command ecscached runs the query cache demo service: an HTTP/WebSocket
// introspection API in front of an in-memory ECS world, backed by a
// Postgres query registry and a Redis invalidation broadcast.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "ecscached",
		Short: "ECS query cache demo service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRegistryCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

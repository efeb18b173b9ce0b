package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/membercache/metadata"
)

var typesCmd = &cobra.Command{
	Use:   "types <model-file>",
	Short: "List all types in the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runTypes,
}

func runTypes(cmd *cobra.Command, args []string) error {
	m, err := loadModel(args[0])
	if err != nil {
		return err
	}

	ids := m.Types()
	for _, id := range ids {
		fmt.Fprintln(output, m.TypeName(id, metadata.DebugName))
	}
	fmt.Fprintf(output, "\n%d type(s)\n", len(ids))
	return nil
}

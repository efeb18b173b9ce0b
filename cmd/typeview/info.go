package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/membercache"
)

var infoCmd = &cobra.Command{
	Use:   "info <model-file> <type>",
	Short: "Show a type's identity and relationships",
	Args:  cobra.ExactArgs(2),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	_, rt, err := openType(args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Name: %s\n", rt.Name())
	fmt.Fprintf(output, "FullName: %s\n", rt.FullName())
	fmt.Fprintf(output, "Namespace: %s\n", rt.Namespace())
	fmt.Fprintf(output, "Kind: %s\n", rt.Kind())
	if base, ok := rt.Base(); ok {
		fmt.Fprintf(output, "Base: %s\n", base.FullName())
	}
	if enc, ok := rt.Enclosing(); ok {
		fmt.Fprintf(output, "Enclosing: %s\n", enc.FullName())
	}
	if name := rt.DefaultMemberName(); name != "" {
		fmt.Fprintf(output, "DefaultMember: %s\n", name)
	}

	ifaces := rt.GetInterfaces()
	if len(ifaces) > 0 {
		fmt.Fprintln(output, "Interfaces:")
		for _, iface := range ifaces {
			fmt.Fprintf(output, "  %s\n", iface.FullName())
		}
	}
	nested := rt.NestedTypeList(membercache.ListAll, "")
	if len(nested) > 0 {
		fmt.Fprintln(output, "Nested:")
		for _, nt := range nested {
			fmt.Fprintf(output, "  %s\n", nt.FullName())
		}
	}
	return nil
}

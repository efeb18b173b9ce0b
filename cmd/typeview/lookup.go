package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/membercache"
	"github.com/canonical/membercache/metadata"
)

var (
	lookupKind  string
	lookupSig   string
	lookupFlags []string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <model-file> <type> <member>",
	Short: "Look up a single member by name",
	Long: `Look up a member of a type by name.

Without --kind the query spans every member kind and may return several
members. With --kind the single-result accessor for that kind runs
instead, reporting an ambiguity when the name alone cannot choose. A
member name ending in '*' is a prefix query.`,
	Args: cobra.ExactArgs(3),
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupKind, "kind", "k", "", "member kind for a single-result lookup")
	lookupCmd.Flags().StringVarP(&lookupSig, "sig", "s", "", "signature, for method and constructor lookups")
	lookupCmd.Flags().StringSliceVarP(&lookupFlags, "flags", "f", nil, "binding flags")
}

func runLookup(cmd *cobra.Command, args []string) error {
	_, rt, err := openType(args[0], args[1])
	if err != nil {
		return err
	}
	name := args[2]
	flags, err := parseBindingFlags(lookupFlags)
	if err != nil {
		return err
	}

	if lookupKind == "" {
		members := rt.GetMember(name, flags)
		if len(members) == 0 {
			fmt.Fprintf(output, "No members of %s match %q\n", rt.FullName(), name)
			return nil
		}
		for _, m := range members {
			printMember(rt, m)
		}
		fmt.Fprintf(output, "\nFound %d member(s)\n", len(members))
		return nil
	}

	kind, err := kindFromName(lookupKind)
	if err != nil {
		return err
	}
	m, err := lookupSingle(rt, kind, name, flags)
	if err != nil {
		if membercache.IsAmbiguousMatch(err) {
			ambiguous := err.(*membercache.AmbiguousMatchError)
			fmt.Fprintf(output, "Ambiguous: %d members of %s match %q:\n",
				len(ambiguous.Matches), ambiguous.Type, ambiguous.Name)
			for _, match := range ambiguous.Matches {
				printMember(rt, match)
			}
			return nil
		}
		return err
	}
	if m == nil {
		fmt.Fprintf(output, "No %s of %s matches %q\n", kind, rt.FullName(), name)
		return nil
	}
	printMember(rt, m)
	return nil
}

func lookupSingle(rt *membercache.RuntimeType, kind metadata.Kind, name string, flags membercache.BindingFlags) (membercache.Member, error) {
	switch kind {
	case metadata.Method:
		if lookupSig != "" {
			m, err := rt.GetMethodWithSignature(name, metadata.NewSignature(lookupSig), flags)
			if m == nil {
				return nil, err
			}
			return m, err
		}
		m, err := rt.GetMethod(name, flags)
		if m == nil {
			return nil, err
		}
		return m, err
	case metadata.Constructor:
		c, err := rt.GetConstructor(flags, metadata.NewSignature(lookupSig))
		if c == nil {
			return nil, err
		}
		return c, err
	case metadata.Field:
		f, err := rt.GetField(name, flags)
		if f == nil {
			return nil, err
		}
		return f, err
	case metadata.Property:
		p, err := rt.GetProperty(name, flags)
		if p == nil {
			return nil, err
		}
		return p, err
	case metadata.Event:
		e, err := rt.GetEvent(name, flags)
		if e == nil {
			return nil, err
		}
		return e, err
	case metadata.Interface:
		iface, err := rt.GetInterface(name, flags)
		if iface == nil {
			return nil, err
		}
		return iface, err
	case metadata.NestedType:
		nt, err := rt.GetNestedType(name, flags)
		if nt == nil {
			return nil, err
		}
		return nt, err
	}
	return nil, fmt.Errorf("kind %s has no single-result lookup", kind)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canonical/membercache"
	"github.com/canonical/membercache/metadata"
)

var (
	membersKind  string
	membersFlags []string
)

var membersCmd = &cobra.Command{
	Use:   "members <model-file> <type>",
	Short: "List the members reachable from a type",
	Long: `List the members reachable from a type, inherited ones included.

The --flags option takes binding flags controlling the view, any of:
declared-only, instance, static, public, non-public, flatten, ignore-case.
Without it the default lookup (public, instance, static) applies.`,
	Args: cobra.ExactArgs(2),
	RunE: runMembers,
}

func init() {
	membersCmd.Flags().StringVarP(&membersKind, "kind", "k", "", "restrict to one member kind (method, constructor, field, property, event, interface, nested)")
	membersCmd.Flags().StringSliceVarP(&membersFlags, "flags", "f", nil, "binding flags")
}

var flagNames = map[string]membercache.BindingFlags{
	"declared-only": membercache.DeclaredOnly,
	"instance":      membercache.Instance,
	"static":        membercache.Static,
	"public":        membercache.Public,
	"non-public":    membercache.NonPublic,
	"flatten":       membercache.FlattenHierarchy,
	"ignore-case":   membercache.IgnoreCase,
}

func parseBindingFlags(names []string) (membercache.BindingFlags, error) {
	var flags membercache.BindingFlags
	for _, name := range names {
		f, ok := flagNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown binding flag %q", name)
		}
		flags |= f
	}
	return flags, nil
}

func runMembers(cmd *cobra.Command, args []string) error {
	_, rt, err := openType(args[0], args[1])
	if err != nil {
		return err
	}
	flags, err := parseBindingFlags(membersFlags)
	if err != nil {
		return err
	}

	var members []membercache.Member
	switch membersKind {
	case "":
		members = rt.GetMembers(flags)
	case "method":
		for _, m := range rt.GetMethods(flags) {
			members = append(members, m)
		}
	case "constructor":
		for _, m := range rt.GetConstructors(flags) {
			members = append(members, m)
		}
	case "field":
		for _, m := range rt.GetFields(flags) {
			members = append(members, m)
		}
	case "property":
		for _, m := range rt.GetProperties(flags) {
			members = append(members, m)
		}
	case "event":
		for _, m := range rt.GetEvents(flags) {
			members = append(members, m)
		}
	case "interface":
		for _, m := range rt.GetInterfaces() {
			members = append(members, m)
		}
	case "nested":
		for _, m := range rt.GetNestedTypes(flags) {
			members = append(members, m)
		}
	default:
		return fmt.Errorf("unknown member kind: %s", membersKind)
	}

	for _, m := range members {
		printMember(rt, m)
	}
	fmt.Fprintf(output, "\n%d member(s)\n", len(members))
	return nil
}

func printMember(rt *membercache.RuntimeType, m membercache.Member) {
	detail := ""
	switch v := m.(type) {
	case *membercache.Method:
		detail = v.Signature().String()
		if v.IsVirtual() {
			detail += fmt.Sprintf(" [slot %d]", v.VirtualSlot())
		}
	case *membercache.Constructor:
		detail = v.Signature().String()
	case *membercache.Field:
		detail = v.FieldType().String()
	case *membercache.Property:
		detail = v.Signature().String()
	case *membercache.Event:
		detail = v.HandlerType().String()
	case *membercache.RuntimeType:
		detail = v.FullName()
	}

	origin := ""
	if m.Inherited() {
		origin = fmt.Sprintf(" (inherited from %s)",
			rt.Cache().Type(m.DeclaringType()).FullName())
	}
	fmt.Fprintf(output, "%-12s %s %s%s\n", m.Kind(), m.Name(), detail, origin)
}

func kindFromName(name string) (metadata.Kind, error) {
	switch strings.ToLower(name) {
	case "method":
		return metadata.Method, nil
	case "constructor":
		return metadata.Constructor, nil
	case "field":
		return metadata.Field, nil
	case "property":
		return metadata.Property, nil
	case "event":
		return metadata.Event, nil
	case "interface":
		return metadata.Interface, nil
	case "nested":
		return metadata.NestedType, nil
	}
	return 0, fmt.Errorf("unknown member kind: %s", name)
}

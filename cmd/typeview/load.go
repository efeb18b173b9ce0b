package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/canonical/membercache"
	"github.com/canonical/membercache/metadata"
)

// modelFile is the YAML schema for a type model. Types are declared in
// dependency order: a base, implemented interface or enclosing type must
// appear before the types that reference it.
type modelFile struct {
	Types []typeSpec `yaml:"types"`
}

type typeSpec struct {
	Name          string   `yaml:"name"`
	Namespace     string   `yaml:"namespace"`
	Interface     bool     `yaml:"interface"`
	Base          string   `yaml:"base"`
	Implements    []string `yaml:"implements"`
	NestedIn      string   `yaml:"nested-in"`
	DefaultMember string   `yaml:"default-member"`
	Attrs         []string `yaml:"attrs"`

	Constructors []memberSpec `yaml:"constructors"`
	Methods      []memberSpec `yaml:"methods"`
	Fields       []memberSpec `yaml:"fields"`
	Properties   []memberSpec `yaml:"properties"`
	Events       []memberSpec `yaml:"events"`
}

type memberSpec struct {
	Name  string   `yaml:"name"`
	Sig   string   `yaml:"sig"`
	Type  string   `yaml:"type"`
	Attrs []string `yaml:"attrs"`
}

var attrNames = map[string]metadata.Attr{
	"public":   metadata.Public,
	"private":  metadata.Private,
	"static":   metadata.Static,
	"virtual":  metadata.Virtual,
	"abstract": metadata.Abstract,
	"final":    metadata.Final,
	"literal":  metadata.Literal,
}

func parseAttrs(names []string) (metadata.Attr, error) {
	var attrs metadata.Attr
	for _, name := range names {
		a, ok := attrNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown attribute %q", name)
		}
		attrs |= a
	}
	return attrs, nil
}

// loadModel reads a YAML model file and assembles the metadata it
// describes.
func loadModel(path string) (*metadata.Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	var mf modelFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}

	b := metadata.NewBuilder()
	builders := map[string]*metadata.TypeBuilder{}
	resolve := func(name, role string) (*metadata.TypeBuilder, error) {
		tb, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("%s type %q is not declared earlier in the file", role, name)
		}
		return tb, nil
	}

	for _, ts := range mf.Types {
		if ts.Name == "" {
			return nil, fmt.Errorf("type with empty name")
		}
		if _, ok := builders[ts.Name]; ok {
			return nil, fmt.Errorf("type %q declared twice", ts.Name)
		}

		var opts []metadata.TypeOption
		if ts.Namespace != "" {
			opts = append(opts, metadata.InNamespace(ts.Namespace))
		}
		if ts.Interface {
			opts = append(opts, metadata.AsInterface())
		}
		if ts.Base != "" {
			base, err := resolve(ts.Base, "base")
			if err != nil {
				return nil, err
			}
			opts = append(opts, metadata.WithBase(base))
		}
		for _, name := range ts.Implements {
			iface, err := resolve(name, "implemented")
			if err != nil {
				return nil, err
			}
			opts = append(opts, metadata.Implements(iface))
		}
		if ts.NestedIn != "" {
			outer, err := resolve(ts.NestedIn, "enclosing")
			if err != nil {
				return nil, err
			}
			opts = append(opts, metadata.NestedIn(outer))
		}
		if ts.DefaultMember != "" {
			opts = append(opts, metadata.WithDefaultMember(ts.DefaultMember))
		}
		if len(ts.Attrs) > 0 {
			attrs, err := parseAttrs(ts.Attrs)
			if err != nil {
				return nil, fmt.Errorf("type %q: %w", ts.Name, err)
			}
			opts = append(opts, metadata.WithAttrs(attrs))
		}

		tb := b.Type(ts.Name, opts...)
		builders[ts.Name] = tb

		if err := addMembers(tb, ts); err != nil {
			return nil, fmt.Errorf("type %q: %w", ts.Name, err)
		}
	}
	return b.Build(), nil
}

func addMembers(tb *metadata.TypeBuilder, ts typeSpec) error {
	for _, ms := range ts.Constructors {
		attrs, err := parseAttrs(ms.Attrs)
		if err != nil {
			return err
		}
		tb.Constructor(attrs, ms.Sig)
	}
	for _, ms := range ts.Methods {
		attrs, err := parseAttrs(ms.Attrs)
		if err != nil {
			return err
		}
		tb.Method(ms.Name, attrs, ms.Sig)
	}
	for _, ms := range ts.Fields {
		attrs, err := parseAttrs(ms.Attrs)
		if err != nil {
			return err
		}
		tb.Field(ms.Name, attrs, ms.Type)
	}
	for _, ms := range ts.Properties {
		attrs, err := parseAttrs(ms.Attrs)
		if err != nil {
			return err
		}
		tb.Property(ms.Name, attrs, ms.Sig)
	}
	for _, ms := range ts.Events {
		attrs, err := parseAttrs(ms.Attrs)
		if err != nil {
			return err
		}
		tb.Event(ms.Name, attrs, ms.Type)
	}
	return nil
}

// openType loads a model and resolves a type name against it.
func openType(modelPath, typeName string) (*membercache.Cache, *membercache.RuntimeType, error) {
	m, err := loadModel(modelPath)
	if err != nil {
		return nil, nil, err
	}
	id, ok := m.TypeByName(typeName)
	if !ok {
		return nil, nil, fmt.Errorf("type %q not found in model", typeName)
	}
	cache := membercache.NewCache(m)
	return cache, cache.Type(id), nil
}

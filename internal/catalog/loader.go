package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var defaultConfig []byte

const (
	keyIgnoreNamespaces = "ignore-namespaces"
	keyRules            = "rules"
)

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultConfig)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		var cerr *ConfigError
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return c, nil
}

// Parse decodes a catalog document. Mapping order in the document is the
// order rules are evaluated and reported in.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("syntax error: %v", err)}
	}
	c := New()
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, &ConfigError{Msg: "empty document"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nodeError(root, "top level must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case keyIgnoreNamespaces:
			names, err := stringList(val)
			if err != nil {
				return nil, err
			}
			c.IgnoreNamespaces = names
		case keyRules:
			if err := parseRules(c, val); err != nil {
				return nil, err
			}
		default:
			return nil, nodeError(key, fmt.Sprintf("unknown key %q", key.Value))
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseRules(c *Catalog, n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return nodeError(n, "rules must be a mapping of scope to pillars")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		scopeKey, pillars := n.Content[i], n.Content[i+1]
		scope := Scope(scopeKey.Value)
		if !scope.Valid() {
			return nodeError(scopeKey, fmt.Sprintf("unknown scope %q (want %s or %s)", scope, ClusterWide, NamespaceBased))
		}
		if pillars.Kind != yaml.MappingNode || len(pillars.Content) == 0 {
			return nodeError(pillars, fmt.Sprintf("%s: expected a mapping of pillars", scope))
		}
		for j := 0; j+1 < len(pillars.Content); j += 2 {
			pillarKey, sections := pillars.Content[j], pillars.Content[j+1]
			if sections.Kind != yaml.MappingNode || len(sections.Content) == 0 {
				return nodeError(sections, fmt.Sprintf("%s/%s: expected a mapping of sections", scope, pillarKey.Value))
			}
			for k := 0; k+1 < len(sections.Content); k += 2 {
				sectionKey, ids := sections.Content[k], sections.Content[k+1]
				where := fmt.Sprintf("%s/%s/%s", scope, pillarKey.Value, sectionKey.Value)
				list, err := stringList(ids)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					return nodeError(ids, where+": section has no rules")
				}
				c.Add(scope, pillarKey.Value, sectionKey.Value, list...)
			}
		}
	}
	return nil
}

func stringList(n *yaml.Node) ([]string, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeError(n, "expected a list of strings")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
			return nil, nodeError(item, fmt.Sprintf("expected a string, got %q", item.Value))
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func nodeError(n *yaml.Node, msg string) *ConfigError {
	return &ConfigError{Line: n.Line, Msg: msg}
}

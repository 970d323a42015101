package taxonomy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	keyModules    = "modules"
	keyErrors     = "errors"
	keySubmodules = "submodules"
)

// ParseYAML builds a Taxonomy from a YAML document. The document is decoded
// into a yaml.Node tree so mapping order and key positions survive.
func ParseYAML(source string, data []byte) (*Taxonomy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedError{File: source, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	p := yamlParser{tax: &Taxonomy{Source: source}}
	if len(doc.Content) == 0 {
		return nil, p.tax.malformed(Pos{}, "", "empty document")
	}
	if err := p.root(doc.Content[0]); err != nil {
		return nil, err
	}
	if err := p.tax.Validate(); err != nil {
		return nil, err
	}
	return p.tax, nil
}

type yamlParser struct {
	tax *Taxonomy
}

type yamlPair struct {
	key   string
	pos   Pos
	value *yaml.Node
}

func (p *yamlParser) root(n *yaml.Node) error {
	pairs, err := p.mapping(n, "")
	if err != nil {
		return err
	}
	for _, kv := range pairs {
		if kv.key != keyModules {
			return p.tax.malformed(kv.pos, kv.key, "unknown top-level key")
		}
		modules, err := p.mapping(kv.value, keyModules)
		if err != nil {
			return err
		}
		p.tax.Modules = make([]Module, 0, len(modules))
		for _, m := range modules {
			mod, err := p.module(m)
			if err != nil {
				return err
			}
			p.tax.Modules = append(p.tax.Modules, mod)
		}
	}
	return nil
}

func (p *yamlParser) module(kv yamlPair) (Module, error) {
	path := joinPath(keyModules, kv.key)
	mod := Module{Name: kv.key, Pos: kv.pos}
	pairs, err := p.mapping(kv.value, path)
	if err != nil {
		return Module{}, err
	}
	for _, f := range pairs {
		switch f.key {
		case keyErrors:
			if mod.Errors, err = p.errors(f.value, joinPath(path, keyErrors)); err != nil {
				return Module{}, err
			}
		case keySubmodules:
			subs, err := p.mapping(f.value, joinPath(path, keySubmodules))
			if err != nil {
				return Module{}, err
			}
			mod.Submodules = make([]Submodule, 0, len(subs))
			for _, s := range subs {
				sub, err := p.submodule(s, joinPath(path, keySubmodules, s.key))
				if err != nil {
					return Module{}, err
				}
				mod.Submodules = append(mod.Submodules, sub)
			}
		default:
			return Module{}, p.tax.malformed(f.pos, joinPath(path, f.key), "unknown module key (expected errors or submodules)")
		}
	}
	return mod, nil
}

func (p *yamlParser) submodule(kv yamlPair, path string) (Submodule, error) {
	sub := Submodule{Name: kv.key, Pos: kv.pos}
	pairs, err := p.mapping(kv.value, path)
	if err != nil {
		return Submodule{}, err
	}
	for _, f := range pairs {
		switch f.key {
		case keyErrors:
			if sub.Errors, err = p.errors(f.value, joinPath(path, keyErrors)); err != nil {
				return Submodule{}, err
			}
		case keySubmodules:
			return Submodule{}, p.tax.malformed(f.pos, joinPath(path, f.key), "submodules cannot be nested")
		default:
			return Submodule{}, p.tax.malformed(f.pos, joinPath(path, f.key), "unknown submodule key (expected errors)")
		}
	}
	return sub, nil
}

func (p *yamlParser) errors(n *yaml.Node, path string) ([]Error, error) {
	pairs, err := p.mapping(n, path)
	if err != nil {
		return nil, err
	}
	out := make([]Error, 0, len(pairs))
	for _, kv := range pairs {
		v := kv.value
		if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" {
			return nil, p.tax.malformed(nodePos(v), joinPath(path, kv.key), "description must be a string, got "+kindName(v))
		}
		out = append(out, Error{Name: kv.key, Description: v.Value, Pos: kv.pos})
	}
	return out, nil
}

// mapping returns the key/value pairs of a mapping node in document order.
func (p *yamlParser) mapping(n *yaml.Node, path string) ([]yamlPair, error) {
	n = deref(n)
	if n.Kind != yaml.MappingNode {
		return nil, p.tax.malformed(nodePos(n), path, "expected mapping, got "+kindName(n))
	}
	pairs := make([]yamlPair, 0, len(n.Content)/2)
	seen := make(map[string]Pos, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := deref(n.Content[i])
		pos := nodePos(k)
		if k.Kind != yaml.ScalarNode || k.ShortTag() != "!!str" {
			if k.ShortTag() == "!!merge" {
				return nil, p.tax.malformed(pos, path, "merge keys are not supported")
			}
			return nil, p.tax.malformed(pos, path, "keys must be strings, got "+kindName(k))
		}
		if prev, dup := seen[k.Value]; dup {
			return nil, p.tax.malformed(pos, joinPath(path, k.Value), fmt.Sprintf("duplicate key (first declared at line %d)", prev.Line))
		}
		seen[k.Value] = pos
		pairs = append(pairs, yamlPair{key: k.Value, pos: pos, value: deref(n.Content[i+1])})
	}
	return pairs, nil
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n != nil && n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return deref(n.Content[0])
	}
	return n
}

func nodePos(n *yaml.Node) Pos {
	if n == nil {
		return Pos{}
	}
	return Pos{Line: n.Line, Column: n.Column}
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return "null"
		case "!!str":
			return "string"
		case "!!int", "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		}
		return "scalar " + n.ShortTag()
	}
	return "unknown node"
}

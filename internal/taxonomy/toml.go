package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ParseTOML builds a Taxonomy from a TOML document:
//
//	[modules.net.errors]
//	E_NET_DOWN = "Network is down"
//
//	[modules.net.submodules.dns.errors]
//	E_DNS_TIMEOUT = "Resolver timed out"
//
// TOML tables decode into Go maps, so declaration order is recovered from
// MetaData.Keys. Keys the metadata does not report fall back to byte order
// after the ones it does.
//
// The decoder does not expose key positions, so a MalformedError from a TOML
// document carries a line and column only for syntax errors. Structural
// errors name the key path instead.
func ParseTOML(source string, data []byte) (*Taxonomy, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		me := &MalformedError{File: source, Reason: fmt.Sprintf("invalid TOML: %v", err)}
		var pe toml.ParseError
		if errors.As(err, &pe) {
			me.Pos = tomlPos(data, pe.Position)
			me.Reason = "invalid TOML: " + pe.Message
		}
		return nil, me
	}
	p := tomlParser{tax: &Taxonomy{Source: source}, order: keyOrder(md)}
	if err := p.root(raw); err != nil {
		return nil, err
	}
	if err := p.tax.Validate(); err != nil {
		return nil, err
	}
	return p.tax, nil
}

// tomlPos converts a decoder position into a 1-based line and column.
func tomlPos(data []byte, p toml.Position) Pos {
	col := 1
	if p.Start >= 0 && p.Start <= len(data) {
		col = p.Start - bytes.LastIndexByte(data[:p.Start], '\n')
	}
	return Pos{Line: p.Line, Column: col}
}

type tomlParser struct {
	tax   *Taxonomy
	order map[string]int
}

// keyOrder indexes every key path (and every prefix of it) by first
// appearance in the document.
func keyOrder(md toml.MetaData) map[string]int {
	keys := md.Keys()
	order := make(map[string]int, len(keys)*2)
	for i, k := range keys {
		for n := 1; n <= len(k); n++ {
			id := pathID(k[:n])
			if _, ok := order[id]; !ok {
				order[id] = i
			}
		}
	}
	return order
}

func pathID(parts []string) string {
	return strings.Join(parts, "\x00")
}

type tomlEntry struct {
	key   string
	value any
}

// entries returns m's entries in document order.
func (p *tomlParser) entries(m map[string]any, parent []string) []tomlEntry {
	out := make([]tomlEntry, 0, len(m))
	for k, v := range m {
		out = append(out, tomlEntry{key: k, value: v})
	}
	rank := func(k string) (int, bool) {
		full := append(append(make([]string, 0, len(parent)+1), parent...), k)
		i, ok := p.order[pathID(full)]
		return i, ok
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := rank(out[i].key)
		rj, okj := rank(out[j].key)
		switch {
		case oki && okj && ri != rj:
			return ri < rj
		case oki != okj:
			return oki
		}
		return out[i].key < out[j].key
	})
	return out
}

func (p *tomlParser) table(v any, path []string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, p.tax.malformed(Pos{}, joinPath(path...), "expected table, got "+tomlKind(v))
	}
	return m, nil
}

func (p *tomlParser) root(raw map[string]any) error {
	for _, e := range p.entries(raw, nil) {
		if e.key != keyModules {
			return p.tax.malformed(Pos{}, e.key, "unknown top-level key")
		}
		path := []string{keyModules}
		modules, err := p.table(e.value, path)
		if err != nil {
			return err
		}
		for _, m := range p.entries(modules, path) {
			mod, err := p.module(m, append(path, m.key))
			if err != nil {
				return err
			}
			p.tax.Modules = append(p.tax.Modules, mod)
		}
	}
	return nil
}

func (p *tomlParser) module(e tomlEntry, path []string) (Module, error) {
	mod := Module{Name: e.key}
	fields, err := p.table(e.value, path)
	if err != nil {
		return Module{}, err
	}
	for _, f := range p.entries(fields, path) {
		fpath := append(append([]string(nil), path...), f.key)
		switch f.key {
		case keyErrors:
			if mod.Errors, err = p.errors(f.value, fpath); err != nil {
				return Module{}, err
			}
		case keySubmodules:
			subs, err := p.table(f.value, fpath)
			if err != nil {
				return Module{}, err
			}
			for _, s := range p.entries(subs, fpath) {
				sub, err := p.submodule(s, append(append([]string(nil), fpath...), s.key))
				if err != nil {
					return Module{}, err
				}
				mod.Submodules = append(mod.Submodules, sub)
			}
		default:
			return Module{}, p.tax.malformed(Pos{}, joinPath(fpath...), "unknown module key (expected errors or submodules)")
		}
	}
	return mod, nil
}

func (p *tomlParser) submodule(e tomlEntry, path []string) (Submodule, error) {
	sub := Submodule{Name: e.key}
	fields, err := p.table(e.value, path)
	if err != nil {
		return Submodule{}, err
	}
	for _, f := range p.entries(fields, path) {
		fpath := append(append([]string(nil), path...), f.key)
		switch f.key {
		case keyErrors:
			if sub.Errors, err = p.errors(f.value, fpath); err != nil {
				return Submodule{}, err
			}
		case keySubmodules:
			return Submodule{}, p.tax.malformed(Pos{}, joinPath(fpath...), "submodules cannot be nested")
		default:
			return Submodule{}, p.tax.malformed(Pos{}, joinPath(fpath...), "unknown submodule key (expected errors)")
		}
	}
	return sub, nil
}

func (p *tomlParser) errors(v any, path []string) ([]Error, error) {
	m, err := p.table(v, path)
	if err != nil {
		return nil, err
	}
	entries := p.entries(m, path)
	out := make([]Error, 0, len(entries))
	for _, e := range entries {
		desc, ok := e.value.(string)
		if !ok {
			return nil, p.tax.malformed(Pos{}, joinPath(append(path, e.key)...), "description must be a string, got "+tomlKind(e.value))
		}
		out = append(out, Error{Name: e.key, Description: desc})
	}
	return out, nil
}

func tomlKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "table"
	case []map[string]any:
		return "array of tables"
	case []any:
		return "array"
	case string:
		return "string"
	case int64, float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "nothing"
	}
	return fmt.Sprintf("%T", v)
}

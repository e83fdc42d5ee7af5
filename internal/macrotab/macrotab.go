// Package macrotab implements the macro table of spec.md §3/§4.3: a
// chained, dotted-namespace-aware map from macro name to its cloned-on-
// demand body, parameters, and defaults, generalized from
// internal/symtab's parent-chain shape (itself adapted from the
// teacher's scope.Scope), since the original keeps macros and
// properties in structurally identical chained dict tables (Table and
// its NameSpace subclass).
package macrotab

import (
	"fmt"
	"regexp"
	"strings"
)

// Param is one parsed macro parameter: a plain name, or a block
// parameter (spec.md §4.3: params whose name is prefixed with `*` or
// `**` bind to a child element or a list of remaining children).
type Param struct {
	Name       string
	Block      bool // true for `*name` (single block parameter)
	BlockRest  bool // true for `**name` (remaining-children parameter)
	Forward    string
	Default    string // only meaningful when HasDefault is true
	HasDefault bool
}

// Macro is one macro definition: its body (an opaque handle to the
// owning *xmlnode.Node, kept as `any` here for the same reason
// value.Value.Node is `any` — avoiding an import cycle with xmlnode),
// its ordered parameter list, and its redefinition history.
type Macro struct {
	Body    any
	Params  []Param
	History [][]string // snapshot of the file stack at each (re)definition
}

// Table is one link in the chained macro table.
type Table struct {
	macros    map[string]*Macro
	children  map[string]*Table // nested namespace tables, keyed by ns name
	parent    *Table
	namespace bool
}

// NewRoot creates the top-level macro table.
func NewRoot() *Table {
	return &Table{macros: map[string]*Macro{}, children: map[string]*Table{}}
}

// NewChild creates a macro table nested under parent (entered when
// walking into a macro body's own scope, mirroring symtab.NewChild).
func NewChild(parent *Table) *Table {
	return &Table{macros: map[string]*Macro{}, children: map[string]*Table{}, parent: parent}
}

// NewNamespace creates (or returns, if already present) the nested
// namespace table named ns under parent, used by `xacro:include
// ns="foo"` (spec.md §4.3).
func (t *Table) NewNamespace(ns string) *Table {
	if existing, ok := t.children[ns]; ok {
		return existing
	}
	child := &Table{macros: map[string]*Macro{}, children: map[string]*Table{}, parent: t, namespace: true}
	t.children[ns] = child
	return child
}

// Define registers or redefines name in this table, appending to its
// redefinition history (spec.md §4.3 macro: "redefinition is allowed
// and recorded for diagnostics").
func (t *Table) Define(name string, m *Macro, fileStack []string) {
	if existing, ok := t.macros[name]; ok {
		m.History = append(existing.History, append([]string{}, fileStack...))
	} else {
		m.History = [][]string{append([]string{}, fileStack...)}
	}
	t.macros[name] = m
}

// Lookup resolves a macro name, first trying it as a single flat key in
// this table chain, then — if that fails and the name contains dots —
// splitting it into a leading namespace path and a trailing bare name,
// traversing the namespace children (spec.md §4.3's `resolve_macro`).
func (t *Table) Lookup(fullname string) (*Macro, error) {
	if m, ok := t.lookupFlat(fullname); ok {
		return m, nil
	}
	if !strings.Contains(fullname, ".") {
		return nil, fmt.Errorf("unknown macro name: xacro:%s", fullname)
	}
	parts := strings.Split(fullname, ".")
	name := parts[len(parts)-1]
	nsPath := parts[:len(parts)-1]

	cur := t
	for cur.parent != nil {
		cur = cur.parent
	}
	for _, ns := range nsPath {
		child, ok := cur.children[ns]
		if !ok {
			return nil, fmt.Errorf("unknown macro name: xacro:%s", fullname)
		}
		cur = child
	}
	if m, ok := cur.macros[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown macro name: xacro:%s", fullname)
}

func (t *Table) lookupFlat(name string) (*Macro, bool) {
	if m, ok := t.macros[name]; ok {
		return m, true
	}
	if t.parent != nil {
		return t.parent.lookupFlat(name)
	}
	return nil, false
}

// ParseParams parses a macro's `params` attribute string into an
// ordered parameter list, per spec.md §4.3's grammar: whitespace-
// separated entries of `name`, `name:=default`, `name=default`,
// `name:=^` / `name:=^|default` (forwarded parameter, looked up by name
// in the caller's scope, falling back to the default if given),
// `*name` (single block param), or `**name` (remaining-children param).
func ParseParams(params string) ([]Param, error) {
	var out []Param
	rest := params
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		p, remainder, err := parseOneParam(rest)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		rest = remainder
	}
	return out, nil
}

// paramRe mirrors the original's `re_macro_arg`/`default_value`
// (__init__.py:581-582): name, `:=`/`=`, an optional `^`/`^|` forward
// marker, then a default that is either a `${...}`/`$(...)` expression,
// a run of single/double-quoted and bare segments, or nothing at all.
// Matching the whole remainder (not a pre-split first field) is what
// lets a `${...}`/`$(...)` default containing spaces survive intact.
var paramRe = regexp.MustCompile(`^\s*([^\s:=]+?)\s*:?=\s*(\^\|?)?(\$\{.*?\}|\$\(.*?\)|(?:'[^']*'|"[^"]*"|[^\s'"]+)+|)(?:\s+|$)(.*)$`)

func parseOneParam(s string) (Param, string, error) {
	if strings.HasPrefix(s, "**") {
		name, rest := splitHead(strings.TrimPrefix(s, "**"))
		return Param{Name: name, BlockRest: true}, rest, nil
	}
	if strings.HasPrefix(s, "*") {
		name, rest := splitHead(strings.TrimPrefix(s, "*"))
		return Param{Name: name, Block: true}, rest, nil
	}

	if m := paramRe.FindStringSubmatch(s); m != nil {
		name, forwardMarker, def, rest := m[1], m[2], m[3], m[4]
		p := Param{Name: name}
		if forwardMarker != "" {
			p.Forward = name
		}
		if def != "" {
			p.Default = def
			p.HasDefault = true
		}
		return p, rest, nil
	}

	name, rest := splitHead(s)
	return Param{Name: name}, rest, nil
}

// splitHead splits s at its first run of whitespace, used for params
// with no `:=`/`=` (and thus no default to protect from mid-expression
// truncation).
func splitHead(s string) (string, string) {
	fields := strings.SplitN(strings.TrimSpace(s), " ", 2)
	head := fields[0]
	rest := ""
	if len(fields) == 2 {
		rest = fields[1]
	}
	return head, rest
}

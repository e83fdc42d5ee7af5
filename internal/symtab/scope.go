// Package symtab implements the scoped symbol table of spec.md §3/§4.2:
// a chain of scopes with lazy evaluation, root-scope protection, and
// cycle detection. The chaining and lookup/bind/assign shape is
// generalized from the teacher's scope.Scope (LookUp/Bind/Assign/Copy),
// re-targeted from eager variable binding to the lazy, cycle-checked
// model xacro properties require.
package symtab

import (
	"fmt"
	"strings"

	"github.com/xacro-go/xacro/internal/value"
)

// Evaluator re-evaluates a raw text binding into a typed Value. It is
// implemented by package textexpr; Scope only holds the interface so
// that this package never imports the text/expression evaluator
// (which itself depends on Scope for identifier lookup).
type Evaluator interface {
	EvalText(text string, scope *Scope) (value.Value, error)
}

// CircularDefinitionError reports a property reference cycle, spec.md §7.
type CircularDefinitionError struct {
	Chain []string
}

func (e *CircularDefinitionError) Error() string {
	s := e.Chain[0]
	for _, k := range e.Chain[1:] {
		s += " -> " + k
	}
	return fmt.Sprintf("circular variable definition: %s\nConsider disabling lazy evaluation via lazy_eval=\"false\"", s)
}

// UnknownSymbolError reports a failed lookup, spec.md §7.
type UnknownSymbolError struct {
	Name string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol: %s", e.Name)
}

type binding struct {
	value       value.Value
	rawText     string
	unevaluated bool
}

// Diagnostics receives shadow/redefinition/delete warnings (spec.md §7:
// "Diagnostics below the error threshold ... do not interrupt
// evaluation"). A nil Diagnostics silently drops warnings.
type Diagnostics interface {
	Warnf(format string, args ...any)
}

// Scope is one link in the chained symbol table.
type Scope struct {
	vars      map[string]*binding
	children  map[string]*Scope // named namespace children, keyed by ns name
	resolving []string
	parent    *Scope
	root      *Scope
	namespace bool
	eval      Evaluator
	diag      Diagnostics
}

// NewRoot creates the top-level (global) scope. It has no parent, and is
// its own root; writes to it never trigger the "shadowing a root-scope
// entry" warning (spec.md §3 invariant ii).
func NewRoot(eval Evaluator, diag Diagnostics) *Scope {
	s := &Scope{vars: make(map[string]*binding), eval: eval, diag: diag}
	s.root = s
	return s
}

// NewChild creates a scope nested under parent, sharing its root and
// evaluator/diagnostics.
func NewChild(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]*binding),
		parent: parent,
		root:   parent.root,
		eval:   parent.eval,
		diag:   parent.diag,
	}
}

// NewNamespace creates (or returns, if already present) the nested
// namespace scope named ns under parent, registered so that dotted
// attribute-style access ("ns.name", spec.md §3's Namespace) can reach
// it via Lookup regardless of where in the scope chain the lookup
// starts — mirroring macrotab.Table.NewNamespace, which registers
// `xacro:include ns="..."` macros the same way.
func (parent *Scope) NewNamespace(ns string) *Scope {
	if existing, ok := parent.children[ns]; ok {
		return existing
	}
	s := NewChild(parent)
	s.namespace = true
	if parent.children == nil {
		parent.children = map[string]*Scope{}
	}
	parent.children[ns] = s
	return s
}

// IsNamespace reports whether this scope is a namespace scope.
func (s *Scope) IsNamespace() bool { return s.namespace }

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Root returns the top-level global scope shared by the whole chain.
func (s *Scope) Root() *Scope { return s.root }

func (s *Scope) warnf(format string, args ...any) {
	if s.diag != nil {
		s.diag.Warnf(format, args...)
	}
}

// Has reports whether key is bound in this scope or any ancestor.
func (s *Scope) Has(key string) bool {
	if _, ok := s.vars[key]; ok {
		return true
	}
	if s.parent != nil {
		return s.parent.Has(key)
	}
	return false
}

// Get resolves key by walking the scope chain, lazily evaluating and
// detecting cycles per spec.md §4.2.
func (s *Scope) Get(key string) (value.Value, error) {
	if b, ok := s.vars[key]; ok {
		return s.resolve(key, b)
	}
	if s.parent != nil {
		return s.parent.Get(key)
	}
	return value.Value{}, &UnknownSymbolError{Name: key}
}

// Lookup resolves a possibly dotted name: first as a plain chained Get,
// then — if that fails and the name contains a dot — by splitting off
// a leading namespace path and traversing registered namespace
// children from the global root, the same two-step resolution
// macrotab.Table.Lookup applies to dotted macro names (spec.md §3's
// "attribute-style access ns.name"). The final segment is read directly
// out of the resolved namespace scope's own bindings, not its ancestors,
// since a namespace boundary should not leak the calling scope's
// same-named properties.
func (s *Scope) Lookup(fullname string) (value.Value, error) {
	if v, err := s.Get(fullname); err == nil {
		return v, nil
	}
	if !strings.Contains(fullname, ".") {
		return value.Value{}, &UnknownSymbolError{Name: fullname}
	}
	parts := strings.Split(fullname, ".")
	name := parts[len(parts)-1]
	nsPath := parts[:len(parts)-1]

	cur := s.root
	for _, ns := range nsPath {
		child, ok := cur.children[ns]
		if !ok {
			return value.Value{}, &UnknownSymbolError{Name: fullname}
		}
		cur = child
	}
	if b, ok := cur.vars[name]; ok {
		return cur.resolve(name, b)
	}
	return value.Value{}, &UnknownSymbolError{Name: fullname}
}

func (s *Scope) resolve(key string, b *binding) (value.Value, error) {
	if b.unevaluated {
		for _, r := range s.resolving {
			if r == key {
				chain := append(append([]string{}, s.resolving...), key)
				return value.Value{}, &CircularDefinitionError{Chain: chain}
			}
		}
		s.resolving = append(s.resolving, key)
		v, err := s.eval.EvalText(b.rawText, s)
		s.resolving = s.resolving[:len(s.resolving)-1]
		if err != nil {
			return value.Value{}, err
		}
		if v.Kind == value.Text {
			v = value.CoerceLiteral(v.S)
		}
		b.value = v
		b.unevaluated = false
		return b.value, nil
	}
	return b.value, nil
}

// Set binds key in this scope to an already-typed value. If v is textual
// and unevaluated is true, resolution is deferred to first read
// (spec.md §4.2 Insert). A write that shadows a root-scope entry emits a
// warning but proceeds (spec.md §3 invariant ii).
func (s *Scope) Set(key string, v value.Value, unevaluated bool) {
	if s != s.root {
		if _, ok := s.root.vars[key]; ok {
			s.warnf("redefining global symbol: %s", key)
		}
	}
	if v.Kind == value.Text {
		v = value.CoerceLiteral(v.S)
	}
	b := &binding{value: v}
	if unevaluated && v.Kind == value.Text {
		b.unevaluated = true
		b.rawText = v.S
	}
	s.vars[key] = b
}

// SetRaw binds key to raw, unevaluated text, deferring evaluation to
// first read. This is the common case for `xacro:property value="..."`.
func (s *Scope) SetRaw(key, raw string) {
	s.Set(key, value.NewText(raw), true)
}

// Delete removes key from the scope chain up to but not including the
// root (spec.md §3 invariant iii / §4.2 Delete). Deleting from the root
// itself is a no-op warning.
func (s *Scope) Delete(key string) {
	p := s
	for p != p.root {
		delete(p.vars, key)
		p = p.parent
	}
	if _, ok := s.root.vars[key]; ok {
		s.warnf("cannot remove global symbol: %s", key)
	}
}

// Top walks parents until the direct child of root and returns it. Used
// by `scope="global"` (spec.md §4.3 property). If s is already the root
// or its direct child, Top returns s itself (matching the original's
// `while p.parent is not p.root`).
func (s *Scope) Top() *Scope {
	p := s
	for p.parent != nil && p.parent != p.root {
		p = p.parent
	}
	return p
}

// ParentSkippingNamespaces returns the scope `scope="parent"` targets
// (spec.md §4.3): the immediate parent, then, unless s itself is a
// namespace scope, walked further up past any namespace scopes
// introduced by `xacro:include ns="..."` until a non-namespace scope
// (the actual caller's scope) is reached.
func (s *Scope) ParentSkippingNamespaces() (*Scope, bool) {
	if s.parent == nil {
		return nil, false
	}
	p := s.parent
	if !s.namespace {
		for p.namespace && p.parent != nil {
			p = p.parent
		}
	}
	return p, true
}

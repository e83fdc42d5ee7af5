package walker

import (
	"fmt"

	"github.com/xacro-go/xacro/internal/macrotab"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/textexpr"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xerr"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

// handleMacroCall implements macro invocation (spec.md §4.3): clones the
// macro body, binds attributes and block children as parameters in a
// freshly chained scope/macro table, applies defaults and forwarded
// values for whatever the caller left unfilled, recursively walks the
// cloned body, then splices the walked body's children in place of the
// call site. tagName is the element's own local name for a direct
// xacro:<macro> call, or the resolved target of xacro:call.
func handleMacroCall(tagName string, el *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table, ev *textexpr.Evaluator) (int, error) {
	ctx := ev.Ctx
	name := tagName

	if tagName == "call" {
		dyn, err := requireAttr(el, "macro")
		if err != nil {
			return 0, err
		}
		v, err := ev.EvalText(dyn, scope)
		if err != nil {
			return 0, err
		}
		name = v.String()
		el.RemoveAttr("macro")
	}

	m, err := macros.Lookup(name)
	if err != nil {
		return 0, err
	}
	body, ok := m.Body.(*xmlnode.Node)
	if !ok {
		return 0, fmt.Errorf("macrotab: macro %q has no recorded body", name)
	}

	if err := ctx.PushMacro(name); err != nil {
		return 0, err
	}
	defer ctx.PopMacro()

	bodyClone := body.Clone()
	callScope := symtab.NewChild(scope)
	callMacros := macrotab.NewChild(macros)

	paramByName := make(map[string]macrotab.Param, len(m.Params))
	for _, p := range m.Params {
		paramByName[p.Name] = p
	}
	used := make(map[string]bool, len(m.Params))

	for _, a := range el.Attrs {
		p, ok := paramByName[a.Name.Local]
		if !ok {
			return 0, xerr.NewBadArity(fmt.Sprintf("macro %q: unknown parameter %q", name, a.Name.Local))
		}
		v, err := ev.EvalText(a.Value, scope)
		if err != nil {
			return 0, err
		}
		callScope.Set(p.Name, v, false)
		used[p.Name] = true
	}

	blocks := elementChildren(el)
	idx := 0
	for _, p := range m.Params {
		switch {
		case p.Block:
			if idx >= len(blocks) {
				return 0, xerr.NewBadArity(fmt.Sprintf("macro %q: missing block parameter %q", name, p.Name))
			}
			b := blocks[idx]
			idx++
			if err := Walk(ev, b, scope, macros); err != nil {
				return 0, err
			}
			callScope.Set(p.Name, value.NewNode(b.Clone()), false)
			used[p.Name] = true
		case p.BlockRest:
			rest := blocks[idx:]
			idx = len(blocks)
			list := make([]value.Value, 0, len(rest))
			for _, b := range rest {
				if err := Walk(ev, b, scope, macros); err != nil {
					return 0, err
				}
				list = append(list, value.NewNode(b.Clone()))
			}
			callScope.Set(p.Name, value.NewList(list), false)
			used[p.Name] = true
		}
	}
	if idx < len(blocks) {
		return 0, xerr.NewBadArity(fmt.Sprintf("macro %q: too many block children supplied at call site", name))
	}

	for _, p := range m.Params {
		if used[p.Name] {
			continue
		}
		switch {
		case p.Forward != "":
			v, err := scope.Get(p.Forward)
			if err != nil {
				if !p.HasDefault {
					return 0, xerr.NewBadArity(fmt.Sprintf("macro %q: forwarded parameter %q is undefined in the calling scope", name, p.Name))
				}
				v, err = ev.EvalText(p.Default, scope)
				if err != nil {
					return 0, err
				}
			}
			callScope.Set(p.Name, v, false)
		case p.HasDefault:
			v, err := ev.EvalText(p.Default, scope)
			if err != nil {
				return 0, err
			}
			callScope.SetRaw(p.Name, v.String())
		case p.Block, p.BlockRest:
			// no content supplied and no default: leave unbound, matching
			// the original's tolerance for an empty block parameter.
		default:
			return 0, xerr.NewBadArity(fmt.Sprintf("macro %q: missing required parameter %q", name, p.Name))
		}
	}

	removePrecedingComments(el)

	if err := Walk(ev, bodyClone, callScope, callMacros); err != nil {
		return 0, err
	}

	replacement := bodyClone.Children
	el.ReplaceWith(replacement)
	return len(replacement), nil
}

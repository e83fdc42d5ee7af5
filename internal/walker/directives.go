package walker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xacro-go/xacro/internal/include"
	"github.com/xacro-go/xacro/internal/macrotab"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/textexpr"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
	"github.com/xacro-go/xacro/internal/xerr"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func validateName(kind, name string) error {
	if !identRe.MatchString(name) {
		return xerr.NewBadName(fmt.Sprintf("invalid %s name: %q", kind, name))
	}
	if strings.HasPrefix(name, "__") {
		return xerr.NewBadName(fmt.Sprintf("%s names starting with __ are reserved: %q", kind, name))
	}
	switch name {
	case "True", "False", "and", "or", "not", "if", "else", "in":
		return xerr.NewBadName(fmt.Sprintf("%s name %q is a reserved word", kind, name))
	}
	return nil
}

// handleProperty implements `xacro:property` (spec.md §4.3): exactly one
// of value/default/remove may be given; otherwise the element's children
// are captured as a block-style property, mirroring how macro block
// parameters capture content.
func handleProperty(ev *textexpr.Evaluator, el *xmlnode.Node, scope *symtab.Scope) (int, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return 0, err
	}
	if err := validateName("property", name); err != nil {
		return 0, err
	}

	valueAttr, hasValue := el.Attr("value")
	defaultAttr, hasDefault := el.Attr("default")
	_, hasRemove := el.Attr("remove")
	exclusive := 0
	for _, present := range []bool{hasValue, hasDefault, hasRemove} {
		if present {
			exclusive++
		}
	}
	if exclusive > 1 {
		return 0, xerr.NewBadAttribute(fmt.Sprintf("xacro:property %q: value, default and remove are mutually exclusive", name))
	}

	target := scope
	if scopeAttr, ok := el.Attr("scope"); ok {
		switch scopeAttr {
		case "global":
			target = scope.Top()
		case "parent":
			p, ok := scope.ParentSkippingNamespaces()
			if !ok {
				return 0, xerr.NewBadAttribute(fmt.Sprintf("xacro:property %q: scope=\"parent\" used at the document root", name))
			}
			target = p
		case "local":
		default:
			return 0, xerr.NewBadAttribute(fmt.Sprintf("xacro:property %q: unknown scope %q", name, scopeAttr))
		}
	}

	lazy := true
	if lazyAttr, ok := el.Attr("lazy_eval"); ok {
		lazy = lazyAttr != "false" && lazyAttr != "False"
	}

	switch {
	case hasRemove:
		target.Delete(name)
	case hasDefault:
		if !target.Has(name) {
			target.SetRaw(name, defaultAttr)
		}
	case hasValue:
		if lazy {
			target.SetRaw(name, valueAttr)
		} else {
			v, err := ev.EvalText(valueAttr, scope)
			if err != nil {
				return 0, err
			}
			target.Set(name, v, false)
		}
	default:
		var captured []value.Value
		for _, c := range elementChildren(el) {
			captured = append(captured, value.NewNode(c.Clone()))
		}
		target.Set(name, value.NewList(captured), false)
	}

	el.Remove()
	removePrecedingComments(el)
	return 0, nil
}

// handleMacroDef implements `xacro:macro` (spec.md §4.3): registers the
// cloned, not-yet-evaluated body under its params in macros and removes
// the definition from the output tree.
func handleMacroDef(el *xmlnode.Node, macros *macrotab.Table, ctx *xctx.Context) (int, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return 0, err
	}
	if err := validateName("macro", name); err != nil {
		return 0, err
	}
	var params []macrotab.Param
	if raw, ok := el.Attr("params"); ok {
		params, err = macrotab.ParseParams(raw)
		if err != nil {
			return 0, err
		}
	}
	macros.Define(name, &macrotab.Macro{Body: el.Clone(), Params: params}, ctx.FileStack)
	el.Remove()
	removePrecedingComments(el)
	return 0, nil
}

// handleArg implements `xacro:arg` (spec.md §4.3): populates
// SubstitutionArgs with a default, only if the name was not already
// supplied by the caller (command-line mapping or an enclosing arg).
func handleArg(ev *textexpr.Evaluator, el *xmlnode.Node, scope *symtab.Scope) (int, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return 0, err
	}
	if _, present := ev.Ctx.SubstitutionArgs[name]; !present {
		def, _ := el.Attr("default")
		v, err := ev.EvalText(def, scope)
		if err != nil {
			return 0, err
		}
		ev.Ctx.SubstitutionArgs[name] = v.String()
	}
	el.Remove()
	removePrecedingComments(el)
	return 0, nil
}

// handleElement implements `xacro:element` (spec.md §4.3): renames the
// node to a dynamically computed tag and continues walking it in place,
// so nested xacro:attribute children still attach to it.
func handleElement(ev *textexpr.Evaluator, parent *xmlnode.Node, el *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table) (int, error) {
	nameAttr, err := requireAttr(el, "name")
	if err != nil {
		return 0, err
	}
	v, err := ev.EvalText(nameAttr, scope)
	if err != nil {
		return 0, err
	}
	el.Name.Local = v.String()
	el.Name.Space = ""
	el.RemoveAttr("name")
	if err := Walk(ev, el, scope, macros); err != nil {
		return 0, err
	}
	return 1, nil
}

// handleAttribute implements `xacro:attribute` (spec.md §4.3): sets a
// dynamically named/valued attribute on the enclosing element.
func handleAttribute(ev *textexpr.Evaluator, parent *xmlnode.Node, el *xmlnode.Node, scope *symtab.Scope) (int, error) {
	nameAttr, err := requireAttr(el, "name")
	if err != nil {
		return 0, err
	}
	valueAttr, err := requireAttr(el, "value")
	if err != nil {
		return 0, err
	}
	name, err := ev.EvalText(nameAttr, scope)
	if err != nil {
		return 0, err
	}
	val, err := ev.EvalText(valueAttr, scope)
	if err != nil {
		return 0, err
	}
	parent.SetAttr(name.String(), val.String())
	el.Remove()
	return 0, nil
}

// handleConditional implements `xacro:if`/`xacro:unless` (spec.md §4.3):
// the subtree is kept (unwrapped, content_only) or dropped based on the
// boolean-coerced "value" attribute.
func handleConditional(ev *textexpr.Evaluator, el *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table) (int, error) {
	raw, err := requireAttr(el, "value")
	if err != nil {
		return 0, err
	}
	evaluated, err := ev.EvalText(raw, scope)
	if err != nil {
		return 0, err
	}
	keep, err := getBoolean(evaluated, raw)
	if err != nil {
		return 0, err
	}
	if el.Name.Local == "unless" {
		keep = !keep
	}
	if !keep {
		el.Remove()
		return 0, nil
	}
	if err := Walk(ev, el, scope, macros); err != nil {
		return 0, err
	}
	replacement := el.Children
	el.ReplaceWith(replacement)
	return len(replacement), nil
}

// handleInsertBlock implements `xacro:insert_block` (spec.md §4.3):
// splices in the block parameter bound under "name" — a single cloned
// node for a `*name` macro parameter, or a concatenated clone of the
// list for a `**name` parameter.
func handleInsertBlock(ev *textexpr.Evaluator, el *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table) (int, error) {
	name, err := requireAttr(el, "name")
	if err != nil {
		return 0, err
	}
	v, err := scope.Get(name)
	if err != nil {
		return 0, xerr.NewBadArity(fmt.Sprintf("xacro:insert_block: no block parameter named %q", name))
	}
	var replacement []*xmlnode.Node
	switch v.Kind {
	case value.NodeRef:
		n, ok := v.Node.(*xmlnode.Node)
		if !ok {
			return 0, xerr.NewBadArity(fmt.Sprintf("xacro:insert_block: %q is not a block parameter", name))
		}
		replacement = []*xmlnode.Node{n.Clone()}
	case value.List:
		for _, item := range v.L {
			n, ok := item.Node.(*xmlnode.Node)
			if !ok {
				return 0, xerr.NewBadArity(fmt.Sprintf("xacro:insert_block: %q is not a block parameter", name))
			}
			replacement = append(replacement, n.Clone())
		}
	default:
		return 0, xerr.NewBadArity(fmt.Sprintf("xacro:insert_block: %q is not a block parameter", name))
	}
	el.ReplaceWith(replacement)
	return len(replacement), nil
}

// handleInclude implements `xacro:include` (spec.md §4.3): resolves and
// parses every file matched by "filename" (a plain path or a glob),
// walks each in its own namespace-or-shared scope, then splices in the
// included documents' root children (content_only).
func handleInclude(ev *textexpr.Evaluator, el *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table) (int, error) {
	ctx := ev.Ctx
	filenameAttr, err := requireAttr(el, "filename")
	if err != nil {
		return 0, err
	}
	filenameVal, err := ev.EvalText(filenameAttr, scope)
	if err != nil {
		return 0, err
	}
	filename := filenameVal.String()

	optional := false
	if raw, ok := el.Attr("optional"); ok {
		v, err := ev.EvalText(raw, scope)
		if err != nil {
			return 0, err
		}
		optional, _ = getBoolean(v, raw)
	}

	nsAttr, hasNS := el.Attr("ns")
	var ns string
	if hasNS {
		v, err := ev.EvalText(nsAttr, scope)
		if err != nil {
			return 0, err
		}
		ns = v.String()
	}

	files, err := include.Resolve(filename)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		if optional {
			el.Remove()
			return 0, nil
		}
		return 0, xerr.NewIncludeFailure(filename, fmt.Errorf("no files matched"))
	}

	var spliced []*xmlnode.Node
	for _, path := range files {
		doc, loadErr := include.Load(path)
		if loadErr != nil {
			if optional && include.IsNotExist(loadErr) {
				continue
			}
			return 0, xerr.NewIncludeFailure(path, loadErr)
		}
		ctx.RecordInclude(path)
		ctx.PushFile(path)
		ctx.Depth++
		if ctx.Depth > ctx.MaxDepth {
			return 0, xerr.NewRecursionLimitExceeded(ctx.MaxDepth)
		}

		childScope := scope
		childMacros := macros
		if hasNS && ns != "" {
			childScope = scope.NewNamespace(ns)
			childMacros = macros.NewNamespace(ns)
		}
		if err := Walk(ev, doc, childScope, childMacros); err != nil {
			ctx.Depth--
			ctx.PopFile()
			return 0, err
		}
		ctx.Depth--
		ctx.PopFile()
		spliced = append(spliced, doc.Children...)
	}

	el.ReplaceWith(spliced)
	return len(spliced), nil
}

func elementChildren(el *xmlnode.Node) []*xmlnode.Node {
	var out []*xmlnode.Node
	for _, c := range el.Children {
		if c.Type == xmlnode.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

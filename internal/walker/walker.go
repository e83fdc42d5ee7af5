// Package walker implements the tree-walk algorithm of spec.md §4.4 and
// the ten directive handlers of spec.md §4.3. The directive handlers
// live in this package rather than a separate internal/directive
// package because xacro:include must recursively call back into the
// walker to process an included document before splicing it in — a
// mutual recursion the original keeps in one module (eval_all and its
// handlers), which this package mirrors.
package walker

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xacro-go/xacro/internal/macrotab"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/textexpr"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xerr"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

// Namespace is the macro namespace URI the teacher's retrieval-pack
// reference implementation conventionally binds to the "xacro:" prefix
// (spec.md §6: "The macro namespace URI is implementation-defined").
const Namespace = "http://www.ros.org/wiki/xacro"

// sentinelEmptyText mirrors the original's singleton _empty_text_node:
// a single shared node relocated to stop comment-removal from crossing
// a previously established boundary, rather than allocating a fresh
// placeholder at every directive removal.
var sentinelEmptyText = xmlnode.NewText("\n\n")

// Walk recursively evaluates node per spec.md §4.4: attributes are
// stringified or stripped, then children are processed in order,
// dispatching element children to the relevant directive handler or
// macro invocation, evaluating text nodes, and handling the
// xacro:eval-comments pragma on comment nodes.
func Walk(ev *textexpr.Evaluator, node *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table) error {
	if err := evalAttributes(ev, node, scope); err != nil {
		return err
	}
	node.RemoveAttr("xmlns:xacro")
	if node.NSDecls != nil {
		for prefix, uri := range node.NSDecls {
			if uri == Namespace {
				delete(node.NSDecls, prefix)
			}
		}
	}

	evalComments := false
	i := 0
	for i < len(node.Children) {
		child := node.Children[i]
		switch child.Type {
		case xmlnode.ElementNode:
			evalComments = false
			advance, err := processElement(ev, node, child, scope, macros)
			if err != nil {
				return err
			}
			i += advance
		case xmlnode.TextNode:
			v, err := ev.EvalText(child.Data, scope)
			if err != nil {
				return err
			}
			child.Data = v.String()
			if strings.TrimSpace(child.Data) != "" {
				evalComments = false
			}
			i++
		case xmlnode.CommentNode:
			consumed, err := processComment(ev, node, child, scope, &evalComments)
			if err != nil {
				return err
			}
			if consumed {
				// node removed in place; do not advance, next child now
				// occupies this index.
				continue
			}
			i++
		default:
			i++
		}
	}
	return nil
}

// evalAttributes implements spec.md §4.4 step 1: macro-namespace
// attributes are removed, all others are replaced by their
// text-evaluation result.
func evalAttributes(ev *textexpr.Evaluator, node *xmlnode.Node, scope *symtab.Scope) error {
	kept := node.Attrs[:0:0]
	for _, a := range node.Attrs {
		if a.Name.Space == Namespace {
			continue
		}
		v, err := ev.EvalText(a.Value, scope)
		if err != nil {
			return err
		}
		kept = append(kept, xmlnode.Attr{Name: a.Name, Value: v.String()})
	}
	node.Attrs = kept
	return nil
}

// processComment implements the xacro:eval-comments pragma: a comment
// containing that marker toggles evalComments (off if it also contains
// "xacro:eval-comments:off") and is itself dropped; while active, every
// subsequent comment's text is text-evaluated in place; otherwise
// comments are left untouched.
func processComment(ev *textexpr.Evaluator, parent *xmlnode.Node, c *xmlnode.Node, scope *symtab.Scope, evalComments *bool) (bool, error) {
	if strings.Contains(c.Data, "xacro:eval-comments") {
		*evalComments = !strings.Contains(c.Data, "xacro:eval-comments:off")
		c.Remove()
		return true, nil
	}
	if *evalComments {
		v, err := ev.EvalText(c.Data, scope)
		if err != nil {
			return false, err
		}
		c.Data = v.String()
	}
	return false, nil
}

// processElement dispatches a single element child to the relevant
// directive handler or macro invocation, per spec.md §4.3/§4.4. It
// returns the number of sibling-index positions to advance past: zero
// when the element was consumed/removed (so the same index is
// reconsidered), or the length of any already-processed replacement
// content spliced in at this position.
func processElement(ev *textexpr.Evaluator, parent *xmlnode.Node, el *xmlnode.Node, scope *symtab.Scope, macros *macrotab.Table) (int, error) {
	if el.Name.Space != Namespace {
		if err := Walk(ev, el, scope, macros); err != nil {
			return 0, err
		}
		return 1, nil
	}

	switch el.Name.Local {
	case "insert_block":
		return handleInsertBlock(ev, el, scope, macros)
	case "include":
		return handleInclude(ev, el, scope, macros)
	case "property":
		return handleProperty(ev, el, scope)
	case "macro":
		return handleMacroDef(el, macros, ev.Ctx)
	case "arg":
		return handleArg(ev, el, scope)
	case "element":
		return handleElement(ev, parent, el, scope, macros)
	case "attribute":
		return handleAttribute(ev, parent, el, scope)
	case "if", "unless":
		return handleConditional(ev, el, scope, macros)
	case "call":
		return handleMacroCall("call", el, scope, macros, ev)
	default:
		return handleMacroCall(el.Name.Local, el, scope, macros, ev)
	}
}

// removePrecedingComments deletes comment nodes (and at most one
// intervening blank text node) immediately preceding node, mirroring
// spec.md §4.3's "remove_previous_comments": comments directly above a
// consumed directive are dropped along with it, but the removal must
// not silently eat comments belonging to an earlier, unrelated
// element — so once a non-comment boundary is found, a sentinel empty
// text node is planted immediately after it to stop future removal
// passes from crossing that boundary.
func removePrecedingComments(node *xmlnode.Node) {
	parent := node.Parent
	if parent == nil {
		return
	}
	next := node.NextSibling()
	prev := node.PreviousSibling()
	for prev != nil {
		if prev.Type == xmlnode.TextNode && isBlankMaxOneNewline(prev.Data) {
			prev = prev.PreviousSibling()
		}
		if prev != nil && prev.Type == xmlnode.CommentNode {
			comment := prev
			prev = prev.PreviousSibling()
			comment.Remove()
			continue
		}
		break
	}
	if next != nil && next != sentinelEmptyText {
		parent.InsertBefore(sentinelEmptyText, next)
	}
}

func isBlankMaxOneNewline(s string) bool {
	if strings.TrimSpace(s) != "" {
		return false
	}
	return strings.Count(s, "\n") <= 1
}

func requireAttr(el *xmlnode.Node, name string) (string, error) {
	v, ok := el.Attr(name)
	if !ok {
		return "", xerr.NewBadAttribute(fmt.Sprintf("%s: missing required attribute %q", el.QualifiedName(), name))
	}
	return v, nil
}

// getBoolean implements spec.md §4.3's get_boolean_value coercion:
// "true"/"True" -> true, "false"/"False" -> false, else parse as an
// integer and test non-zero; anything else is a BadConditional.
func getBoolean(evaluated value.Value, rawCondition string) (bool, error) {
	if evaluated.Kind == value.Bool {
		return evaluated.B, nil
	}
	s := evaluated.String()
	switch s {
	case "true", "True":
		return true, nil
	case "false", "False":
		return false, nil
	}
	if evaluated.IsNumeric() {
		return math.Trunc(evaluated.AsFloat()) != 0, nil
	}
	if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return i != 0, nil
	}
	return false, xerr.NewBadConditional(rawCondition, s)
}

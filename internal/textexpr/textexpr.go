// Package textexpr drives internal/lexer over a text value and composes
// the resulting tokens into a single typed value.Value, implementing
// spec.md §4.1's "text evaluation composes tokens" rule and the
// $(...) EXTENSION substitution-argument grammar. It is the concrete
// symtab.Evaluator the rest of the module is built around, generalized
// from the teacher's tree-walking evaluator (package eval) which drives
// its own lexer/parser pair the same way, one token/node at a time.
package textexpr

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xacro-go/xacro/internal/exprlang"
	"github.com/xacro-go/xacro/internal/lexer"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
	"github.com/xacro-go/xacro/internal/xerr"
)

// Evaluator implements symtab.Evaluator, closing over the processing
// Context so that ${...} expressions can reach xacro.arg/load_yaml and
// $(...) extensions can reach the substitution-argument context and
// launch-mode flag.
type Evaluator struct {
	Ctx *xctx.Context
}

func New(ctx *xctx.Context) *Evaluator { return &Evaluator{Ctx: ctx} }

// EvalText tokenizes text and composes the results per spec.md §4.1:
// a single non-empty token is returned typed, as-is; otherwise every
// token is stringified and concatenated.
func (e *Evaluator) EvalText(text string, scope *symtab.Scope) (value.Value, error) {
	toks, err := lexer.Tokenize(text)
	if err != nil {
		return value.Value{}, xerr.NewParseFailure(err)
	}

	results := make([]value.Value, 0, len(toks))
	for _, tok := range toks {
		switch tok.Type {
		case lexer.Text, lexer.DollarEscape:
			results = append(results, value.NewText(tok.Literal))
		case lexer.Expr:
			v, err := e.handleExpr(tok.Literal, scope)
			if err != nil {
				return value.Value{}, err
			}
			results = append(results, v)
		case lexer.Extension:
			v, err := e.handleExtension(tok.Literal, scope)
			if err != nil {
				return value.Value{}, err
			}
			results = append(results, v)
		}
	}

	if len(results) == 1 {
		return results[0], nil
	}
	var b strings.Builder
	for _, r := range results {
		b.WriteString(r.String())
	}
	return value.NewText(b.String()), nil
}

func (e *Evaluator) handleExpr(inner string, scope *symtab.Scope) (value.Value, error) {
	resolved, err := e.EvalText(inner, scope)
	if err != nil {
		return value.Value{}, err
	}
	src := resolved.String()
	v, err := exprlang.Eval(src, scope, e.Ctx)
	if err != nil {
		return value.Value{}, xerr.NewEvaluationFailure(src, err)
	}
	return v, nil
}

// handleExtension implements the $(...) grammar of spec.md §4.1: the
// inner text is first recursively text-evaluated, then dispatched on
// its leading keyword. In launch mode the raw token is passed through
// verbatim instead of being resolved.
func (e *Evaluator) handleExtension(inner string, scope *symtab.Scope) (value.Value, error) {
	if e.Ctx != nil && e.Ctx.LaunchMode {
		return value.NewText("$(" + inner + ")"), nil
	}

	resolvedInner, err := e.EvalText(inner, scope)
	if err != nil {
		return value.Value{}, err
	}
	expr := resolvedInner.String()

	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("empty substitution expression"))
	}
	keyword := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(expr, keyword))

	switch keyword {
	case "cwd":
		wd, err := os.Getwd()
		if err != nil {
			return value.Value{}, xerr.NewExtensionFailure(expr, err)
		}
		return value.NewText(wd), nil
	case "find":
		if rest == "" {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("find requires a package name"))
		}
		if e.Ctx == nil || e.Ctx.Resolver == nil {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("no package-path resolver configured"))
		}
		dir, err := e.Ctx.Resolver.Find(rest)
		if err != nil {
			return value.Value{}, xerr.NewExtensionFailure(expr, err)
		}
		return value.NewText(dir), nil
	case "arg":
		if rest == "" {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("arg requires a name"))
		}
		if e.Ctx == nil {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("no substitution-argument context configured"))
		}
		v, ok := e.Ctx.SubstitutionArgs[rest]
		if !ok {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("undefined substitution argument: %s", rest))
		}
		return value.NewText(v), nil
	case "eval":
		v, err := exprlang.Eval(rest, scope, e.Ctx)
		if err != nil {
			return value.Value{}, xerr.NewEvaluationFailure(rest, err)
		}
		return v, nil
	case "env":
		if rest == "" {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("env requires a variable name"))
		}
		v, ok := os.LookupEnv(rest)
		if !ok {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("environment variable %q is not set", rest))
		}
		return value.NewText(v), nil
	case "optenv":
		parts := strings.Fields(rest)
		if len(parts) == 0 {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("optenv requires a variable name"))
		}
		if v, ok := os.LookupEnv(parts[0]); ok {
			return value.NewText(v), nil
		}
		if len(parts) > 1 {
			return value.NewText(strings.Join(parts[1:], " ")), nil
		}
		return value.NewText(""), nil
	case "anon":
		if rest == "" {
			return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("anon requires a name"))
		}
		return value.NewText(anonName(e.Ctx, rest)), nil
	}
	return value.Value{}, xerr.NewExtensionFailure(expr, fmt.Errorf("unknown substitution-argument keyword: %s", keyword))
}

// anonName returns a name unique within ctx for a given anon() base name,
// memoized on the Context so repeated references within one document
// resolve to the same generated identifier (launch substitution spec).
func anonName(ctx *xctx.Context, base string) string {
	if ctx == nil {
		return base
	}
	if ctx.AnonNames == nil {
		ctx.AnonNames = map[string]string{}
	}
	if existing, ok := ctx.AnonNames[base]; ok {
		return existing
	}
	name := base + "_" + strconv.Itoa(len(ctx.AnonNames))
	ctx.AnonNames[base] = name
	return name
}

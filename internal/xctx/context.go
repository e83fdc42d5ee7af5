// Package xctx defines the processing context that spec.md §5 requires
// to be encapsulated explicitly, rather than held in process-wide
// globals as the original implementation does: the file stack, macro
// stack, substitution-argument context, all-includes record, verbosity
// level, launch-mode flag and recursion guard, all scoped to a single
// document-processing call.
package xctx

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/xacro-go/xacro/internal/resource"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xerr"
)

// Logger receives diagnostics, matching spec.md §7 ("warnings are
// emitted through the host logger"). WriterLogger writes every Warnf
// message and only those Debugf messages whose level is at or below its
// Verbosity.
type Logger interface {
	Warnf(format string, args ...any)
	Debugf(level int, format string, args ...any)
}

// WriterLogger is the default Logger, writing to an io.Writer. It has
// no color-coding of its own: that ambient concern belongs to the CLI
// layer (cmd/xacro), which wraps this with fatih/color.
type WriterLogger struct {
	Out       io.Writer
	Verbosity int
}

func (l *WriterLogger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.Out, "Warning: "+format+"\n", args...)
}

func (l *WriterLogger) Debugf(level int, format string, args ...any) {
	if l.Verbosity >= level {
		fmt.Fprintf(l.Out, format+"\n", args...)
	}
}

// Context bundles every piece of state a single document-processing run
// needs, so that xacro.Process is reentrant and safe to call
// concurrently with independent Contexts (spec.md §5).
type Context struct {
	// FileStack is the ordered sequence of file paths currently being
	// processed, last element is the current file (spec.md §3).
	FileStack []string

	// MacroStack is the ordered sequence of active macro activations,
	// used only for diagnostic location printing (spec.md §3).
	MacroStack []xerr.MacroActivation

	// SubstitutionArgs is the mapping.Name->value populated from the
	// orchestrator's mappings input and read via $(arg NAME) (spec.md §3).
	SubstitutionArgs map[string]string

	// AllIncludes accumulates every absolute file path touched by
	// include or load_yaml, the sole observable output of --just-deps
	// (spec.md §3).
	AllIncludes map[string]struct{}

	// Verbosity controls diagnostic volume (spec.md §6 --verbosity).
	Verbosity int

	// LaunchMode, when true, passes $(...) extension tokens through
	// verbatim instead of resolving them (spec.md §4.1, §9 open
	// question ii).
	LaunchMode bool

	// Depth is the current macro/include nesting depth, compared
	// against MaxDepth to implement the recursion guard of spec.md §5.
	Depth    int
	MaxDepth int

	Logger   Logger
	Resolver resource.PathResolver

	// LoadYAML is injected by the orchestrator (wired to
	// internal/yamlext.Load) rather than imported directly, so that
	// this package and internal/exprlang never need to depend on the
	// YAML package.
	LoadYAML func(ctx *Context, path string) (value.Value, error)

	// AnonNames memoizes $(anon NAME) substitutions so repeated
	// references within one document resolve to the same generated name.
	AnonNames map[string]string
}

// New creates a Context for processing the named root file.
func New(rootFile string, mappings map[string]string) *Context {
	if mappings == nil {
		mappings = map[string]string{}
	}
	return &Context{
		FileStack:        []string{rootFile},
		SubstitutionArgs: mappings,
		AllIncludes:      make(map[string]struct{}),
		MaxDepth:         256,
		Logger:           &WriterLogger{Out: io.Discard},
	}
}

// CurrentFile returns the file currently being processed, or "" if the
// file stack is empty.
func (c *Context) CurrentFile() string {
	if len(c.FileStack) == 0 {
		return ""
	}
	return c.FileStack[len(c.FileStack)-1]
}

// PushFile pushes a new file onto the file stack, entering include/parse.
func (c *Context) PushFile(path string) { c.FileStack = append(c.FileStack, path) }

// PopFile pops the file stack on exit from include/parse.
func (c *Context) PopFile() {
	if len(c.FileStack) > 0 {
		c.FileStack = c.FileStack[:len(c.FileStack)-1]
	}
}

// PushMacro records a macro activation for diagnostics.
func (c *Context) PushMacro(name string) error {
	c.Depth++
	if c.Depth > c.MaxDepth {
		return xerr.NewRecursionLimitExceeded(c.MaxDepth)
	}
	c.MacroStack = append(c.MacroStack, xerr.MacroActivation{Name: name, File: c.CurrentFile()})
	return nil
}

// PopMacro removes the innermost macro activation.
func (c *Context) PopMacro() {
	c.Depth--
	if len(c.MacroStack) > 0 {
		c.MacroStack = c.MacroStack[:len(c.MacroStack)-1]
	}
}

// Trail returns a snapshot of the current macro stack, innermost last,
// for attaching to an error as it propagates (spec.md §7).
func (c *Context) Trail() []xerr.MacroActivation {
	out := make([]xerr.MacroActivation, len(c.MacroStack))
	copy(out, c.MacroStack)
	return out
}

// RecordInclude adds the absolute form of path to the all-includes
// record (spec.md §3, the sole observable output of --just-deps).
func (c *Context) RecordInclude(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.AllIncludes[path] = struct{}{}
}

// SortedIncludes returns the all-includes record as a sorted slice.
func (c *Context) SortedIncludes() []string {
	out := make([]string, 0, len(c.AllIncludes))
	for p := range c.AllIncludes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

package exprlang

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
	"github.com/xacro-go/xacro/internal/xerr"
)

// builtinFunc is the callback shape every entry in the closed builtin
// table shares, generalized from the teacher's std.Builtin{Name,
// Callback} registration pattern (std/math.go) to carry a *xctx.Context
// instead of a Runtime/io.Writer pair, since the xacro builtins need
// file-stack and substitution-argument access rather than console I/O.
type builtinFunc func(ctx *xctx.Context, args []value.Value) (value.Value, error)

// builtins is the flat, closed table backing bare identifiers and calls
// such as len(x), sqrt(x), abs(x). spec.md §4.1.G requires this table be
// closed: there is no reflection-based fallback to arbitrary Go values.
var builtins map[string]builtinFunc

// xacroNamespace backs the `xacro.` prefixed namespace: load_yaml,
// abs_filename, arg, and the warning/error/fatal message helpers that
// mirror the original xacro.warning/xacro.error wrappers.
var xacroNamespace map[string]builtinFunc

// pythonNamespace exposes, under an explicit `python.` prefix, a subset
// of the flat table plus python-compatibility builtins that the flat
// table does not have (sorted, range, zip, ...), for xacro files written
// against the original's `python.int(...)`-style qualified calls.
var pythonNamespace map[string]builtinFunc

// constants backs bare identifiers that evaluate to a fixed Value
// rather than being callable: True, False, pi, e.
var constants map[string]value.Value

func init() {
	builtins = map[string]builtinFunc{
		"list":  bList,
		"dict":  bDict,
		"map":   bMap,
		"len":   bLen,
		"str":   bStr,
		"float": bFloat,
		"int":   bInt,
		"min":   bMin,
		"max":   bMax,
		"round": bRound,

		"abs":   bAbs,
		"floor": bFloor,
		"ceil":  bCeil,
		"sqrt":  bSqrt,
		"pow":   bPow,
		"sin":   bSin,
		"cos":   bCos,
		"tan":   bTan,
		"log":   bLog,
		"log10": bLog10,
		"exp":   bExp,
	}

	constants = map[string]value.Value{
		"True":  value.NewBool(true),
		"False": value.NewBool(false),
		"pi":    value.NewFloat(math.Pi),
		"e":     value.NewFloat(math.E),
	}

	xacroNamespace = map[string]builtinFunc{
		"load_yaml":    bLoadYAML,
		"abs_filename": bAbsFilename,
		"arg":          bArg,
		"fatal":        bFatal,
		"warning":      bWarning,
		"error":        bWarning,
		"message":      bWarning,
	}

	pythonNamespace = map[string]builtinFunc{
		"list":       bList,
		"dict":       bDict,
		"str":        bStr,
		"float":      bFloat,
		"int":        bInt,
		"len":        bLen,
		"min":        bMin,
		"max":        bMax,
		"round":      bRound,
		"abs":        bAbs,
		"sorted":     bSorted,
		"range":      bRange,
		"any":        bAny,
		"all":        bAll,
		"enumerate":  bEnumerate,
		"reversed":   bReversed,
		"sum":        bSum,
		"zip":        bZip,
		"repr":       bRepr,
		"type":       bType,
		"tuple":      bList,
		"set":        bSet,
		"frozenset":  bSet,
		"divmod":     bDivmod,
		"ord":        bOrd,
		"hash":       bHash,
		"isinstance": bIsinstance,
		"issubclass": bIsinstance,
		"vars":       bDict,
		"slice":      bSlice,
		"filter":     bFilter,
		"complex":    bComplex,
	}
}

func bList(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewList(nil), nil
	}
	if args[0].Kind == value.List {
		out := append([]value.Value{}, args[0].L...)
		return value.NewList(out), nil
	}
	return value.NewList(args), nil
}

func bDict(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) == 1 && args[0].Kind == value.Dict {
		out := make(map[string]value.Value, len(args[0].D))
		for k, v := range args[0].D {
			out[k] = v
		}
		return value.NewDict(out), nil
	}
	return value.NewDict(map[string]value.Value{}), nil
}

func bMap(_ *xctx.Context, args []value.Value) (value.Value, error) {
	return bDict(nil, args)
}

func bLen(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("len() takes exactly one argument (%d given)", len(args))
	}
	switch args[0].Kind {
	case value.Text:
		return value.NewInt(int64(len([]rune(args[0].S)))), nil
	case value.List:
		return value.NewInt(int64(len(args[0].L))), nil
	case value.Dict:
		return value.NewInt(int64(len(args[0].D))), nil
	}
	return value.Value{}, fmt.Errorf("object of kind %s has no len()", args[0].Kind)
}

func bStr(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("str() takes exactly one argument (%d given)", len(args))
	}
	return value.NewText(args[0].String()), nil
}

func bFloat(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("float() takes exactly one argument (%d given)", len(args))
	}
	v := args[0]
	if v.IsNumeric() {
		return value.NewFloat(v.AsFloat()), nil
	}
	if v.Kind == value.Text {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("could not convert string to float: %q", v.S)
		}
		return value.NewFloat(f), nil
	}
	return value.Value{}, fmt.Errorf("float() argument must be a string or a number")
}

func bInt(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("int() takes exactly one argument (%d given)", len(args))
	}
	v := args[0]
	switch v.Kind {
	case value.Int:
		return v, nil
	case value.Float:
		return value.NewInt(int64(v.F)), nil
	case value.Bool:
		if v.B {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	case value.Text:
		i, err := strconv.ParseInt(strings.TrimSpace(v.S), 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid literal for int(): %q", v.S)
		}
		return value.NewInt(i), nil
	}
	return value.Value{}, fmt.Errorf("int() argument must be a string or a number")
}

func bMin(_ *xctx.Context, args []value.Value) (value.Value, error) {
	return reduceNumeric(args, "min", func(a, b float64) bool { return a < b })
}

func bMax(_ *xctx.Context, args []value.Value) (value.Value, error) {
	return reduceNumeric(args, "max", func(a, b float64) bool { return a > b })
}

func reduceNumeric(args []value.Value, name string, better func(a, b float64) bool) (value.Value, error) {
	items := args
	if len(items) == 1 && items[0].Kind == value.List {
		items = items[0].L
	}
	if len(items) == 0 {
		return value.Value{}, fmt.Errorf("%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, it := range items[1:] {
		if !it.IsNumeric() || !best.IsNumeric() {
			return value.Value{}, fmt.Errorf("%s() requires numeric arguments", name)
		}
		if better(it.AsFloat(), best.AsFloat()) {
			best = it
		}
	}
	return best, nil
}

func bRound(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Value{}, fmt.Errorf("round() takes one or two arguments (%d given)", len(args))
	}
	if !args[0].IsNumeric() {
		return value.Value{}, fmt.Errorf("round() argument must be numeric")
	}
	x := args[0].AsFloat()
	if len(args) == 1 {
		return value.NewInt(int64(math.Round(x))), nil
	}
	if !args[1].IsNumeric() {
		return value.Value{}, fmt.Errorf("round() ndigits must be numeric")
	}
	n := args[1].AsFloat()
	mult := math.Pow(10, n)
	return value.NewFloat(math.Round(x*mult) / mult), nil
}

func unary1(args []value.Value, name string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s() takes exactly one argument (%d given)", name, len(args))
	}
	if !args[0].IsNumeric() {
		return 0, fmt.Errorf("%s() argument must be numeric", name)
	}
	return args[0].AsFloat(), nil
}

func bAbs(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || !args[0].IsNumeric() {
		return value.Value{}, fmt.Errorf("abs() requires one numeric argument")
	}
	if args[0].Kind == value.Int {
		i := args[0].I
		if i < 0 {
			i = -i
		}
		return value.NewInt(i), nil
	}
	return value.NewFloat(math.Abs(args[0].AsFloat())), nil
}

func bFloor(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "floor")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int64(math.Floor(x))), nil
}

func bCeil(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "ceil")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int64(math.Ceil(x))), nil
}

func bSqrt(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "sqrt")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Sqrt(x)), nil
}

func bPow(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 || !args[0].IsNumeric() || !args[1].IsNumeric() {
		return value.Value{}, fmt.Errorf("pow() requires two numeric arguments")
	}
	return value.NewFloat(math.Pow(args[0].AsFloat(), args[1].AsFloat())), nil
}

func bSin(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "sin")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Sin(x)), nil
}

func bCos(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "cos")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Cos(x)), nil
}

func bTan(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "tan")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Tan(x)), nil
}

func bLog(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) == 2 {
		x, err := unary1(args[:1], "log")
		if err != nil {
			return value.Value{}, err
		}
		base := args[1].AsFloat()
		return value.NewFloat(math.Log(x) / math.Log(base)), nil
	}
	x, err := unary1(args, "log")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Log(x)), nil
}

func bLog10(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "log10")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Log10(x)), nil
}

func bExp(_ *xctx.Context, args []value.Value) (value.Value, error) {
	x, err := unary1(args, "exp")
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Exp(x)), nil
}

func bLoadYAML(ctx *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Text {
		return value.Value{}, fmt.Errorf("load_yaml() requires one string argument")
	}
	if ctx == nil || ctx.LoadYAML == nil {
		return value.Value{}, fmt.Errorf("load_yaml: no YAML loader configured")
	}
	return ctx.LoadYAML(ctx, args[0].S)
}

func bAbsFilename(ctx *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Text {
		return value.Value{}, fmt.Errorf("abs_filename() requires one string argument")
	}
	if ctx == nil || ctx.Resolver == nil {
		return value.Value{}, fmt.Errorf("abs_filename: no path resolver configured")
	}
	resolved, err := ctx.Resolver.Find(args[0].S)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewText(resolved), nil
}

func bArg(ctx *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Text {
		return value.Value{}, fmt.Errorf("arg() requires one string argument")
	}
	if ctx == nil {
		return value.Value{}, fmt.Errorf("arg: no substitution context configured")
	}
	v, ok := ctx.SubstitutionArgs[args[0].S]
	if !ok {
		return value.Value{}, fmt.Errorf("undefined substitution argument: %s", args[0].S)
	}
	return value.NewText(v), nil
}

func bFatal(ctx *xctx.Context, args []value.Value) (value.Value, error) {
	return value.Value{}, xerr.NewFatal(joinArgs(args))
}

func bWarning(ctx *xctx.Context, args []value.Value) (value.Value, error) {
	if ctx != nil && ctx.Logger != nil {
		ctx.Logger.Warnf("%s", joinArgs(args))
	}
	return value.NewBool(true), nil
}

func joinArgs(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

func bSorted(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.List {
		return value.Value{}, fmt.Errorf("sorted() requires one list argument")
	}
	out := append([]value.Value{}, args[0].L...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsNumeric() && b.IsNumeric() {
			return a.AsFloat() < b.AsFloat()
		}
		return a.String() < b.String()
	})
	return value.NewList(out), nil
}

func bRange(_ *xctx.Context, args []value.Value) (value.Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		stop = int64(args[0].AsFloat())
	case 2:
		start, stop = int64(args[0].AsFloat()), int64(args[1].AsFloat())
	case 3:
		start, stop, step = int64(args[0].AsFloat()), int64(args[1].AsFloat()), int64(args[2].AsFloat())
	default:
		return value.Value{}, fmt.Errorf("range() takes 1 to 3 arguments (%d given)", len(args))
	}
	if step == 0 {
		return value.Value{}, fmt.Errorf("range() step argument must not be zero")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, value.NewInt(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, value.NewInt(i))
		}
	}
	return value.NewList(out), nil
}

func listArg(args []value.Value, name string) ([]value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.List {
		return nil, fmt.Errorf("%s() requires one list argument", name)
	}
	return args[0].L, nil
}

func bAny(_ *xctx.Context, args []value.Value) (value.Value, error) {
	items, err := listArg(args, "any")
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range items {
		if it.Truthy() {
			return value.NewBool(true), nil
		}
	}
	return value.NewBool(false), nil
}

func bAll(_ *xctx.Context, args []value.Value) (value.Value, error) {
	items, err := listArg(args, "all")
	if err != nil {
		return value.Value{}, err
	}
	for _, it := range items {
		if !it.Truthy() {
			return value.NewBool(false), nil
		}
	}
	return value.NewBool(true), nil
}

func bEnumerate(_ *xctx.Context, args []value.Value) (value.Value, error) {
	items, err := listArg(args, "enumerate")
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(items))
	for i, it := range items {
		out[i] = value.NewList([]value.Value{value.NewInt(int64(i)), it})
	}
	return value.NewList(out), nil
}

func bReversed(_ *xctx.Context, args []value.Value) (value.Value, error) {
	items, err := listArg(args, "reversed")
	if err != nil {
		return value.Value{}, err
	}
	out := make([]value.Value, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return value.NewList(out), nil
}

func bSum(_ *xctx.Context, args []value.Value) (value.Value, error) {
	items, err := listArg(args, "sum")
	if err != nil {
		return value.Value{}, err
	}
	var total float64
	allInt := true
	for _, it := range items {
		if !it.IsNumeric() {
			return value.Value{}, fmt.Errorf("sum() requires a list of numbers")
		}
		if it.Kind != value.Int {
			allInt = false
		}
		total += it.AsFloat()
	}
	if allInt {
		return value.NewInt(int64(total)), nil
	}
	return value.NewFloat(total), nil
}

func bZip(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewList(nil), nil
	}
	minLen := -1
	for _, a := range args {
		if a.Kind != value.List {
			return value.Value{}, fmt.Errorf("zip() requires list arguments")
		}
		if minLen == -1 || len(a.L) < minLen {
			minLen = len(a.L)
		}
	}
	out := make([]value.Value, minLen)
	for i := 0; i < minLen; i++ {
		tuple := make([]value.Value, len(args))
		for j, a := range args {
			tuple[j] = a.L[i]
		}
		out[i] = value.NewList(tuple)
	}
	return value.NewList(out), nil
}

func bRepr(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("repr() takes exactly one argument (%d given)", len(args))
	}
	if args[0].Kind == value.Text {
		return value.NewText(fmt.Sprintf("%q", args[0].S)), nil
	}
	return value.NewText(args[0].String()), nil
}

func bType(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("type() takes exactly one argument (%d given)", len(args))
	}
	return value.NewText(args[0].Kind.String()), nil
}

func bSet(_ *xctx.Context, args []value.Value) (value.Value, error) {
	items, err := listArg(args, "set")
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, it := range items {
		dup := false
		for _, seen := range out {
			if value.Equal(seen, it) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return value.NewList(out), nil
}

func bDivmod(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, fmt.Errorf("divmod() takes exactly two arguments (%d given)", len(args))
	}
	q, err := evalFloorDiv(args[0], args[1])
	if err != nil {
		return value.Value{}, err
	}
	m, err := evalMod(args[0], args[1])
	if err != nil {
		return value.Value{}, err
	}
	return value.NewList([]value.Value{q, m}), nil
}

func bOrd(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.Text {
		return value.Value{}, fmt.Errorf("ord() requires one character string argument")
	}
	runes := []rune(args[0].S)
	if len(runes) != 1 {
		return value.Value{}, fmt.Errorf("ord() expected a character, but string of length %d found", len(runes))
	}
	return value.NewInt(int64(runes[0])), nil
}

func bHash(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("hash() takes exactly one argument (%d given)", len(args))
	}
	var h int64
	for _, r := range args[0].String() {
		h = h*31 + int64(r)
	}
	return value.NewInt(h), nil
}

func bIsinstance(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 2 || args[1].Kind != value.Text {
		return value.Value{}, fmt.Errorf("isinstance() requires a value and a type-name string")
	}
	return value.NewBool(args[0].Kind.String() == args[1].S), nil
}

func bSlice(_ *xctx.Context, args []value.Value) (value.Value, error) {
	return value.NewList(args), nil
}

func bFilter(ctx *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Kind != value.List {
		return value.Value{}, fmt.Errorf("filter() requires one list argument")
	}
	var out []value.Value
	for _, it := range args[0].L {
		if it.Truthy() {
			out = append(out, it)
		}
	}
	return value.NewList(out), nil
}

func bComplex(_ *xctx.Context, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewText("0j"), nil
	}
	return value.NewText(fmt.Sprintf("%sj", args[0].String())), nil
}

// sortedKeys is a small helper retained for callers that need
// deterministic dict iteration order (mirroring value.Value.String's
// own sorted-key rendering).
func sortedKeys(d map[string]value.Value) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

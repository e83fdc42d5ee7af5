// Command xacro is the CLI surface of spec.md §6: it reads one xacro
// document (a path, or "-" for stdin), evaluates it, and writes the
// resulting plain XML to stdout or the path named by -o. Flag handling
// follows the teacher's main/main.go dispatch in spirit, rebuilt on
// spf13/cobra since spec.md's flag surface — independent boolean/value
// flags plus a positional input plus trailing `name:=value` pairs — is
// naturally a single Cobra command rather than the teacher's own
// single-positional-argument os.Args switch.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xacro-go/xacro"
	"github.com/xacro-go/xacro/internal/resource"
	"github.com/xacro-go/xacro/internal/xctx"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

var (
	redColor    = color.New(color.FgRed)
	yellowColor = color.New(color.FgYellow)
)

var (
	outPath    string
	inorder    bool
	justDeps   bool
	deps       bool
	verbosity  int
	launchMode bool
	xacroPath  string
	banner     bool
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		redColor.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xacro <input.xacro> [name:=value ...]",
		Short:         "Evaluate a xacro-flavored XML document into plain XML",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          run,
	}
	flags := cmd.Flags()
	flags.StringVarP(&outPath, "output", "o", "", "write the result to this file instead of stdout")
	flags.BoolVar(&inorder, "inorder", true, "accepted for compatibility; xacro always evaluates in document order")
	flags.BoolVar(&justDeps, "just-deps", false, "print only the space-joined include dependency list")
	flags.BoolVar(&deps, "deps", false, "alias of --just-deps")
	flags.IntVar(&verbosity, "verbosity", 1, "diagnostic verbosity level")
	flags.BoolVar(&launchMode, "launch-mode", false, "pass $(...) substitution tokens through unresolved")
	flags.BoolVar(&banner, "banner", true, "prepend an autogeneration banner comment to the output")

	// A separate pflag.FlagSet merged into cobra's, rather than another
	// flags.StringVar call, since --xacro-path is the one flag worth
	// exposing with pflag's lower-level Lookup/Changed API (to tell "not
	// given" apart from "given as empty") instead of cobra's convenience
	// layer.
	extra := pflag.NewFlagSet("xacro-extra", pflag.ContinueOnError)
	extra.StringVar(&xacroPath, "xacro-path", "", "colon-separated search path for $(find PKG), overrides XACRO_PATH")
	flags.AddFlagSet(extra)

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	input := args[0]
	mappings, err := parseMappings(args[1:])
	if err != nil {
		return err
	}

	opts := xacro.Options{
		Mappings:      mappings,
		LaunchMode:    launchMode,
		Verbosity:     verbosity,
		Logger:        &xctx.WriterLogger{Out: coloredWarnWriter{}, Verbosity: verbosity},
		AutogenBanner: banner,
	}

	var result *xacro.Result
	if input == "-" {
		opts.InputName = "<stdin>"
		result, err = xacro.Process(os.Stdin, opts)
	} else {
		path := os.Getenv("XACRO_PATH")
		if cmd.Flags().Changed("xacro-path") {
			path = xacroPath
		}
		opts.Resolver = resource.NewSearchPathResolver(path)
		result, err = xacro.ProcessFile(input, opts)
	}
	if err != nil {
		return err
	}

	if justDeps || deps {
		fmt.Println(strings.Join(result.Includes, " "))
		return nil
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("xacro: creating %q: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}
	return xmlnode.Write(out, result.Document)
}

// parseMappings splits the trailing `name:=value` CLI arguments into a
// substitution-argument map (spec.md §4.1 $(arg ...), §6).
func parseMappings(args []string) (map[string]string, error) {
	mappings := map[string]string{}
	for _, a := range args {
		name, value, ok := strings.Cut(a, ":=")
		if !ok {
			return nil, fmt.Errorf("xacro: malformed mapping argument %q, expected name:=value", a)
		}
		mappings[name] = value
	}
	return mappings, nil
}

// coloredWarnWriter prints xctx.WriterLogger's "Warning: ..." lines in
// yellow, matching main/main.go's color-coded diagnostic convention.
type coloredWarnWriter struct{}

func (coloredWarnWriter) Write(p []byte) (int, error) {
	yellowColor.Fprint(os.Stderr, string(p))
	return len(p), nil
}

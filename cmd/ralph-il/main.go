package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/il"
	"github.com/raymyers/ralph-il/pkg/layout"
	"github.com/raymyers/ralph-il/pkg/parser"
)

var version = "0.1.0"

// Dump flags. Without any of them the IL is dumped.
var (
	dParse  bool
	dTypes  bool
	dIL     bool
	dLayout bool
)

var (
	parallel   bool
	noColor    bool
	outputFile string
)

// ErrCompileFailed is returned after diagnostics have been printed
var ErrCompileFailed = errors.New("compilation failed")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the flags that also accept a single dash, as in -dil
var debugFlagNames = []string{"dparse", "dtypes", "dil", "dlayout"}

// normalizeFlags converts single-dash dump flags like -dil to --dil
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
	}
	return result
}

// underscoreToDash lets --no_color mean --no-color
func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-il [file]",
		Short: "ralph-il translates a small C-like language to three-address IL",
		Long: `ralph-il is a compiler front end. It builds a typed syntax tree with
scope-resolved names, lays out structs, globals and stack frames, and
generates three-address intermediate code with short-circuit jumping
code for conditions.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			filename := args[0]

			res, err := compile(filename, errOut)
			if err != nil {
				return err
			}

			if dParse || dTypes {
				if err := dump(".parsed", out, errOut, func(w io.Writer) error {
					pr := ast.NewPrinter(w)
					if dTypes {
						pr.WithTypes()
					}
					pr.PrintProgram(res.Program)
					return nil
				}); err != nil {
					return err
				}
			}
			if dLayout {
				if err := dump(".layout.yaml", out, errOut, func(w io.Writer) error {
					return layout.WriteYAML(w, layout.Describe(res))
				}); err != nil {
					return err
				}
			}
			if dIL || !(dParse || dTypes || dLayout) {
				if !res.Generated {
					return ErrCompileFailed
				}
				if err := dump(".il", out, errOut, func(w io.Writer) error {
					pr := il.NewPrinter(w)
					pr.PrintStatic(res.Static)
					pr.PrintFrames(res.Frames())
					return nil
				}); err != nil {
					return err
				}
			}
			if len(res.Diagnostics) > 0 {
				return ErrCompileFailed
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVarP(&dParse, "dparse", "", false, "Dump the syntax tree after parsing")
	rootCmd.Flags().BoolVarP(&dTypes, "dtypes", "", false, "Dump the syntax tree with expression types")
	rootCmd.Flags().BoolVarP(&dIL, "dil", "", false, "Dump the generated IL (default)")
	rootCmd.Flags().BoolVarP(&dLayout, "dlayout", "", false, "Dump struct, global and frame layout as YAML")
	rootCmd.Flags().BoolVar(&parallel, "parallel", false, "Generate functions concurrently")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "Never color diagnostics")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Also write the dump to this file")
	rootCmd.Flags().SetNormalizeFunc(underscoreToDash)

	return rootCmd
}

// useColor reports whether w is a terminal that should get colored output
func useColor(w io.Writer) bool {
	if noColor {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// compile reads and parses filename, printing diagnostics to errOut as they
// are found. A syntax error is returned as ErrCompileFailed.
func compile(filename string, errOut io.Writer) (*parser.Result, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-il: error reading %s: %v\n", filename, err)
		return nil, err
	}

	w := diag.NewWriter(errOut, useColor(errOut))
	res, err := parser.ParseSource(string(content), parser.Options{Parallel: parallel, Reporter: w})
	if err != nil {
		if errors.Is(err, diag.ErrSyntax) {
			return nil, ErrCompileFailed
		}
		fmt.Fprintf(errOut, "ralph-il: %s: %v\n", filename, err)
		return nil, err
	}
	return res, nil
}

// dump writes the output of write to out and, when -o is given, to that file
func dump(ext string, out, errOut io.Writer, write func(io.Writer) error) error {
	if err := write(out); err != nil {
		fmt.Fprintf(errOut, "ralph-il: %v\n", err)
		return err
	}
	if outputFile == "" {
		return nil
	}

	name := outputFilename(outputFile, ext)
	f, err := os.Create(name)
	if err != nil {
		fmt.Fprintf(errOut, "ralph-il: error creating %s: %v\n", name, err)
		return err
	}
	defer f.Close()
	if err := write(f); err != nil {
		fmt.Fprintf(errOut, "ralph-il: %v\n", err)
		return err
	}
	return nil
}

// outputFilename returns the file a dump is written to. The IL goes to output
// itself, every other dump to output plus its extension.
func outputFilename(output, ext string) string {
	if ext == ".il" || strings.HasSuffix(output, ext) {
		return output
	}
	return output + ext
}

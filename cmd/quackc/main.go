// Command quackc is the Quack compiler front-end's command-line
// driver (spec.md §6): it wires the nine-stage pipeline to a source
// file path and renders any resulting *errors.Report.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/pipeline"
	"github.com/quacklang/quackc/internal/world"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// treeFlag implements a boolean-repeat-count flag: -t/--tree once
// dumps the parsed tree, twice dumps the desugared/class-loaded tree
// (spec.md §6).
type treeFlag int

func (t *treeFlag) String() string { return fmt.Sprintf("%d", int(*t)) }
func (t *treeFlag) IsBoolFlag() bool { return true }
func (t *treeFlag) Set(string) error {
	*t++
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("quackc", flag.ContinueOnError)
	fs.Usage = func() { printHelp(fs) }

	var tree treeFlag
	name := fs.String("name", "Main", "name for the synthesised main class")
	verbose := fs.Bool("v", false, "on error, print a diagnostic stack trace")
	fs.BoolVar(verbose, "verbose", false, "on error, print a diagnostic stack trace")
	list := fs.Bool("l", false, "after success, print the generated class names")
	fs.BoolVar(list, "list", false, "after success, print the generated class names")
	fs.Var(&tree, "t", "dump the AST (repeat for a later dump point)")
	fs.Var(&tree, "tree", "dump the AST (repeat for a later dump point)")
	builtinsPath := fs.String("builtins", "", "path to the builtin-type JSON table (required)")
	outDir := fs.String("out", ".", "directory to write generated .asm files into")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s: expected exactly one source file argument\n", red("Error"))
		fs.Usage()
		return 1
	}
	sourcePath := fs.Arg(0)

	if *builtinsPath == "" {
		fmt.Fprintf(os.Stderr, "%s: -builtins <file> is required (spec.md §6: the builtin-type table is supplied externally)\n", red("Error"))
		return 1
	}
	bf, err := os.Open(*builtinsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return 1
	}
	defer bf.Close()
	builtins, err := world.LoadBuiltins(bf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: loading builtin table: %v\n", red("Error"), err)
		return 1
	}

	cfg := pipeline.Config{
		Parse:         Parse,
		MainClassName: *name,
		TreeDumpLevel: int(tree),
		OutDir:        *outDir,
	}

	res, err := pipeline.Run(cfg, builtins, sourcePath)
	if err != nil {
		printError(sourcePath, err, *verbose)
		return 1
	}

	if cfg.TreeDumpLevel > 0 {
		fmt.Println(res.TreeDump)
		return 0
	}

	fmt.Printf("%s compiled %d class%s\n", green("✓"), len(res.Classes), plural(len(res.Classes)))
	if *list {
		names := make([]string, len(res.Classes))
		for i, c := range res.Classes {
			names[i] = c.Name
		}
		fmt.Println(strings.Join(names, " "))
	}
	return 0
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "es"
}

func printError(sourceName string, err error, verbose bool) {
	rep, ok := qerrors.AsReport(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s: %s\n", red(rep.Code), yellow(rep.Phase), rep.Format(sourceName))
	if verbose {
		fmt.Fprint(os.Stderr, rep.StackTrace())
	}
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println(bold("quackc - the Quack compiler front-end"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  quackc [flags] <source.qk>")
	fmt.Println()
	fmt.Println("Flags:")
	fs.PrintDefaults()
	fmt.Println()
	fmt.Printf("%s 0 on success, 1 on any compile or parse error.\n", cyan("Exit codes:"))
}

// Parse is the seam to the concrete-syntax grammar and LALR parser
// driver (spec.md §1: "Deliberately OUT of scope... the grammar
// itself is not specified here — only the AST node kinds and shapes
// that passes consume are"). No grammar ships with this module; a
// deployment wires its own by replacing this function (or by calling
// pipeline.Run directly with a ParseFunc of its own).
func Parse(source []byte, filename string) (*ast.Program, error) {
	_ = source
	return nil, fmt.Errorf("quackc: no concrete-syntax parser is wired into this build for %s (spec.md §1: the grammar is an external collaborator)", filename)
}

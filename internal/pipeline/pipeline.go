// Package pipeline sequences the nine passes spec.md §2 lays out —
// parse, desugar, class-load, field-check, return-check, var-check,
// type-check, generate, emit — behind one entry point, threading a
// single Type World and AST through each in turn (spec.md §5: exactly
// one writer at a time, handed off by ownership, no concurrency
// between or within passes).
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quacklang/quackc/internal/ast"
	"github.com/quacklang/quackc/internal/classload"
	"github.com/quacklang/quackc/internal/codegen"
	"github.com/quacklang/quackc/internal/desugar"
	"github.com/quacklang/quackc/internal/emit"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/fieldcheck"
	"github.com/quacklang/quackc/internal/retcheck"
	"github.com/quacklang/quackc/internal/typecheck"
	"github.com/quacklang/quackc/internal/varcheck"
	"github.com/quacklang/quackc/internal/world"
)

const phase = "pipeline"

// ParseFunc is the seam to the concrete-syntax grammar and LALR parser
// driver spec.md §1 declares an external collaborator ("only their
// interfaces described"). This package never implements one; callers
// (the CLI, or a test) supply a ParseFunc that turns source text into
// the node shapes internal/ast describes.
type ParseFunc func(source []byte, filename string) (*ast.Program, error)

// Config configures one compilation run.
type Config struct {
	Parse ParseFunc

	// MainClassName names the synthesised class for loose top-level
	// statements (spec.md §2 item 4). Defaults to "Main".
	MainClassName string

	// TreeDumpLevel is spec.md §6's `-t`/`--tree` repeat count: 0 means
	// don't dump, 1 dumps after parsing, 2 dumps after
	// desugaring/class-loading — in both nonzero cases the pipeline
	// stops there without generating code.
	TreeDumpLevel int

	// OutDir is the directory to write one `.asm` file per class into.
	// Defaults to the current directory.
	OutDir string
}

// Result carries every artifact produced along the way, so callers
// that want to inspect an intermediate stage (tests, `-t`) don't have
// to re-run the pipeline up to that point.
type Result struct {
	Program      *ast.Program
	World        *world.World
	Classes      []*codegen.ClassObject
	WrittenFiles []string
	TreeDump     string
	PhaseTimings map[string]int64 // milliseconds, one entry per completed stage
}

// Run executes all nine stages against sourcePath. builtins is the
// bootstrap Type World, typically produced by world.LoadBuiltins.
func Run(cfg Config, builtins *world.World, sourcePath string) (Result, error) {
	res := Result{PhaseTimings: make(map[string]int64)}
	if cfg.Parse == nil {
		return res, fmt.Errorf("pipeline: no Parse function configured")
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return res, fmt.Errorf("pipeline: reading %s: %w", sourcePath, err)
	}

	start := time.Now()
	prog, err := cfg.Parse(source, sourcePath)
	res.PhaseTimings["parse"] = time.Since(start).Milliseconds()
	if err != nil {
		return res, err
	}
	res.Program = prog

	mainName := cfg.MainClassName
	if mainName == "" {
		mainName = "Main"
	}
	classload.SynthesizeMain(prog, mainName)

	if cfg.TreeDumpLevel == 1 {
		res.TreeDump = ast.Print(prog)
		return res, nil
	}

	start = time.Now()
	if err := desugar.Program(prog); err != nil {
		return res, err
	}
	res.PhaseTimings["desugar"] = time.Since(start).Milliseconds()

	w := builtins
	res.World = w

	start = time.Now()
	if err := classload.Load(w, prog); err != nil {
		return res, err
	}
	res.PhaseTimings["classload"] = time.Since(start).Milliseconds()

	if cfg.TreeDumpLevel >= 2 {
		res.TreeDump = ast.Print(prog)
		return res, nil
	}

	start = time.Now()
	if err := fieldcheck.Check(w, prog); err != nil {
		return res, err
	}
	res.PhaseTimings["fieldcheck"] = time.Since(start).Milliseconds()

	start = time.Now()
	if err := retcheck.Check(prog); err != nil {
		return res, err
	}
	res.PhaseTimings["retcheck"] = time.Since(start).Milliseconds()

	start = time.Now()
	if err := varcheck.Check(prog); err != nil {
		return res, err
	}
	res.PhaseTimings["varcheck"] = time.Since(start).Milliseconds()

	start = time.Now()
	if err := typecheck.Check(w, prog); err != nil {
		return res, err
	}
	res.PhaseTimings["typecheck"] = time.Since(start).Milliseconds()

	start = time.Now()
	classes, err := codegen.Generate(w, prog)
	if err != nil {
		return res, err
	}
	res.Classes = classes
	res.PhaseTimings["codegen"] = time.Since(start).Milliseconds()

	start = time.Now()
	written, err := writeClasses(cfg.OutDir, classes)
	if err != nil {
		return res, err
	}
	res.WrittenFiles = written
	res.PhaseTimings["emit"] = time.Since(start).Milliseconds()

	return res, nil
}

func writeClasses(outDir string, classes []*codegen.ClassObject) ([]string, error) {
	if outDir == "" {
		outDir = "."
	}
	written := make([]string, 0, len(classes))
	for _, c := range classes {
		path := filepath.Join(outDir, emit.FileName(c))
		f, err := os.Create(path)
		if err != nil {
			return written, qerrors.New(phase, qerrors.GEN001LabelCollision,
				fmt.Sprintf("emit: creating %s: %v", path, err), nil).Wrap()
		}
		_, werr := emit.WriteTo(f, c)
		cerr := f.Close()
		if werr != nil {
			return written, werr
		}
		if cerr != nil {
			return written, cerr
		}
		written = append(written, path)
	}
	return written, nil
}

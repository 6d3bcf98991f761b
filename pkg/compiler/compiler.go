// Package compiler ties the front end (pkg/parser), the module system
// (pkg/module), the semantic analyzer (pkg/sema), the IL generator
// (pkg/ilgen), the optimizer (pkg/optimizer), and the target/hardware
// analyzer (pkg/target) into the single ordered pipeline the rest of the
// core is specified against, mirroring the shape of the pack's
// Compiler/CompilationConfig front door rather than a stage-less free
// function.
package compiler

import (
	"fmt"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/ilgen"
	"github.com/blendsdk/blend65/pkg/module"
	"github.com/blendsdk/blend65/pkg/optimizer"
	"github.com/blendsdk/blend65/pkg/parser"
	"github.com/blendsdk/blend65/pkg/sema"
	"github.com/blendsdk/blend65/pkg/source"
	"github.com/blendsdk/blend65/pkg/target"
)

// Source is one file to be parsed and registered as a module; its module
// name comes from the parsed `module X;` declaration, not from Path.
type Source struct {
	Path string
	Text string
}

// Options configures one compilation run.
type Options struct {
	Target        target.ID
	Manifest      *target.Manifest
	OptimizeLevel int
}

// ModuleOutput is everything produced for one module. IL and Optimized are
// left zero-valued when Sema.Success is false, per the phase-gating rule:
// a module that failed semantic analysis never reaches IL generation.
type ModuleOutput struct {
	Name      string
	Program   *ast.Program
	Sema      *sema.Result
	IL        *il.Module
	Optimized optimizer.Result
}

// Result is the aggregate outcome of one Compile call.
type Result struct {
	Modules map[string]*ModuleOutput
	Bus     *diag.Bus
	Success bool
}

// Compile runs the full pipeline over sources: parse, register modules,
// resolve the dependency graph, analyze, lower, optimize, and run the
// target's hardware analyzer. The returned error is non-nil only for the
// one fatal construction error the spec calls out (duplicate module
// registration) — everything else, including invalid-target configuration
// errors, is reported onto Result.Bus and the offending phase is skipped
// rather than aborting the whole run.
func Compile(opts Options, sources []Source) (*Result, error) {
	bus := diag.New()
	res := &Result{Modules: map[string]*ModuleOutput{}, Bus: bus}

	reg := module.NewRegistry()
	var progs []*ast.Program
	for _, src := range sources {
		prog, pbus := parser.Parse(src.Path, src.Text)
		mergeInto(bus, pbus)
		if prog == nil || prog.Module == nil {
			continue
		}
		if err := reg.Register(prog.Module.Name, src.Path, prog); err != nil {
			return nil, fmt.Errorf("compiler: %w", err)
		}
		progs = append(progs, prog)
	}

	for _, prog := range progs {
		for _, d := range prog.Decls {
			if imp, ok := d.(*ast.ImportDecl); ok {
				reg.AddDependency(prog.Module.Name, imp.From)
			}
		}
	}
	module.DetectCycles(reg, bus)

	for _, prog := range progs {
		r := sema.Analyze(prog)
		mergeInto(bus, r.Bus)
		res.Modules[prog.Module.Name] = &ModuleOutput{Name: prog.Module.Name, Program: prog, Sema: r}
	}

	exports := map[string]module.ExportSet{}
	for name, out := range res.Modules {
		exports[name] = exportsOf(out.Sema)
	}
	module.NewGlobalTable(exports, bus)

	for _, prog := range progs {
		for _, d := range prog.Decls {
			if imp, ok := d.(*ast.ImportDecl); ok {
				module.ResolveImport(reg, exports, imp, bus)
			}
		}
	}

	analyzer, analyzerErr := target.NewAnalyzer(opts.Target, opts.Manifest)
	if analyzerErr != nil {
		bus.Errorf("CONFIG001", source0(progs), fmt.Sprintf("target configuration error: %v", analyzerErr))
	}

	for _, out := range res.Modules {
		if !out.Sema.Success {
			continue
		}
		out.IL = ilgen.Generate(out.Program, out.Sema)
		out.Optimized = optimizer.Optimize(optimizer.Config{
			Enabled:       true,
			Passes:        optimizer.Standard(opts.OptimizeLevel),
			MaxIterations: 16,
		}, out.IL)

		if analyzerErr == nil {
			analyzer.Analyze(out.Program, out.Sema.Table, bus)
		}
	}

	res.Success = !bus.HasErrors()
	return res, nil
}

// exportsOf builds a module's ExportSet from its semantic analysis result:
// every root-scope symbol it declared Exported.
func exportsOf(r *sema.Result) module.ExportSet {
	set := module.ExportSet{}
	if r == nil || r.Table == nil {
		return set
	}
	for _, sym := range r.Table.Root().SymbolsInScope() {
		if sym.Exported {
			set[sym.Name] = sym
		}
	}
	return set
}

// mergeInto appends src's diagnostics onto dst in report order, so each
// phase's bus folds into the single bus the CLI presents to the user.
func mergeInto(dst, src *diag.Bus) {
	for _, d := range src.All() {
		dst.Report(d.Code, d.Severity, d.Message, d.Primary, d.Related, d.Fixes)
	}
}

// source0 anchors a configuration-error diagnostic somewhere reasonable
// when no per-node location applies: the first parsed module, if any.
func source0(progs []*ast.Program) source.Range {
	if len(progs) > 0 && progs[0].Module != nil {
		return progs[0].Module.Range()
	}
	return source.Range{}
}

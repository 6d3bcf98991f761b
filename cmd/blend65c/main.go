// Command blend65c is the Blend65 compiler's CLI front door: a Cobra
// command tree wiring file I/O and flag parsing (both deliberately out of
// the core's scope per spec.md §1) onto pkg/compiler, the way the teacher's
// cmd/z80opt wires its own flags onto pkg/search and pkg/stoke.
package main

import (
	"fmt"
	"os"

	"github.com/blendsdk/blend65/pkg/compiler"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/il"
	"github.com/blendsdk/blend65/pkg/parser"
	"github.com/blendsdk/blend65/pkg/sema"
	"github.com/blendsdk/blend65/pkg/target"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blend65c",
		Short: "Blend65 compiler — Commodore 64 and friends",
	}

	var targetStr string
	var optLevel int
	var manifestPath string

	newOptions := func() (compiler.Options, error) {
		id := target.Parse(targetStr)
		if id == target.Unknown {
			return compiler.Options{}, fmt.Errorf("unknown --target %q", targetStr)
		}
		var manifest *target.Manifest
		if manifestPath != "" {
			m, err := target.LoadManifest(manifestPath)
			if err != nil {
				return compiler.Options{}, err
			}
			manifest = m
		}
		return compiler.Options{Target: id, Manifest: manifest, OptimizeLevel: optLevel}, nil
	}

	readSources := func(paths []string) ([]compiler.Source, error) {
		srcs := make([]compiler.Source, 0, len(paths))
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", p, err)
			}
			srcs = append(srcs, compiler.Source{Path: p, Text: string(data)})
		}
		return srcs, nil
	}

	buildCmd := &cobra.Command{
		Use:   "build [files...]",
		Short: "Compile sources to optimized IL and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := newOptions()
			if err != nil {
				return err
			}
			srcs, err := readSources(args)
			if err != nil {
				return err
			}
			res, err := compiler.Compile(opts, srcs)
			if err != nil {
				return err
			}
			printDiagnostics(res.Bus.All())
			if !res.Success {
				os.Exit(1)
			}
			for _, name := range sortedKeys(res.Modules) {
				out := res.Modules[name]
				if out.IL != nil {
					fmt.Print(il.Print(out.IL))
				}
			}
			return nil
		},
	}
	buildCmd.Flags().StringVar(&targetStr, "target", "c64", "compilation target: c64, c128, x16, generic")
	buildCmd.Flags().IntVar(&optLevel, "opt", 1, "optimizer level (0 disables non-mandatory passes)")
	buildCmd.Flags().StringVar(&manifestPath, "manifest", "", "optional YAML target-capability manifest")

	checkCmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Run semantic analysis only and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := readSources(args)
			if err != nil {
				return err
			}
			bus := diag.New()
			for _, src := range srcs {
				prog, pbus := parser.Parse(src.Path, src.Text)
				for _, d := range pbus.All() {
					bus.Report(d.Code, d.Severity, d.Message, d.Primary, d.Related, d.Fixes)
				}
				if prog == nil {
					continue
				}
				r := sema.Analyze(prog)
				for _, d := range r.Bus.All() {
					bus.Report(d.Code, d.Severity, d.Message, d.Primary, d.Related, d.Fixes)
				}
			}
			printDiagnostics(bus.All())
			if bus.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}

	astDumpCmd := &cobra.Command{
		Use:   "ast-dump [file]",
		Short: "Parse one file and print its AST",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prog, bus := parser.Parse(args[0], string(data))
			printDiagnostics(bus.All())
			if prog == nil {
				os.Exit(1)
				return nil
			}
			fmt.Printf("%+v\n", prog)
			if bus.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}

	ilDumpCmd := &cobra.Command{
		Use:   "il-dump [files...]",
		Short: "Compile sources and print their IL (intrinsics always lowered, per the mandatory pass)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := newOptions()
			if err != nil {
				return err
			}
			srcs, err := readSources(args)
			if err != nil {
				return err
			}
			res, err := compiler.Compile(opts, srcs)
			if err != nil {
				return err
			}
			printDiagnostics(res.Bus.All())
			for _, name := range sortedKeys(res.Modules) {
				out := res.Modules[name]
				if out.IL != nil {
					fmt.Print(il.Print(out.IL))
				}
			}
			if !res.Success {
				os.Exit(1)
			}
			return nil
		},
	}
	ilDumpCmd.Flags().StringVar(&targetStr, "target", "c64", "compilation target: c64, c128, x16, generic")
	ilDumpCmd.Flags().IntVar(&optLevel, "opt", 0, "optimizer level (0 disables non-mandatory passes)")
	ilDumpCmd.Flags().StringVar(&manifestPath, "manifest", "", "optional YAML target-capability manifest")

	rootCmd.AddCommand(buildCmd, checkCmd, astDumpCmd, ilDumpCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// sortedKeys returns a map's keys in sorted order, so CLI output is
// deterministic across the module set (the compiler itself iterates
// deterministically; only this display layer needed the extra sort since
// map iteration order over res.Modules isn't otherwise guaranteed).
func sortedKeys(m map[string]*compiler.ModuleOutput) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// printDiagnostics implements §7's user-visible behavior: diagnostics
// grouped by file, each line "code severity file:line:col: message",
// followed by indented related locations and fix suggestions.
func printDiagnostics(items []diag.Diagnostic) {
	files, grouped := diag.ByFile(items)
	for _, f := range files {
		for _, d := range grouped[f] {
			fmt.Printf("%s %s %s: %s\n", d.Code, d.Severity, d.Primary, d.Message)
			for _, rel := range d.Related {
				fmt.Printf("    %s: %s\n", rel.Location, rel.Message)
			}
			for _, fix := range d.Fixes {
				fmt.Printf("    fix: %s\n", fix.Message)
			}
		}
	}
}

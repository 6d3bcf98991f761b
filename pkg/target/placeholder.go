package target

import (
	"fmt"
	"sync"

	"github.com/blendsdk/blend65/pkg/ast"
	"github.com/blendsdk/blend65/pkg/diag"
	"github.com/blendsdk/blend65/pkg/symbols"
)

// placeholderAnalyzer stands in for C128 and X16 (§4.K: "emit a single
// informational warning per program noting the target is not implemented,
// then skip hardware checks without failing"). once guards the "per
// program" part across repeated Analyze calls on the same instance, since
// pkg/compiler calls it once per module in a multi-module compile.
type placeholderAnalyzer struct {
	target ID
	label  string
	once   sync.Once
}

func (p *placeholderAnalyzer) Analyze(prog *ast.Program, table *symbols.Table, bus *diag.Bus) {
	p.once.Do(func() {
		loc := prog.Range()
		if prog.Module != nil {
			loc = prog.Module.Range()
		}
		bus.Infof("H100", loc, fmt.Sprintf("%s hardware analysis is not implemented; zero-page and graphics/sound layout checks are skipped for this target (default CPU: %s)", p.label, DefaultCPU(p.target)))
	})
}

// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	log "github.com/sirupsen/logrus"

	"github.com/airscript-lang/airscript/pkg/air"
	airpasses "github.com/airscript-lang/airscript/pkg/air/passes"
	"github.com/airscript-lang/airscript/pkg/ast"
	"github.com/airscript-lang/airscript/pkg/diag"
	"github.com/airscript-lang/airscript/pkg/mir"
	mirpasses "github.com/airscript-lang/airscript/pkg/mir/passes"
)

// Compile runs the fixed pass order spec.md §5 specifies: AST -> MIR,
// MIR rewrite passes to a fixed point, MIR -> AIR-IR, AIR-level bus
// expansion. It reports every diagnostic it encounters to diags and
// keeps going where a pass can (e.g. a malformed boundary constraint
// doesn't stop later constraints from being checked too), only
// returning early once a stage can no longer make progress without
// diagnostics already reported.
func Compile(mod *ast.Module, cfg Config, diags diag.Handler) (*air.Graph, *CompileError) {
	if cfg.Pipeline == PipelineLegacy && len(mod.Buses) > 0 {
		diags.Report(diag.Errorf(mod.Span, "buses are not implemented for this Pipeline"))
		return nil, Failed()
	}

	log.WithField("module", mod.Name).Debug("translating AST to MIR")

	mg, err := mir.Translate(mod, diags)
	if err != nil {
		return nil, Failed()
	}

	runMirPasses(mg)

	ag, cerr := Lower(mg, diags)
	if cerr != nil {
		return ag, cerr
	}

	log.WithField("module", mod.Name).Debug("expanding bus operations")
	airpasses.ExpandBuses(ag)

	if diags.HasErrors() {
		return ag, Failed()
	}

	return ag, nil
}

// runMirPasses runs constant propagation, call inlining, and
// comprehension unrolling in spec.md §5's fixed order, repeating the
// whole round as long as any pass made progress: inlining a function
// call can expose a fresh constant-foldable expression, and unrolling a
// comprehension can expose a fresh inlinable call, so a single pass over
// each is not always enough to reach the pipeline's fixed point.
func runMirPasses(mg *mir.Graph) {
	for {
		changed := mirpasses.ConstantPropagation(mg)
		changed = mirpasses.InlineCalls(mg) || changed
		changed = mirpasses.UnrollComprehensions(mg) || changed

		if !changed {
			return
		}
	}
}

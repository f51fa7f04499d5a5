//go:build js && wasm

package problem

import (
	"fmt"
	"syscall/js"

	"github.com/cottand/qinfer/stats"
	"github.com/cottand/qinfer/strategy"
)

// SolveAndShow solves the YAML problem in args[0] and returns its report.
//
// output: { error: string } | { report: string, satisfiable: bool }
func SolveAndShow(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{
			"error": err,
		})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("solver panicked: " + fmt.Sprint(r))
		}
	}()
	if len(args) == 0 {
		return errorObj("expected a problem")
	}

	p, err := Parse([]byte(args[0].String()), "problem.yaml")
	if err != nil {
		return errorObj(err.Error())
	}
	statistics := stats.New()
	result, err := p.Solve(strategy.WithStatistics(statistics))
	if err != nil {
		return errorObj(err.Error())
	}
	report := NewReport(result, statistics)
	out, err := report.Marshal()
	if err != nil {
		return errorObj(err.Error())
	}
	return js.ValueOf(map[string]any{
		"report":      string(out),
		"satisfiable": report.Satisfiable,
	})
}

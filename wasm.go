//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/qinfer/problem"
)

func main() {
	js.Global().Set("SolveProblem", js.FuncOf(problem.SolveAndShow))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cottand/qinfer/problem"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

var (
	satisfiablePrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack),
			Text:  "Solved",
		},
	}
	unsatisfiablePrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: pterm.NewStyle(pterm.BgRed, pterm.FgWhite),
			Text:  "Unsat",
		},
	}
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// displaySummary prints a one-line summary of report to w, if w is a terminal
func displaySummary(w io.Writer, name string, report problem.Report, took time.Duration) {
	if !isTerminal(w) {
		return
	}
	elapsed := fmt.Sprintf("(%.3fs)", took.Seconds())
	if report.Satisfiable {
		_, _ = fmt.Fprint(w, satisfiablePrinter.Sprintln(name, "-", len(report.Solution), "slots", elapsed))
		return
	}
	_, _ = fmt.Fprint(w, unsatisfiablePrinter.Sprintln(name, "-", len(report.Unsatisfiable), "conflicting constraints", elapsed))
}

package cmd

import (
	"fmt"
	"time"

	"github.com/cottand/qinfer/internal/log"
	"github.com/cottand/qinfer/problem"
	"github.com/cottand/qinfer/solver/propagate"
	"github.com/cottand/qinfer/stats"
	"github.com/cottand/qinfer/strategy"
	"github.com/spf13/cobra"
)

var SolveCmd = &cobra.Command{
	Use:          "solve problem.yaml",
	Short:        "Infer a qualifier for every variable slot of a problem",
	RunE:         runSolve,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	solveLogs        *logFlags
	solveParallelism *int
	solveLenient     *bool
	solvePrefer      *string
	solveStrategy    *string
	solveStats       *bool
)

func init() {
	solveLogs = addLogFlags(SolveCmd)
	solveParallelism = SolveCmd.Flags().IntP("parallelism", "p", 0, "sub-tasks solved at once, overrides the problem file")
	solveLenient = SolveCmd.Flags().Bool("lenient", false, "drop constraints over unknown slots instead of failing")
	solvePrefer = SolveCmd.Flags().String("prefer", "", "greatest or least solution, overrides the problem file")
	solveStrategy = SolveCmd.Flags().StringP("strategy", "s", "", "components, monolithic, or dataflow, overrides the problem file")
	solveStats = SolveCmd.Flags().Bool("stats", false, "print statistics")
}

func runSolve(cmd *cobra.Command, args []string) error {
	if err := solveLogs.apply(); err != nil {
		return err
	}

	p, err := problem.Load(args[0])
	if err != nil {
		return err
	}
	if *solveParallelism > 0 {
		p.Parallelism = *solveParallelism
	}
	if *solveLenient {
		p.Lenient = true
	}
	switch *solvePrefer {
	case "":
	case propagate.Greatest.String():
		p.Prefer = propagate.Greatest
	case propagate.Least.String():
		p.Prefer = propagate.Least
	default:
		return fmt.Errorf("unknown preference %q", *solvePrefer)
	}
	switch *solveStrategy {
	case "":
	case problem.Components, problem.Monolithic, problem.DataFlow:
		p.Strategy = *solveStrategy
	default:
		return fmt.Errorf("unknown strategy %q", *solveStrategy)
	}

	statistics := stats.New()
	start := time.Now()
	result, err := p.Solve(
		strategy.WithStatistics(statistics),
		strategy.WithLogger(log.DefaultLogger.With("problem", args[0])),
	)
	if err != nil {
		return fmt.Errorf("could not solve %s: %w", args[0], err)
	}

	report := problem.NewReport(result, statistics)
	if !*solveStats {
		report.Statistics = nil
	}
	out, err := report.Marshal()
	if err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}
	_, _ = cmd.OutOrStdout().Write(out)
	displaySummary(cmd.ErrOrStderr(), args[0], report, time.Since(start))
	return result.Err()
}

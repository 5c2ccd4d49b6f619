package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mechlink-go/pkg/mechconfig"
	"mechlink-go/pkg/metrics"
	"mechlink-go/pkg/solver"
	"mechlink-go/pkg/stream"
)

var (
	sweepInput string
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep <file.mech>",
	Short: "Drive one input joint through a value range and print the solved frame at each step",
	Args:  cobra.ExactArgs(1),
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepInput, "input", "", "joint name to drive (required)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "starting driven value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 360, "ending driven value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 36, "number of steps between from and to, inclusive")
	sweepCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	m, err := mechconfig.LoadMechanism(args[0])
	if err != nil {
		return err
	}
	idx, ok := m.Index(sweepInput)
	if !ok {
		return fmt.Errorf("sweep: unknown joint %q", sweepInput)
	}

	sys, err := solver.NewSystem(m.Joints, driversWith(m.SolverDrivers(), idx, sweepFrom))
	if err != nil {
		return err
	}

	mm := metrics.NewMechMetrics()
	return runSweepLoop(sys, idx, mm, func(t float64, i int) {
		f := stream.NewFrame(t, m.Names, sys.Joints())
		printSweepFrame(i, f)
	})
}

// driversWith returns drivers with the driven value for jointIdx set to
// value, adding an entry if jointIdx has no driver in the base list.
func driversWith(base []solver.Driver, jointIdx int, value float64) []solver.Driver {
	out := make([]solver.Driver, 0, len(base)+1)
	found := false
	for _, d := range base {
		if d.JointIdx == jointIdx {
			d.Value = value
			found = true
		}
		out = append(out, d)
	}
	if !found {
		out = append(out, solver.Driver{JointIdx: jointIdx, Value: value})
	}
	return out
}

// runSweepLoop walks sweepFrom..sweepTo in sweepSteps steps, solving at
// each and calling emit with the driven value and step index. It
// records per-step solve metrics on mm.
func runSweepLoop(sys *solver.SolverSystem, jointIdx int, mm *metrics.MechMetrics, emit func(value float64, step int)) error {
	steps := sweepSteps
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		value := sweepFrom + frac*(sweepTo-sweepFrom)

		if err := sys.SetInputs([]solver.Driver{{JointIdx: jointIdx, Value: value}}); err != nil {
			return err
		}

		start := time.Now()
		err := sys.Solve(solver.Rough)
		duration := time.Since(start)
		residual := sumSquaredResidual(sys)
		iterations, _ := sys.ShowData("solve_iterations")

		if err != nil {
			mm.RecordSolve(duration, residual, int(iterations), errorCode(err))
			return fmt.Errorf("sweep step %d (value=%.4f): %w", i, value, err)
		}
		mm.RecordSolve(duration, residual, int(iterations), "")
		mm.RecordSweepFrame()

		emit(value, i)
	}
	return nil
}

func printSweepFrame(step int, f stream.Frame) {
	fmt.Printf("step %-3d value=%.4f\n", step, f.Time)
	for _, jf := range f.Joints {
		if jf.PinX != nil {
			fmt.Printf("  %-20s %-3s (%.4f, %.4f) -> (%.4f, %.4f)\n", jf.Name, jf.Type, jf.X, jf.Y, *jf.PinX, *jf.PinY)
			continue
		}
		fmt.Printf("  %-20s %-3s (%.4f, %.4f)\n", jf.Name, jf.Type, jf.X, jf.Y)
	}
}

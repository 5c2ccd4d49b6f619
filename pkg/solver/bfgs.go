package solver

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"mechlink-go/pkg/geom"
	"mechlink-go/pkg/joint"
	"mechlink-go/pkg/mechlerr"
	"mechlink-go/pkg/mlog"
)

var log = mlog.New("solver")

// convergenceTol is the maximum acceptable sum-of-squared-residuals
// after optimization for a solve to be considered successful.
const convergenceTol = 1e-8

// Precision selects how hard the minimizer works before giving up.
// Rough is meant for interactive sweeps (many solves per second, small
// per-step deltas make a loose gradient threshold safe); Fine is for a
// one-shot solve where accuracy matters more than latency.
type Precision int

const (
	Rough Precision = iota
	Fine
)

// settings returns the optimize.Settings preset for a precision level.
func (p Precision) settings() *optimize.Settings {
	switch p {
	case Fine:
		return &optimize.Settings{GradientThreshold: 1e-10, MajorIterations: 500}
	default:
		return &optimize.Settings{GradientThreshold: 1e-6, MajorIterations: 100}
	}
}

// freeParams returns every allocated parameter the optimizer may
// adjust — everything not pinned by a grounded joint.
func (s *SolverSystem) freeParams() []ParamID {
	var free []ParamID
	for i := 0; i < s.arena.Len(); i++ {
		id := ParamID(i)
		if !s.locked[id] {
			free = append(free, id)
		}
	}
	return free
}

// objective returns the sum-of-squared-constraint-residuals function
// over the given free parameter set, writing each trial vector into
// the arena as a side effect (the constraints read straight from the
// arena, so this is how the optimizer's candidate point becomes
// visible to Constraint.Residual).
func (s *SolverSystem) objective(free []ParamID) func(x []float64) float64 {
	return func(x []float64) float64 {
		for i, id := range free {
			s.arena.Set(id, x[i])
		}
		sum := 0.0
		for _, c := range s.constraints {
			r := c.Residual(s.arena)
			sum += r * r
		}
		return sum
	}
}

// Solve runs the BFGS minimizer over the system's free parameters
// until the constraint residual converges, then writes the resulting
// coordinates back into every joint (spec.md §4.D). It returns
// NoSolution if the optimizer's best point still leaves a residual
// above convergenceTol. precision trades solve latency for accuracy —
// Rough for interactive sweeps, Fine for a one-shot solve.
func (s *SolverSystem) Solve(precision Precision) error {
	free := s.freeParams()
	if len(free) == 0 {
		return s.writeBack()
	}

	x0 := make([]float64, len(free))
	for i, id := range free {
		x0[i] = s.arena.Get(id)
	}

	obj := s.objective(free)
	problem := optimize.Problem{
		Func: obj,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, obj, x, nil)
		},
	}

	result, err := optimize.Minimize(problem, x0, precision.settings(), &optimize.BFGS{})
	if err != nil && result == nil {
		return mechlerr.NoSolutionError(err.Error())
	}

	finalResidual := obj(result.X)
	for i, id := range free {
		s.arena.Set(id, result.X[i])
	}
	s.SetData("solve_iterations", float64(result.Stats.MajorIterations))
	log.Debug("bfgs converged in %d iterations, residual %.3g", result.Stats.MajorIterations, finalResidual)
	if finalResidual > convergenceTol {
		return mechlerr.NoSolutionError(
			fmt.Sprintf("residual %.3g exceeds tolerance %.3g after optimization", finalResidual, convergenceTol))
	}
	return s.writeBack()
}

// writeBack copies the arena's current parameter values into every
// joint's live coordinates.
func (s *SolverSystem) writeBack() error {
	for i, v := range s.joints {
		a := s.anchor[i]
		anchorPt := geom.Point{X: s.arena.Get(a.X), Y: s.arena.Get(a.Y)}
		if v.Type() == joint.R {
			v.Move(anchorPt)
			continue
		}
		p := s.pin[i]
		pinPt := geom.Point{X: s.arena.Get(p.X), Y: s.arena.Get(p.Y)}
		v.Move(anchorPt, pinPt)
	}
	return nil
}

package formula

// #region constants
// Epsilon is the floor applied to denominators and log arguments.
const Epsilon = 1e-9

// MinRatio is the lower floor on an unclipped policy ratio.
const MinRatio = 0.2

// DefaultAdvantages is the fixed advantage sequence driving the PPO trajectory.
var DefaultAdvantages = []float64{0.8, 0.3, -0.2, 1.0, -0.5, 0.4, -0.1, 0.6, -0.3, 0.2}

// #endregion constants

// #region trajectory-point
// TrajectoryPoint is one optimisation step of the clipped-ratio simulation.
type TrajectoryPoint struct {
	Step      int
	Advantage float64
	Unclipped float64
	Clipped   float64
}

// #endregion trajectory-point

// #region weighted
// Weighted is a named weight in a blend.
type Weighted struct {
	Name   string
	Weight float64
}

// #endregion weighted

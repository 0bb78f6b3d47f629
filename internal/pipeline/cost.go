package pipeline

// costEpsilon absorbs float drift so a ceiling of start+n*per admits exactly n.
const costEpsilon = 1e-9

// CostBudget tracks the estimated spend of one run. A nil Ceiling disables
// enforcement.
type CostBudget struct {
	StartCost     float64
	PerResultCost float64
	Ceiling       *float64
	Accumulated   float64
}

func NewCostBudget(start, perResult float64, ceiling *float64) CostBudget {
	return CostBudget{
		StartCost:     start,
		PerResultCost: perResult,
		Ceiling:       ceiling,
		Accumulated:   start,
	}
}

// Estimate is the running cost after one more unit.
func Estimate(current, nextUnitCost float64) float64 {
	return current + nextUnitCost
}

// CanEmit reports whether one more result fits under the ceiling.
func (b CostBudget) CanEmit() bool {
	if b.Ceiling == nil {
		return true
	}
	return Estimate(b.Accumulated, b.PerResultCost) <= *b.Ceiling+costEpsilon
}

// Charge books one emitted result.
func (b CostBudget) Charge() CostBudget {
	b.Accumulated = Estimate(b.Accumulated, b.PerResultCost)
	return b
}

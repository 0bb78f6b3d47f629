package pipeline

import "atsscout-engine/internal/domain"

// runState is everything a run mutates. Each platform step takes it and
// returns the updated value.
type runState struct {
	Seen          SeenURLs
	Budget        CostBudget
	Postings      []domain.JobPosting
	StoppedByCost bool
}

func newRunState(b CostBudget) runState {
	return runState{
		Seen:     SeenURLs{},
		Budget:   b,
		Postings: []domain.JobPosting{},
	}
}

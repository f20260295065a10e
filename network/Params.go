package network

import (
	G "gorgonia.org/gorgonia"
)

// headBlock is the number of consecutive learnables in a dual-head
// network that describe one layer of both heads.
const headBlock = 4

// SplitHeads partitions the indices [0, n) of an ordered learnable
// sequence into the indices of the action head and the indices of the
// interval head. Index i belongs to the action head if i % 4 < 2 and to
// the interval head otherwise. Both groups preserve the order of the
// original sequence.
func SplitHeads(n int) (action, interval []int) {
	for i := 0; i < n; i++ {
		if i%headBlock < headBlock/2 {
			action = append(action, i)
		} else {
			interval = append(interval, i)
		}
	}
	return action, interval
}

// SplitModel splits the model of a dual-head network into the
// parameters of its action head and the parameters of its interval
// head, following SplitHeads.
func SplitModel(model []G.ValueGrad) (action, interval []G.ValueGrad) {
	actionIndices, intervalIndices := SplitHeads(len(model))

	action = make([]G.ValueGrad, len(actionIndices))
	for i, j := range actionIndices {
		action[i] = model[j]
	}

	interval = make([]G.ValueGrad, len(intervalIndices))
	for i, j := range intervalIndices {
		interval[i] = model[j]
	}
	return action, interval
}

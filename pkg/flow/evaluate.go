package flow

import "position-manager/pkg/types"

// Evaluate derives the approval status of every relevant side of pair.
// A side is Approved when its allowance covers the required amount, Pending when
// an approval for it is in flight, and NotApproved otherwise.
func Evaluate(pair types.AmountPair, allowances map[types.Side]types.Amount, inFlight map[types.Side]bool) types.Statuses {
	statuses := make(types.Statuses, 2)
	for _, side := range pair.Relevant() {
		required := pair.Deposited(side)
		allowance, ok := allowances[side]
		switch {
		case ok && allowance.Asset.Equal(required.Asset) && allowance.Covers(required):
			statuses[side] = types.Approved
		case inFlight[side]:
			statuses[side] = types.Pending
		default:
			statuses[side] = types.NotApproved
		}
	}
	return statuses
}

// CanCommit reports whether the deposit for pair may be submitted given statuses.
// Sides the mode does not deposit, and zero amounts, never gate the commit.
func CanCommit(pair types.AmountPair, statuses types.Statuses) bool {
	relevant := pair.Relevant()
	if len(relevant) == 0 {
		return false
	}
	for _, side := range relevant {
		if statuses[side] != types.Approved {
			return false
		}
	}

	switch m := pair.Mode.(type) {
	case types.DualSided:
		return !pair.A.IsZero() && !pair.B.IsZero()
	case types.SingleSided:
		return !pair.Amount(m.Side).IsZero()
	default:
		return false
	}
}

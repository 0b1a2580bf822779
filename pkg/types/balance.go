package types

import "fmt"

// CheckBalances fails when a deposited side exceeds the user's balance.
// Sides without a known balance are not checked.
func CheckBalances(pair AmountPair, balances map[Side]Amount) error {
	for _, side := range pair.Relevant() {
		balance, ok := balances[side]
		if !ok {
			continue
		}
		required := pair.Deposited(side)
		if !balance.Covers(required) {
			return fmt.Errorf("%w: insufficient %s balance: have %s, need %s",
				ErrPreconditionFailed, required.Asset, balance.Value, required.Value)
		}
	}
	return nil
}

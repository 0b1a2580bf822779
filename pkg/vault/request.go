package vault

import (
	"fmt"

	"github.com/shopspring/decimal"

	"position-manager/pkg/types"
)

// PairFromRequest turns a parsed deposit command into the amounts sent to v.
// A single amount on a dual-sided vault fills the other side from ratio.
func PairFromRequest(v Vault, req *types.DepositRequest, ratio decimal.Decimal) (types.AmountPair, error) {
	values := make(map[types.Side]types.Amount, 2)
	for _, leg := range req.Legs {
		side, ok := v.SideOf(leg.Token)
		if !ok {
			return types.AmountPair{}, fmt.Errorf("%w: vault %d takes %s, not %s", types.ErrPreconditionFailed, v.ID, v.LPSymbol(), leg.Token)
		}
		if _, dup := values[side]; dup {
			return types.AmountPair{}, fmt.Errorf("%w: %s given twice", types.ErrPreconditionFailed, leg.Token)
		}
		amount, err := types.ParseAmount(v.Asset(side), leg.Amount)
		if err != nil {
			return types.AmountPair{}, err
		}
		values[side] = amount
	}

	switch mode := v.Mode().(type) {
	case types.SingleSided:
		for side, amount := range values {
			if side != mode.Side && !amount.IsZero() {
				return types.AmountPair{}, fmt.Errorf("%w: vault %d only accepts %s deposits", types.ErrPreconditionFailed, v.ID, v.Asset(mode.Side).Symbol)
			}
		}
		deposit, ok := values[mode.Side]
		if !ok {
			deposit = types.ZeroAmount(v.Asset(mode.Side))
		}
		return LinkedPair(v, mode.Side, deposit.Value, ratio), nil
	case types.DualSided:
		if len(values) == 1 {
			for side, amount := range values {
				return LinkedPair(v, side, amount.Value, ratio), nil
			}
		}
		return types.DualSidedPair(values[types.SideA], values[types.SideB]), nil
	default:
		return types.AmountPair{}, fmt.Errorf("unsupported deposit mode %s", mode)
	}
}

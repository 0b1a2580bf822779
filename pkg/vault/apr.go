package vault

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"position-manager/pkg/types"
)

const secondsPerYear = 365 * 24 * 60 * 60

var (
	daysPerYear = decimal.NewFromInt(365)
	percent     = decimal.NewFromInt(100)
)

// Prices maps token addresses to USD prices
type Prices map[common.Address]decimal.Decimal

// Of returns the USD price of asset, zero when unknown
func (p Prices) Of(asset types.Asset) decimal.Decimal {
	if price, ok := p[asset.Address]; ok {
		return price
	}
	return decimal.Zero
}

// USD values amount at its price
func (p Prices) USD(amount types.Amount) decimal.Decimal {
	return amount.Value.Mul(p.Of(amount.Asset))
}

// APR is a vault yield estimate in percent
type APR struct {
	LPFee  decimal.Decimal
	Reward decimal.Decimal
}

// Total returns the combined APR
func (a APR) Total() decimal.Decimal {
	return a.LPFee.Add(a.Reward)
}

// APRInput gathers what the APR estimate needs
type APRInput struct {
	Pool0, Pool1 types.Amount
	// AvgFee0 and AvgFee1 are average daily fee amounts earned by the pool
	AvgFee0, AvgFee1 decimal.Decimal
	Prices           Prices
	Now              time.Time
}

// TotalStakedUSD values both pool amounts
func TotalStakedUSD(pool0, pool1 types.Amount, prices Prices) decimal.Decimal {
	return prices.USD(pool0).Add(prices.USD(pool1))
}

// EstimateAPR computes the LP fee APR and the earning-token reward APR of v.
// Both are zero when the pool has no USD value.
func EstimateAPR(v Vault, in APRInput) APR {
	tvl := TotalStakedUSD(in.Pool0, in.Pool1, in.Prices)
	if !tvl.IsPositive() {
		return APR{LPFee: decimal.Zero, Reward: decimal.Zero}
	}

	dailyFees := in.AvgFee0.Mul(in.Prices.Of(in.Pool0.Asset)).
		Add(in.AvgFee1.Mul(in.Prices.Of(in.Pool1.Asset)))
	apr := APR{
		LPFee:  dailyFees.Mul(daysPerYear).Div(tvl).Mul(percent),
		Reward: decimal.Zero,
	}

	if v.RewardPerSecond == nil || v.RewardPerSecond.Sign() == 0 || v.RewardEnded(in.Now) {
		return apr
	}

	perSecond := types.AmountFromRaw(v.EarningToken, v.RewardPerSecond)
	yearly := perSecond.Value.Mul(decimal.NewFromInt(secondsPerYear)).Mul(in.Prices.Of(v.EarningToken))
	apr.Reward = yearly.Div(tvl).Mul(percent)
	return apr
}

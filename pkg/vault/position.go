package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"position-manager/pkg/chain"
	"position-manager/pkg/types"
)

// Reader reads on-chain vault state
type Reader interface {
	TokenPerShare(ctx context.Context, adapter common.Address) (*big.Int, *big.Int, error)
	TotalAmounts(ctx context.Context, adapter common.Address) (*big.Int, *big.Int, error)
	TotalShares(ctx context.Context, adapter common.Address) (*big.Int, error)
	UserInfo(ctx context.Context, wrapper, user common.Address) (chain.UserInfo, error)
	PendingReward(ctx context.Context, wrapper, user common.Address) (*big.Int, error)
}

// Position is a user's stake in a vault
type Position struct {
	VaultID         int
	UserShares      *big.Int
	TotalShares     *big.Int
	Pool0           types.Amount
	Pool1           types.Amount
	User0           types.Amount
	User1           types.Amount
	PendingReward   types.Amount
	VaultPercentage decimal.Decimal
}

// Staked reports whether the user holds any shares
func (p Position) Staked() bool {
	return p.UserShares != nil && p.UserShares.Sign() > 0
}

// AssetsUSD values the user's token amounts
func (p Position) AssetsUSD(prices Prices) decimal.Decimal {
	return prices.USD(p.User0).Add(prices.USD(p.User1))
}

// EarningUSD values the pending reward
func (p Position) EarningUSD(prices Prices) decimal.Decimal {
	return prices.USD(p.PendingReward)
}

// TotalStakedUSD values the whole pool
func (p Position) TotalStakedUSD(prices Prices) decimal.Decimal {
	return TotalStakedUSD(p.Pool0, p.Pool1, prices)
}

// ReadRatio reads the vault's current token ratio
func ReadRatio(ctx context.Context, r Reader, v Vault) (decimal.Decimal, error) {
	if v.AdapterAddress == (common.Address{}) {
		return decimal.NewFromInt(1), nil
	}
	r0, r1, err := r.TokenPerShare(ctx, v.AdapterAddress)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to read token ratio of vault %d: %w", v.ID, err)
	}
	return TokenRatio(r0, r1), nil
}

// ReadPool reads the token amounts held by the vault
func ReadPool(ctx context.Context, r Reader, v Vault) (types.Amount, types.Amount, error) {
	total0, total1, err := r.TotalAmounts(ctx, v.AdapterAddress)
	if err != nil {
		return types.Amount{}, types.Amount{}, fmt.Errorf("failed to read pool of vault %d: %w", v.ID, err)
	}
	return types.AmountFromRaw(v.CurrencyA, total0), types.AmountFromRaw(v.CurrencyB, total1), nil
}

// ReadPosition reads the vault totals and the user's stake concurrently
func ReadPosition(ctx context.Context, r Reader, v Vault, user common.Address) (*Position, error) {
	var (
		total0, total1 *big.Int
		totalShares    *big.Int
		info           chain.UserInfo
		reward         *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total0, total1, err = r.TotalAmounts(gctx, v.AdapterAddress)
		return err
	})
	g.Go(func() error {
		var err error
		totalShares, err = r.TotalShares(gctx, v.AdapterAddress)
		return err
	})
	g.Go(func() error {
		var err error
		info, err = r.UserInfo(gctx, v.Address, user)
		return err
	})
	g.Go(func() error {
		var err error
		reward, err = r.PendingReward(gctx, v.Address, user)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read position in vault %d: %w", v.ID, err)
	}

	return ComputePosition(v, total0, total1, totalShares, info.Amount, reward), nil
}

// ComputePosition derives the user's token amounts from their share of the pool
func ComputePosition(v Vault, total0, total1, totalShares, userShares, reward *big.Int) *Position {
	p := &Position{
		VaultID:         v.ID,
		UserShares:      orZero(userShares),
		TotalShares:     orZero(totalShares),
		Pool0:           types.AmountFromRaw(v.CurrencyA, orZero(total0)),
		Pool1:           types.AmountFromRaw(v.CurrencyB, orZero(total1)),
		User0:           types.ZeroAmount(v.CurrencyA),
		User1:           types.ZeroAmount(v.CurrencyB),
		PendingReward:   types.AmountFromRaw(v.EarningToken, orZero(reward)),
		VaultPercentage: decimal.Zero,
	}

	if p.TotalShares.Sign() == 0 {
		return p
	}

	p.User0 = types.AmountFromRaw(v.CurrencyA, share(total0, p.UserShares, p.TotalShares))
	p.User1 = types.AmountFromRaw(v.CurrencyB, share(total1, p.UserShares, p.TotalShares))
	p.VaultPercentage = decimal.NewFromBigInt(p.UserShares, 0).
		Div(decimal.NewFromBigInt(p.TotalShares, 0)).
		Mul(percent)
	return p
}

func share(total, userShares, totalShares *big.Int) *big.Int {
	out := new(big.Int).Mul(orZero(total), userShares)
	return out.Quo(out, totalShares)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

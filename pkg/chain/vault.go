package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// UserInfo is a wrapper staking record
type UserInfo struct {
	Amount         *big.Int
	RewardDebt     *big.Int
	LastRewardTime *big.Int
}

// VaultReader reads position manager wrapper and adapter state
type VaultReader struct {
	client *Client
}

// NewVaultReader creates a reader on top of client
func NewVaultReader(client *Client) *VaultReader {
	return &VaultReader{client: client}
}

// TokenPerShare returns the adapter's token0 and token1 amounts per share
func (r *VaultReader) TokenPerShare(ctx context.Context, adapter common.Address) (*big.Int, *big.Int, error) {
	return r.pair(ctx, adapter, "tokenPerShare")
}

// TotalAmounts returns the token0 and token1 amounts held by the adapter
func (r *VaultReader) TotalAmounts(ctx context.Context, adapter common.Address) (*big.Int, *big.Int, error) {
	return r.pair(ctx, adapter, "getTotalAmounts")
}

// TotalShares returns the adapter share supply
func (r *VaultReader) TotalShares(ctx context.Context, adapter common.Address) (*big.Int, error) {
	out, err := r.client.Call(ctx, adapter, adapterABI, "totalSupply")
	if err != nil {
		return nil, err
	}
	return bigAt(out, 0)
}

// UserInfo returns the staking record of user in wrapper
func (r *VaultReader) UserInfo(ctx context.Context, wrapper, user common.Address) (UserInfo, error) {
	out, err := r.client.Call(ctx, wrapper, wrapperABI, "userInfo", user)
	if err != nil {
		return UserInfo{}, err
	}

	var info UserInfo
	if info.Amount, err = bigAt(out, 0); err != nil {
		return UserInfo{}, fmt.Errorf("userInfo: %w", err)
	}
	if info.RewardDebt, err = bigAt(out, 1); err != nil {
		return UserInfo{}, fmt.Errorf("userInfo: %w", err)
	}
	if info.LastRewardTime, err = bigAt(out, 2); err != nil {
		return UserInfo{}, fmt.Errorf("userInfo: %w", err)
	}
	return info, nil
}

// PendingReward returns the unclaimed earning token amount of user
func (r *VaultReader) PendingReward(ctx context.Context, wrapper, user common.Address) (*big.Int, error) {
	out, err := r.client.Call(ctx, wrapper, wrapperABI, "pendingReward", user)
	if err != nil {
		return nil, err
	}
	return bigAt(out, 0)
}

func (r *VaultReader) pair(ctx context.Context, adapter common.Address, method string) (*big.Int, *big.Int, error) {
	out, err := r.client.Call(ctx, adapter, adapterABI, method)
	if err != nil {
		return nil, nil, err
	}
	first, err := bigAt(out, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", method, err)
	}
	second, err := bigAt(out, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", method, err)
	}
	return first, second, nil
}

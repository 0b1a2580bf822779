package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"position-manager/pkg/types"
)

// ERC20 reads balances and allowances and sends approvals
type ERC20 struct {
	client *Client
}

// NewERC20 creates an ERC20 helper on top of client
func NewERC20(client *Client) *ERC20 {
	return &ERC20{client: client}
}

// Allowance returns how much of asset spender may move on behalf of owner
func (e *ERC20) Allowance(ctx context.Context, owner, spender common.Address, asset types.Asset) (types.Amount, error) {
	out, err := e.client.Call(ctx, asset.Address, erc20ABI, "allowance", owner, spender)
	if err != nil {
		return types.Amount{}, err
	}
	raw, err := bigAt(out, 0)
	if err != nil {
		return types.Amount{}, fmt.Errorf("allowance: %w", err)
	}
	return types.AmountFromRaw(asset, raw), nil
}

// Approve lets spender move amount of the token and waits for the receipt
func (e *ERC20) Approve(ctx context.Context, spender common.Address, amount types.Amount) (*types.Receipt, error) {
	if spender == (common.Address{}) {
		return nil, fmt.Errorf("spender cannot be zero address")
	}
	return e.client.Transact(ctx, amount.Asset.Address, erc20ABI, "approve", spender, amount.Raw())
}

// Balance returns the token balance of account
func (e *ERC20) Balance(ctx context.Context, account common.Address, asset types.Asset) (types.Amount, error) {
	out, err := e.client.Call(ctx, asset.Address, erc20ABI, "balanceOf", account)
	if err != nil {
		return types.Amount{}, fmt.Errorf("failed to get %s balance: %w", asset, err)
	}
	raw, err := bigAt(out, 0)
	if err != nil {
		return types.Amount{}, fmt.Errorf("balanceOf: %w", err)
	}
	return types.AmountFromRaw(asset, raw), nil
}

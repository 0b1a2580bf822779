package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}
]`

// positionManagerWrapperABIJSON covers the wrapper methods used for deposits and positions
const positionManagerWrapperABIJSON = `[
{"inputs":[{"name":"_amount0","type":"uint256"},{"name":"_amount1","type":"uint256"},{"name":"_data","type":"bytes"}],"name":"mintThenDeposit","outputs":[],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"name":"_user","type":"address"}],"name":"userInfo","outputs":[{"name":"amount","type":"uint256"},{"name":"rewardDebt","type":"uint256"},{"name":"lastRewardTime","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[{"name":"_user","type":"address"}],"name":"pendingReward","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"adapterAddr","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

const positionManagerAdapterABIJSON = `[
{"inputs":[],"name":"tokenPerShare","outputs":[{"name":"","type":"uint256"},{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"getTotalAmounts","outputs":[{"name":"total0","type":"uint256"},{"name":"total1","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

var (
	erc20ABI   = mustParseABI("ERC20", erc20ABIJSON)
	wrapperABI = mustParseABI("position manager wrapper", positionManagerWrapperABIJSON)
	adapterABI = mustParseABI("position manager adapter", positionManagerAdapterABIJSON)
)

// WrapperABI returns the parsed position manager wrapper ABI
func WrapperABI() *abi.ABI {
	return wrapperABI
}

func mustParseABI(name, raw string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse %s ABI: %v", name, err))
	}
	return &parsed
}

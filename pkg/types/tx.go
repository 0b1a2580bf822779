package types

import "github.com/ethereum/go-ethereum/common"

// ContractCall describes a contract write to submit
type ContractCall struct {
	Contract common.Address
	Method   string
	Args     []interface{}
}

// Receipt summarizes a mined transaction
type Receipt struct {
	TxHash      string `json:"tx_hash"`
	Success     bool   `json:"success"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

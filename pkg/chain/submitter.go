package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"position-manager/pkg/types"
)

// Submitter sends contract calls described by types.ContractCall
type Submitter struct {
	client *Client
	abi    *abi.ABI
}

// NewSubmitter creates a submitter packing calls with contractABI
func NewSubmitter(client *Client, contractABI *abi.ABI) *Submitter {
	return &Submitter{client: client, abi: contractABI}
}

// NewWrapperSubmitter creates a submitter for position manager wrapper calls
func NewWrapperSubmitter(client *Client) *Submitter {
	return NewSubmitter(client, wrapperABI)
}

// Submit sends the call and waits until it is mined
func (s *Submitter) Submit(ctx context.Context, call types.ContractCall) (*types.Receipt, error) {
	if _, exists := s.abi.Methods[call.Method]; !exists {
		return nil, fmt.Errorf("method %s not found in ABI", call.Method)
	}
	return s.client.Transact(ctx, call.Contract, s.abi, call.Method, call.Args...)
}

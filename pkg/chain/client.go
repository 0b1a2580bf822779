package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"position-manager/pkg/types"
)

const defaultGasLimit = uint64(300000)

// Backend is the subset of ethclient.Client used by this package
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// TxSummary is shown to the signer before a transaction is signed
type TxSummary struct {
	To     common.Address
	Method string
	Args   []interface{}
}

// ConfirmFunc asks the wallet owner to sign; returning false rejects the request
type ConfirmFunc func(ctx context.Context, tx TxSummary) bool

// Params tune transaction building and confirmation polling
type Params struct {
	ChainID             int64
	GasLimit            *uint64
	GasPrice            *int64
	RateLimit           rate.Limit
	PollInterval        time.Duration
	ConfirmationTimeout time.Duration
}

// Client signs, sends and confirms contract transactions for one account
type Client struct {
	backend    Backend
	closer     func()
	privateKey *ecdsa.PrivateKey
	from       common.Address
	params     Params
	limiter    *rate.Limiter
	confirm    ConfirmFunc
	log        logrus.FieldLogger
}

// Dial connects to an RPC endpoint and loads the signing key
func Dial(rpcURL string, privateKeyHex string, params Params, confirm ConfirmFunc, log logrus.FieldLogger) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to RPC endpoint: %w", types.ErrNetwork, err)
	}

	c, err := NewClient(client, privateKeyHex, params, confirm, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	c.closer = client.Close
	return c, nil
}

// NewClient wraps an existing backend. An empty key gives a read-only client.
func NewClient(backend Backend, privateKeyHex string, params Params, confirm ConfirmFunc, log logrus.FieldLogger) (*Client, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if params.PollInterval <= 0 {
		params.PollInterval = time.Second
	}
	limit := params.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}

	c := &Client{
		backend: backend,
		params:  params,
		limiter: rate.NewLimiter(limit, 1),
		confirm: confirm,
		log:     log,
	}

	if privateKeyHex != "" {
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		c.privateKey = privateKey
		c.from = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	return c, nil
}

// From returns the signing account address
func (c *Client) From() common.Address {
	return c.from
}

// Close closes the RPC connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// Call executes a read-only contract method and returns its unpacked outputs
func (c *Client) Call(ctx context.Context, contract common.Address, contractABI *abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call %s: %w", types.ErrNetwork, method, err)
	}

	out, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return out, nil
}

// bigAt returns output i as a *big.Int
func bigAt(out []interface{}, i int) (*big.Int, error) {
	if i >= len(out) {
		return nil, fmt.Errorf("missing output %d", i)
	}
	v, ok := out[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d is %T, not uint256", i, out[i])
	}
	return v, nil
}

// Transact asks the signer for confirmation, sends the call and waits for its receipt
func (c *Client) Transact(ctx context.Context, contract common.Address, contractABI *abi.ABI, method string, args ...interface{}) (*types.Receipt, error) {
	if c.privateKey == nil {
		return nil, fmt.Errorf("private key not configured")
	}
	if contract == (common.Address{}) {
		return nil, fmt.Errorf("contract address cannot be zero address")
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	if c.confirm != nil && !c.confirm(ctx, TxSummary{To: contract, Method: method, Args: args}) {
		return nil, fmt.Errorf("%w: %s declined", types.ErrUserRejected, method)
	}

	tx, err := c.buildTx(ctx, contract, data)
	if err != nil {
		return nil, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: failed to send transaction: %w", types.ErrNetwork, err)
	}

	c.log.WithFields(logrus.Fields{"tx": tx.Hash().Hex(), "method": method}).Debug("transaction sent")

	receipt, err := c.waitForConfirmation(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}

	return &types.Receipt{
		TxHash:      receipt.TxHash.Hex(),
		Success:     receipt.Status == ethtypes.ReceiptStatusSuccessful,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

// buildTx creates and signs a legacy EIP-155 transaction
func (c *Client) buildTx(ctx context.Context, to common.Address, data []byte) (*ethtypes.Transaction, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get nonce: %w", types.ErrNetwork, err)
	}

	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit := defaultGasLimit
	if c.params.GasLimit != nil {
		gasLimit = *c.params.GasLimit
	} else {
		estimated, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{From: c.from, To: &to, Data: data})
		if err == nil {
			gasLimit = estimated * 120 / 100
		} else {
			c.log.WithError(err).Debug("gas estimation failed, using default gas limit")
		}
	}

	tx := ethtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(big.NewInt(c.params.ChainID)), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signedTx, nil
}

func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	if c.params.GasPrice != nil {
		return big.NewInt(*c.params.GasPrice), nil
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get gas price: %w", types.ErrNetwork, err)
	}
	return gasPrice, nil
}

func (c *Client) waitForConfirmation(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(c.params.PollInterval)
	defer ticker.Stop()

	var timeout <-chan time.Time
	if c.params.ConfirmationTimeout > 0 {
		timer := time.NewTimer(c.params.ConfirmationTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: failed to get receipt for %s: %w", types.ErrNetwork, hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: stopped waiting for %s: %w", types.ErrNetwork, hash.Hex(), ctx.Err())
		case <-timeout:
			return nil, fmt.Errorf("%w: transaction %s confirmation timed out", types.ErrNetwork, hash.Hex())
		case <-ticker.C:
		}
	}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

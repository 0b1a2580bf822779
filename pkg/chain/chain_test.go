package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"position-manager/pkg/logger"
	"position-manager/pkg/types"
)

var (
	cake    = types.Asset{Address: common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"), Symbol: "CAKE", Decimals: 18}
	wrapper = common.HexToAddress("0x7fcBe3DDc2e6BD069eb5f11374DCA99f00685189")
	adapter = common.HexToAddress("0x7F9ECfe70996aE6b65f93EF831E6037B8381BeD7")
)

type fakeBackend struct {
	mu sync.Mutex

	calls    map[string][]interface{}
	callErr  error
	sendErr  error
	status   uint64
	notFound int

	sent      []*ethtypes.Transaction
	receiptRq int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: map[string][]interface{}{}, status: ethtypes.ReceiptStatusSuccessful}
}

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.callErr != nil {
		return nil, b.callErr
	}
	for _, parsed := range []*abi.ABI{erc20ABI, wrapperABI, adapterABI} {
		method, err := parsed.MethodById(msg.Data[:4])
		if err != nil {
			continue
		}
		values, ok := b.calls[method.Name]
		if !ok {
			continue
		}
		return method.Outputs.Pack(values...)
	}
	return nil, errors.New("execution reverted")
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(3000000000), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receiptRq++
	if b.receiptRq <= b.notFound {
		return nil, ethereum.NotFound
	}
	return &ethtypes.Receipt{
		Status:      b.status,
		TxHash:      hash,
		BlockNumber: big.NewInt(42),
		GasUsed:     51234,
	}, nil
}

func testKey(t *testing.T) string {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return hex.EncodeToString(crypto.FromECDSA(key))
}

func newTestClient(t *testing.T, backend Backend, confirm ConfirmFunc) *Client {
	c, err := NewClient(backend, testKey(t), Params{ChainID: 56, PollInterval: time.Millisecond}, confirm, logger.Discard())
	require.NoError(t, err)
	return c
}

func TestAllowance(t *testing.T) {
	backend := newFakeBackend()
	backend.calls["allowance"] = []interface{}{new(big.Int).Mul(big.NewInt(15), big.NewInt(1e17))}

	erc20 := NewERC20(newTestClient(t, backend, nil))
	allowance, err := erc20.Allowance(context.Background(), common.Address{1}, wrapper, cake)
	require.NoError(t, err)
	assert.True(t, allowance.Value.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, allowance.Asset.Equal(cake))
}

func TestCallErrorIsNetwork(t *testing.T) {
	backend := newFakeBackend()
	backend.callErr = errors.New("connection refused")

	_, err := NewERC20(newTestClient(t, backend, nil)).Balance(context.Background(), common.Address{1}, cake)
	assert.ErrorIs(t, err, types.ErrNetwork)
}

func TestApproveSendsSignedTransaction(t *testing.T) {
	backend := newFakeBackend()
	backend.notFound = 2

	client := newTestClient(t, backend, nil)
	amount := types.NewAmount(cake, decimal.NewFromInt(10))

	receipt, err := NewERC20(client).Approve(context.Background(), wrapper, amount)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, uint64(42), receipt.BlockNumber)
	assert.Equal(t, 3, backend.receiptRq)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, cake.Address, *tx.To())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(120000), tx.Gas())
	assert.Equal(t, tx.Hash().Hex(), receipt.TxHash)

	args, err := erc20ABI.Methods["approve"].Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, wrapper, args[0])
	assert.Equal(t, 0, amount.Raw().Cmp(args[1].(*big.Int)))

	sender, err := ethtypes.Sender(ethtypes.NewEIP155Signer(big.NewInt(56)), tx)
	require.NoError(t, err)
	assert.Equal(t, client.From(), sender)
}

func TestTransactRevertedReceipt(t *testing.T) {
	backend := newFakeBackend()
	backend.status = ethtypes.ReceiptStatusFailed

	receipt, err := NewERC20(newTestClient(t, backend, nil)).Approve(context.Background(), wrapper, types.NewAmount(cake, decimal.NewFromInt(1)))
	require.NoError(t, err)
	assert.False(t, receipt.Success)
}

func TestTransactSendFailureIsNetwork(t *testing.T) {
	backend := newFakeBackend()
	backend.sendErr = errors.New("nonce too low")

	_, err := NewERC20(newTestClient(t, backend, nil)).Approve(context.Background(), wrapper, types.NewAmount(cake, decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, types.ErrNetwork)
}

func TestTransactDeclinedIsUserRejected(t *testing.T) {
	backend := newFakeBackend()
	var seen TxSummary
	decline := func(_ context.Context, tx TxSummary) bool {
		seen = tx
		return false
	}

	_, err := NewERC20(newTestClient(t, backend, decline)).Approve(context.Background(), wrapper, types.NewAmount(cake, decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, types.ErrUserRejected)
	assert.Equal(t, "approve", seen.Method)
	assert.Empty(t, backend.sent)
}

func TestTransactWithoutKey(t *testing.T) {
	client, err := NewClient(newFakeBackend(), "", Params{ChainID: 56}, nil, logger.Discard())
	require.NoError(t, err)

	_, err = client.Transact(context.Background(), wrapper, wrapperABI, "mintThenDeposit", big.NewInt(1), big.NewInt(0), []byte{})
	assert.Error(t, err)
}

func TestConfirmationHonoursContext(t *testing.T) {
	backend := newFakeBackend()
	backend.notFound = 1 << 30

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewERC20(newTestClient(t, backend, nil)).Approve(ctx, wrapper, types.NewAmount(cake, decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, types.ErrNetwork)
	assert.Contains(t, err.Error(), "stopped waiting for 0x")
}

func TestConfirmationTimeout(t *testing.T) {
	backend := newFakeBackend()
	backend.notFound = 1 << 30

	client, err := NewClient(backend, testKey(t), Params{ChainID: 56, PollInterval: time.Millisecond, ConfirmationTimeout: 10 * time.Millisecond}, nil, logger.Discard())
	require.NoError(t, err)

	_, err = NewERC20(client).Approve(context.Background(), wrapper, types.NewAmount(cake, decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, types.ErrNetwork)
}

func TestSubmitterMintThenDeposit(t *testing.T) {
	backend := newFakeBackend()
	submitter := NewWrapperSubmitter(newTestClient(t, backend, nil))

	receipt, err := submitter.Submit(context.Background(), types.ContractCall{
		Contract: wrapper,
		Method:   "mintThenDeposit",
		Args:     []interface{}{big.NewInt(10), big.NewInt(0), []byte{}},
	})
	require.NoError(t, err)
	assert.True(t, receipt.Success)

	require.Len(t, backend.sent, 1)
	args, err := wrapperABI.Methods["mintThenDeposit"].Inputs.Unpack(backend.sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, int64(10), args[0].(*big.Int).Int64())
	assert.Equal(t, int64(0), args[1].(*big.Int).Int64())
}

func TestSubmitterUnknownMethod(t *testing.T) {
	backend := newFakeBackend()
	_, err := NewWrapperSubmitter(newTestClient(t, backend, nil)).Submit(context.Background(), types.ContractCall{Contract: wrapper, Method: "withdraw"})
	assert.Error(t, err)
	assert.Empty(t, backend.sent)
}

func TestVaultReader(t *testing.T) {
	backend := newFakeBackend()
	backend.calls["tokenPerShare"] = []interface{}{big.NewInt(250), big.NewInt(100)}
	backend.calls["getTotalAmounts"] = []interface{}{big.NewInt(1000), big.NewInt(2000)}
	backend.calls["totalSupply"] = []interface{}{big.NewInt(500)}
	backend.calls["userInfo"] = []interface{}{big.NewInt(50), big.NewInt(3), big.NewInt(1700000000)}
	backend.calls["pendingReward"] = []interface{}{big.NewInt(9)}

	reader := NewVaultReader(newTestClient(t, backend, nil))
	ctx := context.Background()

	r0, r1, err := reader.TokenPerShare(ctx, adapter)
	require.NoError(t, err)
	assert.Equal(t, int64(250), r0.Int64())
	assert.Equal(t, int64(100), r1.Int64())

	t0, t1, err := reader.TotalAmounts(ctx, adapter)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), t0.Int64())
	assert.Equal(t, int64(2000), t1.Int64())

	shares, err := reader.TotalShares(ctx, adapter)
	require.NoError(t, err)
	assert.Equal(t, int64(500), shares.Int64())

	info, err := reader.UserInfo(ctx, wrapper, common.Address{1})
	require.NoError(t, err)
	assert.Equal(t, int64(50), info.Amount.Int64())
	assert.Equal(t, int64(1700000000), info.LastRewardTime.Int64())

	reward, err := reader.PendingReward(ctx, wrapper, common.Address{1})
	require.NoError(t, err)
	assert.Equal(t, int64(9), reward.Int64())
}

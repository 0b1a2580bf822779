package flow

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"position-manager/pkg/metrics"
	"position-manager/pkg/types"
)

// DepositMethod is the wrapper contract method that mints and deposits in one call
const DepositMethod = "mintThenDeposit"

// TokenAllowanceService reads and writes ERC20 allowances
type TokenAllowanceService interface {
	Allowance(ctx context.Context, owner, spender common.Address, asset types.Asset) (types.Amount, error)
	Approve(ctx context.Context, spender common.Address, amount types.Amount) (*types.Receipt, error)
}

// TransactionSubmitter submits contract calls and waits for their receipt
type TransactionSubmitter interface {
	Submit(ctx context.Context, call types.ContractCall) (*types.Receipt, error)
}

// Config describes one deposit attempt into a vault
type Config struct {
	Owner   common.Address
	Spender common.Address
	AssetA  types.Asset
	AssetB  types.Asset
	Mode    types.DepositMode

	// ApproveMax approves max uint256 instead of the required amount
	ApproveMax bool
	Display    types.Display

	// OnDone runs once after the deposit transaction is confirmed
	OnDone func(receipt *types.Receipt)

	Logger  logrus.FieldLogger
	Metrics metrics.Indicators
}

// Flow sequences token approvals and the combined deposit transaction
type Flow struct {
	id         string
	cfg        Config
	allowances TokenAllowanceService
	submitter  TransactionSubmitter
	log        logrus.FieldLogger
	metrics    metrics.Indicators

	mu         sync.Mutex
	pair       *types.AmountPair
	allowance  map[types.Side]types.Amount
	inFlight   map[types.Side]bool
	statuses   types.Statuses
	committing bool
	committed  bool
	closed     bool
	txHash     string
	lastErr    error
	observers  map[int]func(types.FlowState)
	nextObs    int
}

// New creates a flow for a single deposit attempt
func New(cfg Config, allowances TokenAllowanceService, submitter TransactionSubmitter) (*Flow, error) {
	if allowances == nil || submitter == nil {
		return nil, fmt.Errorf("allowance service and transaction submitter are required")
	}
	if cfg.Spender == (common.Address{}) {
		return nil, fmt.Errorf("spender contract address cannot be zero address")
	}
	if cfg.AssetA.Equal(cfg.AssetB) {
		return nil, fmt.Errorf("vault tokens must differ: %s", cfg.AssetA)
	}
	if cfg.Mode == nil {
		cfg.Mode = types.DualSided{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopIndicators{}
	}

	id := uuid.NewString()
	return &Flow{
		id:         id,
		cfg:        cfg,
		allowances: allowances,
		submitter:  submitter,
		log:        cfg.Logger.WithField("flow", id),
		metrics:    cfg.Metrics,
		allowance:  make(map[types.Side]types.Amount),
		inFlight:   make(map[types.Side]bool),
		statuses:   make(types.Statuses),
		observers:  make(map[int]func(types.FlowState)),
	}, nil
}

// ID returns the flow identifier
func (f *Flow) ID() string {
	return f.id
}

// Display returns the presentation settings the flow was built with
func (f *Flow) Display() types.Display {
	return f.cfg.Display
}

// Asset returns the token on the given side
func (f *Flow) Asset(side types.Side) types.Asset {
	if side == types.SideA {
		return f.cfg.AssetA
	}
	return f.cfg.AssetB
}

// Pair builds an amount pair in the flow's assets and mode
func (f *Flow) Pair(a, b decimal.Decimal) types.AmountPair {
	return types.AmountPair{
		A:    types.NewAmount(f.cfg.AssetA, a),
		B:    types.NewAmount(f.cfg.AssetB, b),
		Mode: f.cfg.Mode,
	}
}

// State returns a snapshot of the flow
func (f *Flow) State() types.FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Subscribe registers fn for every state change and returns its cancel func
func (f *Flow) Subscribe(fn func(types.FlowState)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return func() {}
	}

	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.observers, id)
	}
}

// Close discards the flow. Transactions already submitted keep going but their
// outcome is no longer published.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.observers = make(map[int]func(types.FlowState))
}

// Evaluate records pair and allowances and returns the status of every relevant side
func (f *Flow) Evaluate(pair types.AmountPair, allowances map[types.Side]types.Amount) (types.Statuses, error) {
	f.mu.Lock()
	if err := f.checkPairLocked(pair); err != nil {
		f.mu.Unlock()
		return nil, err
	}

	for side, amount := range allowances {
		f.allowance[side] = amount
	}
	p := pair
	f.pair = &p
	f.statuses = Evaluate(pair, f.allowance, f.inFlight)
	statuses := f.statuses.Clone()
	notify := f.collectLocked()
	f.mu.Unlock()

	notify()
	return statuses, nil
}

// Refresh reads current allowances for the relevant sides and evaluates the pair
func (f *Flow) Refresh(ctx context.Context, pair types.AmountPair) (types.Statuses, error) {
	f.mu.Lock()
	err := f.checkPairLocked(pair)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var (
		mu         sync.Mutex
		eg, egCtx  = errgroup.WithContext(ctx)
		allowances = make(map[types.Side]types.Amount)
	)
	for _, side := range pair.Relevant() {
		side := side
		asset := pair.Amount(side).Asset
		eg.Go(func() error {
			amount, err := f.allowances.Allowance(egCtx, f.cfg.Owner, f.cfg.Spender, asset)
			if err != nil {
				return fmt.Errorf("failed to read %s allowance: %w", asset, err)
			}
			mu.Lock()
			allowances[side] = amount
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return f.Evaluate(pair, allowances)
}

// RequestApproval approves the spender for the side's required amount and waits for confirmation
func (f *Flow) RequestApproval(ctx context.Context, side types.Side) (*types.Receipt, error) {
	f.mu.Lock()
	if f.inFlight[side] {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: approval for %s", types.ErrAlreadyInFlight, f.Asset(side))
	}
	if err := f.checkOpenLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.pair == nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: no amounts evaluated yet", types.ErrPreconditionFailed)
	}
	required := f.pair.Deposited(side)
	if required.IsZero() {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is not deposited", types.ErrPreconditionFailed, required.Asset)
	}

	approveAmount := required
	if f.cfg.ApproveMax {
		approveAmount = types.AmountFromRaw(required.Asset, new(big.Int).Set(math.MaxBig256))
	}

	f.inFlight[side] = true
	f.statuses = Evaluate(*f.pair, f.allowance, f.inFlight)
	notify := f.collectLocked()
	f.mu.Unlock()
	notify()

	log := f.log.WithFields(logrus.Fields{"token": required.Asset.Symbol, "amount": required.Value.String()})
	log.Info("requesting token approval")

	f.metrics.IncrementInFlight()
	receipt, err := f.allowances.Approve(ctx, f.cfg.Spender, approveAmount)
	f.metrics.DecrementInFlight()
	if err == nil && (receipt == nil || !receipt.Success) {
		err = revertError(receipt)
	}

	f.mu.Lock()
	delete(f.inFlight, side)
	if err != nil {
		f.lastErr = err
	} else {
		f.allowance[side] = approveAmount
		f.lastErr = nil
	}
	// amounts may have changed while the approval was pending
	f.statuses = Evaluate(*f.pair, f.allowance, f.inFlight)
	notify = f.collectLocked()
	f.mu.Unlock()
	notify()

	if err != nil {
		log.WithError(err).Warn("token approval failed")
		f.metrics.IncrementApprovalsTotal(required.Asset.Symbol, "failure")
		return receipt, err
	}

	log.WithField("tx", receipt.TxHash).Info("token approval confirmed")
	f.metrics.IncrementApprovalsTotal(required.Asset.Symbol, "success")
	return receipt, nil
}

// CanCommit reports whether pair could be committed with the latest recorded state
func (f *Flow) CanCommit(pair types.AmountPair) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.checkPairLocked(pair) != nil || f.checkOpenLocked() != nil {
		return false
	}
	return CanCommit(pair, Evaluate(pair, f.allowance, f.inFlight))
}

// Commit submits the combined deposit transaction for pair
func (f *Flow) Commit(ctx context.Context, pair types.AmountPair) (*types.Receipt, error) {
	f.mu.Lock()
	if f.committing {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: deposit", types.ErrAlreadyInFlight)
	}
	if err := f.checkOpenLocked(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if err := f.checkPairLocked(pair); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	statuses := Evaluate(pair, f.allowance, f.inFlight)
	if !CanCommit(pair, statuses) {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: deposit not ready (%s)", types.ErrPreconditionFailed, describe(pair, statuses))
	}

	p := pair
	f.pair = &p
	f.statuses = statuses
	f.committing = true
	notify := f.collectLocked()
	f.mu.Unlock()
	notify()

	call := types.ContractCall{
		Contract: f.cfg.Spender,
		Method:   DepositMethod,
		Args:     []interface{}{pair.Deposited(types.SideA).Raw(), pair.Deposited(types.SideB).Raw(), []byte{}},
	}

	log := f.log.WithField("pair", pair.String())
	log.Info("submitting deposit")

	start := time.Now()
	f.metrics.IncrementInFlight()
	receipt, err := f.submitter.Submit(ctx, call)
	f.metrics.DecrementInFlight()
	if err == nil && (receipt == nil || !receipt.Success) {
		err = revertError(receipt)
	}

	f.mu.Lock()
	f.committing = false
	var onDone func(*types.Receipt)
	if err != nil {
		f.lastErr = err
	} else {
		f.committed = true
		f.txHash = receipt.TxHash
		f.lastErr = nil
		if !f.closed {
			onDone = f.cfg.OnDone
		}
	}
	notify = f.collectLocked()
	f.mu.Unlock()
	notify()

	if err != nil {
		log.WithError(err).Warn("deposit failed")
		f.metrics.IncrementCommitsTotal("failure")
		return receipt, err
	}

	f.metrics.ObserveCommitLatencyMs(time.Since(start).Milliseconds())
	f.metrics.IncrementCommitsTotal("success")
	log.WithField("tx", receipt.TxHash).Info("deposit confirmed")

	if onDone != nil {
		onDone(receipt)
	}
	return receipt, nil
}

func (f *Flow) checkOpenLocked() error {
	if f.closed {
		return fmt.Errorf("%w: flow closed", types.ErrPreconditionFailed)
	}
	if f.committed {
		return fmt.Errorf("%w: deposit already confirmed", types.ErrPreconditionFailed)
	}
	return nil
}

func (f *Flow) checkPairLocked(pair types.AmountPair) error {
	if !pair.A.Asset.Equal(f.cfg.AssetA) || !pair.B.Asset.Equal(f.cfg.AssetB) {
		return fmt.Errorf("%w: pair %s/%s does not match flow tokens %s/%s",
			types.ErrPreconditionFailed, pair.A.Asset, pair.B.Asset, f.cfg.AssetA, f.cfg.AssetB)
	}
	if !types.SameMode(pair.Mode, f.cfg.Mode) {
		return fmt.Errorf("%w: deposit mode %v does not match %s", types.ErrPreconditionFailed, pair.Mode, f.cfg.Mode)
	}
	return nil
}

func (f *Flow) snapshotLocked() types.FlowState {
	return types.FlowState{
		ID:         f.id,
		Statuses:   f.statuses.Clone(),
		Committing: f.committing,
		Committed:  f.committed,
		TxHash:     f.txHash,
		LastErr:    f.lastErr,
	}
}

// collectLocked captures the current snapshot and observers; the returned func
// publishes them once the lock is released.
func (f *Flow) collectLocked() func() {
	if len(f.observers) == 0 {
		return func() {}
	}
	state := f.snapshotLocked()
	observers := make([]func(types.FlowState), 0, len(f.observers))
	for _, fn := range f.observers {
		observers = append(observers, fn)
	}
	return func() {
		for _, fn := range observers {
			fn(state)
		}
	}
}

func revertError(receipt *types.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("%w: no receipt returned", types.ErrNetwork)
	}
	return &types.RevertError{TxHash: receipt.TxHash}
}

func describe(pair types.AmountPair, statuses types.Statuses) string {
	if len(pair.Relevant()) == 0 {
		return "nothing to deposit"
	}
	for _, side := range pair.Relevant() {
		if statuses[side] != types.Approved {
			return fmt.Sprintf("%s is %s", pair.Amount(side).Asset, statuses[side])
		}
	}
	return "amounts must be greater than zero"
}

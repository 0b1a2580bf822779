package deposit

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"position-manager/pkg/flow"
	"position-manager/pkg/history"
	"position-manager/pkg/metrics"
	"position-manager/pkg/types"
	"position-manager/pkg/vault"
)

// BalanceReader reads token balances
type BalanceReader interface {
	Balance(ctx context.Context, account common.Address, asset types.Asset) (types.Amount, error)
}

// Options are the per-account deposit settings
type Options struct {
	Owner      common.Address
	ApproveMax bool
	Display    types.Display
}

// Manager prepares and runs deposits into vaults
type Manager struct {
	allowances flow.TokenAllowanceService
	submitter  flow.TransactionSubmitter
	balances   BalanceReader
	history    *history.Storage
	metrics    metrics.Indicators
	log        logrus.FieldLogger
	opts       Options
}

// NewManager creates a new deposit manager. history may be nil.
func NewManager(allowances flow.TokenAllowanceService, submitter flow.TransactionSubmitter, balances BalanceReader,
	store *history.Storage, indicators metrics.Indicators, log logrus.FieldLogger, opts Options) *Manager {
	if indicators == nil {
		indicators = metrics.NoopIndicators{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		allowances: allowances,
		submitter:  submitter,
		balances:   balances,
		history:    store,
		metrics:    indicators,
		log:        log,
		opts:       opts,
	}
}

// Prepare checks balances, builds the flow for v and evaluates pair against current allowances
func (m *Manager) Prepare(ctx context.Context, v vault.Vault, pair types.AmountPair) (*Session, error) {
	if len(pair.Relevant()) == 0 {
		return nil, fmt.Errorf("%w: nothing to deposit", types.ErrPreconditionFailed)
	}

	if err := m.checkBalances(ctx, pair); err != nil {
		return nil, err
	}

	s := &Session{
		manager: m,
		Vault:   v,
		Pair:    pair,
		Record:  history.NewRecord("", v.ID, v.Name, pair.Mode.String(), legs(pair)...),
	}

	f, err := flow.New(flow.Config{
		Owner:      m.opts.Owner,
		Spender:    v.Address,
		AssetA:     v.CurrencyA,
		AssetB:     v.CurrencyB,
		Mode:       v.Mode(),
		ApproveMax: m.opts.ApproveMax,
		Display:    m.opts.Display,
		OnDone:     s.complete,
		Logger:     m.log.WithField("vault", v.ID),
		Metrics:    m.metrics,
	}, m.allowances, m.submitter)
	if err != nil {
		return nil, err
	}
	s.Flow = f
	s.Record.FlowID = f.ID()

	statuses, err := f.Refresh(ctx, pair)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.Statuses = statuses

	if err := s.save(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (m *Manager) checkBalances(ctx context.Context, pair types.AmountPair) error {
	if m.balances == nil {
		return nil
	}

	var (
		mu       sync.Mutex
		balances = make(map[types.Side]types.Amount, 2)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, side := range pair.Relevant() {
		side := side
		asset := pair.Amount(side).Asset
		g.Go(func() error {
			balance, err := m.balances.Balance(gctx, m.opts.Owner, asset)
			if err != nil {
				return err
			}
			mu.Lock()
			balances[side] = balance
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return types.CheckBalances(pair, balances)
}

// Session is one prepared deposit attempt
type Session struct {
	manager *Manager

	Vault    vault.Vault
	Pair     types.AmountPair
	Flow     *flow.Flow
	Record   *history.Record
	Statuses types.Statuses

	mu sync.Mutex
}

// Pending returns the sides that still need an approval, in side order
func (s *Session) Pending() []types.Side {
	state := s.Flow.State()
	sides := make([]types.Side, 0, 2)
	for _, side := range s.Pair.Relevant() {
		if state.Statuses[side] != types.Approved {
			sides = append(sides, side)
		}
	}
	return sides
}

// Run approves every pending side and commits the deposit.
// onApproval is called after each confirmed approval.
func (s *Session) Run(ctx context.Context, onApproval func(side types.Side, receipt *types.Receipt)) (*types.Receipt, error) {
	for _, side := range s.Pending() {
		receipt, err := s.Flow.RequestApproval(ctx, side)
		if err != nil {
			return nil, s.fail(err)
		}

		s.mu.Lock()
		s.Record.AddApproval(receipt.TxHash)
		s.mu.Unlock()
		if err := s.save(); err != nil {
			s.manager.log.WithError(err).Warn("failed to save deposit history")
		}

		if onApproval != nil {
			onApproval(side, receipt)
		}
	}

	receipt, err := s.Flow.Commit(ctx, s.Pair)
	if err != nil {
		return nil, s.fail(err)
	}
	return receipt, nil
}

// Cancel records the attempt as rejected by the user and discards the flow
func (s *Session) Cancel() {
	_ = s.fail(fmt.Errorf("%w: deposit cancelled", types.ErrUserRejected))
	s.Flow.Close()
}

// Close discards the flow
func (s *Session) Close() {
	s.Flow.Close()
}

func (s *Session) complete(receipt *types.Receipt) {
	s.mu.Lock()
	s.Record.Complete(receipt.TxHash)
	s.mu.Unlock()
	if err := s.save(); err != nil {
		s.manager.log.WithError(err).Warn("failed to save deposit history")
	}
}

// fail records err and returns it; a history write failure is only logged
func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.Record.Fail(err)
	s.mu.Unlock()
	if saveErr := s.save(); saveErr != nil {
		s.manager.log.WithError(saveErr).Warn("failed to save deposit history")
	}
	return err
}

func (s *Session) save() error {
	if s.manager.history == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.history.Save(s.Record)
}

func legs(pair types.AmountPair) []history.Leg {
	out := make([]history.Leg, 0, 2)
	for _, side := range pair.Relevant() {
		amount := pair.Deposited(side)
		out = append(out, history.Leg{
			Symbol: amount.Asset.Symbol,
			Token:  amount.Asset.Address.Hex(),
			Amount: amount.Value.String(),
		})
	}
	return out
}

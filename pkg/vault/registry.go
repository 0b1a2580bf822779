package vault

import (
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"position-manager/pkg/types"
)

//go:embed vaults.yaml
var defaultRegistry []byte

// Manager is a vault management provider
type Manager struct {
	ID        string
	Name      string
	IntroLink string
	Verified  bool
}

// ManagerFee is the cut the manager takes
type ManagerFee struct {
	Type string
	Rate decimal.Decimal
}

// Vault is a resolved position manager vault
type Vault struct {
	ID                 int
	Name               string
	Address            common.Address
	AdapterAddress     common.Address
	LPAddress          common.Address
	RewardPerSecond    *big.Int
	CurrencyA          types.Asset
	CurrencyB          types.Asset
	EarningToken       types.Asset
	FeeTier            int
	Strategy           string
	Manager            Manager
	ManagerFee         ManagerFee
	SingleDeposit      bool
	AllowDepositToken0 bool
	AllowDepositToken1 bool
	PriceFromFarmPID   int
	EndTimestamp       int64
}

// Mode returns the deposit mode the vault accepts
func (v Vault) Mode() types.DepositMode {
	if !v.SingleDeposit {
		return types.DualSided{}
	}
	if v.AllowDepositToken0 {
		return types.SingleSided{Side: types.SideA}
	}
	return types.SingleSided{Side: types.SideB}
}

// Asset returns the vault token on side
func (v Vault) Asset(side types.Side) types.Asset {
	if side == types.SideB {
		return v.CurrencyB
	}
	return v.CurrencyA
}

// SideOf returns the side holding the token with symbol
func (v Vault) SideOf(symbol string) (types.Side, bool) {
	switch {
	case strings.EqualFold(v.CurrencyA.Symbol, symbol):
		return types.SideA, true
	case strings.EqualFold(v.CurrencyB.Symbol, symbol):
		return types.SideB, true
	}
	return types.SideA, false
}

// LPSymbol returns the pair label, e.g. CAKE-USDT
func (v Vault) LPSymbol() string {
	return v.CurrencyA.Symbol + "-" + v.CurrencyB.Symbol
}

// RewardEnded reports whether the reward program is over at now
func (v Vault) RewardEnded(now time.Time) bool {
	return v.EndTimestamp > 0 && now.Unix() > v.EndTimestamp
}

// Registry holds the vaults of one chain
type Registry struct {
	ChainID  int64
	Tokens   map[string]types.Asset
	Managers map[string]Manager
	vaults   []Vault
}

type registryFile struct {
	ChainID  int64                   `yaml:"chain_id"`
	Tokens   map[string]tokenEntry   `yaml:"tokens"`
	Managers map[string]managerEntry `yaml:"managers"`
	Vaults   []vaultEntry            `yaml:"vaults"`
}

type tokenEntry struct {
	Address  string `yaml:"address"`
	Decimals int32  `yaml:"decimals"`
}

type managerEntry struct {
	Name      string `yaml:"name"`
	IntroLink string `yaml:"intro_link"`
	Verified  bool   `yaml:"verified"`
}

type vaultEntry struct {
	ID                 int    `yaml:"id"`
	Name               string `yaml:"name"`
	Address            string `yaml:"address"`
	AdapterAddress     string `yaml:"adapter_address"`
	LPAddress          string `yaml:"lp_address"`
	RewardPerSecond    string `yaml:"reward_per_second"`
	CurrencyA          string `yaml:"currency_a"`
	CurrencyB          string `yaml:"currency_b"`
	EarningToken       string `yaml:"earning_token"`
	FeeTier            int    `yaml:"fee_tier"`
	Strategy           string `yaml:"strategy"`
	Manager            string `yaml:"manager"`
	ManagerFee         struct {
		Type        string `yaml:"type"`
		RatePercent string `yaml:"rate_percent"`
	} `yaml:"manager_fee"`
	SingleDeposit      bool  `yaml:"single_deposit"`
	AllowDepositToken0 bool  `yaml:"allow_deposit_token0"`
	AllowDepositToken1 bool  `yaml:"allow_deposit_token1"`
	PriceFromFarmPID   int   `yaml:"price_from_farm_pid"`
	EndTimestamp       int64 `yaml:"end_timestamp"`
}

// Load reads the registry from path, or the built-in one when path is empty
func Load(path string) (*Registry, error) {
	if path == "" {
		return Parse(defaultRegistry)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vaults file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML registry
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vaults file: %w", err)
	}

	reg := &Registry{
		ChainID:  file.ChainID,
		Tokens:   make(map[string]types.Asset, len(file.Tokens)),
		Managers: make(map[string]Manager, len(file.Managers)),
	}

	for symbol, token := range file.Tokens {
		if !common.IsHexAddress(token.Address) {
			return nil, fmt.Errorf("token %s: invalid address %q", symbol, token.Address)
		}
		reg.Tokens[strings.ToUpper(symbol)] = types.Asset{
			Address:  common.HexToAddress(token.Address),
			Symbol:   strings.ToUpper(symbol),
			Decimals: token.Decimals,
		}
	}

	for id, m := range file.Managers {
		reg.Managers[id] = Manager{ID: id, Name: m.Name, IntroLink: m.IntroLink, Verified: m.Verified}
	}

	seen := make(map[int]bool, len(file.Vaults))
	for _, entry := range file.Vaults {
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate vault id %d", entry.ID)
		}
		seen[entry.ID] = true

		v, err := reg.resolve(entry)
		if err != nil {
			return nil, fmt.Errorf("vault %d: %w", entry.ID, err)
		}
		reg.vaults = append(reg.vaults, v)
	}

	sort.Slice(reg.vaults, func(i, j int) bool { return reg.vaults[i].ID < reg.vaults[j].ID })
	return reg, nil
}

func (r *Registry) resolve(entry vaultEntry) (Vault, error) {
	v := Vault{
		ID:                 entry.ID,
		Name:               entry.Name,
		FeeTier:            entry.FeeTier,
		Strategy:           entry.Strategy,
		SingleDeposit:      entry.SingleDeposit,
		AllowDepositToken0: entry.AllowDepositToken0,
		AllowDepositToken1: entry.AllowDepositToken1,
		PriceFromFarmPID:   entry.PriceFromFarmPID,
		EndTimestamp:       entry.EndTimestamp,
		RewardPerSecond:    new(big.Int),
	}

	if !common.IsHexAddress(entry.Address) {
		return Vault{}, fmt.Errorf("invalid address %q", entry.Address)
	}
	v.Address = common.HexToAddress(entry.Address)

	if entry.AdapterAddress != "" {
		if !common.IsHexAddress(entry.AdapterAddress) {
			return Vault{}, fmt.Errorf("invalid adapter address %q", entry.AdapterAddress)
		}
		v.AdapterAddress = common.HexToAddress(entry.AdapterAddress)
	}
	if entry.LPAddress != "" {
		v.LPAddress = common.HexToAddress(entry.LPAddress)
	}

	if entry.RewardPerSecond != "" {
		if _, ok := v.RewardPerSecond.SetString(entry.RewardPerSecond, 10); !ok {
			return Vault{}, fmt.Errorf("invalid reward per second %q", entry.RewardPerSecond)
		}
	}

	var ok bool
	if v.CurrencyA, ok = r.Tokens[strings.ToUpper(entry.CurrencyA)]; !ok {
		return Vault{}, fmt.Errorf("unknown token %q", entry.CurrencyA)
	}
	if v.CurrencyB, ok = r.Tokens[strings.ToUpper(entry.CurrencyB)]; !ok {
		return Vault{}, fmt.Errorf("unknown token %q", entry.CurrencyB)
	}
	if v.CurrencyA.Equal(v.CurrencyB) {
		return Vault{}, fmt.Errorf("currency A and B are the same token")
	}
	if v.EarningToken, ok = r.Tokens[strings.ToUpper(entry.EarningToken)]; !ok {
		return Vault{}, fmt.Errorf("unknown earning token %q", entry.EarningToken)
	}
	if v.Manager, ok = r.Managers[entry.Manager]; !ok {
		return Vault{}, fmt.Errorf("unknown manager %q", entry.Manager)
	}

	v.ManagerFee.Type = entry.ManagerFee.Type
	if entry.ManagerFee.RatePercent != "" {
		rate, err := decimal.NewFromString(entry.ManagerFee.RatePercent)
		if err != nil {
			return Vault{}, fmt.Errorf("invalid manager fee rate: %w", err)
		}
		v.ManagerFee.Rate = rate
	}

	if v.SingleDeposit && v.AllowDepositToken0 == v.AllowDepositToken1 {
		return Vault{}, fmt.Errorf("single deposit vault must allow exactly one token")
	}

	return v, nil
}

// Vaults returns all vaults ordered by id
func (r *Registry) Vaults() []Vault {
	out := make([]Vault, len(r.vaults))
	copy(out, r.vaults)
	return out
}

// Find returns the vault with id
func (r *Registry) Find(id int) (Vault, error) {
	for _, v := range r.vaults {
		if v.ID == id {
			return v, nil
		}
	}
	return Vault{}, fmt.Errorf("vault %d not found", id)
}

// Token returns the registered token with symbol
func (r *Registry) Token(symbol string) (types.Asset, bool) {
	asset, ok := r.Tokens[strings.ToUpper(symbol)]
	return asset, ok
}

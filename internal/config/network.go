package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// DeploySentinel marks an address field as "deploy a fresh instance"
// rather than "use this existing address".
const DeploySentinel = "deploy"

const (
	// MidPriceID is the active id corresponding to a 1:1 price on the
	// pair's bin grid. Used when a vault config leaves active_id unset.
	MidPriceID uint32 = 1 << 23

	// MaxBinStep is the largest accepted bin step (in basis points).
	MaxBinStep = 200
)

// TokenRef describes one side of a vault's token pair. Address is either
// a hex address or the deploy sentinel; Name and Decimals are only used
// when a fresh placeholder token is deployed.
type TokenRef struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Name     string `yaml:"name,omitempty"`
	Decimals uint8  `yaml:"decimals,omitempty"`
}

// IsSentinel reports whether this token should be deployed fresh.
func (t TokenRef) IsSentinel() bool {
	return strings.EqualFold(strings.TrimSpace(t.Address), DeploySentinel)
}

// SeedConfig holds the bootstrap liquidity amounts (raw token units,
// decimal strings) seeded into a freshly created pair.
type SeedConfig struct {
	AmountX string `yaml:"amount_x"`
	AmountY string `yaml:"amount_y"`
}

// VaultConfig describes one vault to deploy.
type VaultConfig struct {
	ID           string      `yaml:"id"`
	Enabled      bool        `yaml:"enabled"`
	TokenX       TokenRef    `yaml:"token_x"`
	TokenY       TokenRef    `yaml:"token_y"`
	BinStep      uint16      `yaml:"bin_step"`
	ActiveID     uint32      `yaml:"active_id,omitempty"`
	MinAmountX   string      `yaml:"min_amount_x"`
	MinAmountY   string      `yaml:"min_amount_y"`
	FeeRecipient string      `yaml:"fee_recipient"`
	Name         string      `yaml:"name"`
	Symbol       string      `yaml:"symbol"`
	Seed         *SeedConfig `yaml:"seed,omitempty"`
}

// EffectiveActiveID returns the configured initial price marker, or the
// mid-price id when unset.
func (v VaultConfig) EffectiveActiveID() uint32 {
	if v.ActiveID == 0 {
		return MidPriceID
	}
	return v.ActiveID
}

// NetworkConfig is the top-level deployment document for one network.
// It is read-only for the duration of a run.
type NetworkConfig struct {
	Name        string        `yaml:"name"`
	RPCURL      string        `yaml:"rpc_url"`
	ChainID     uint64        `yaml:"chain_id"`
	Ephemeral   bool          `yaml:"ephemeral,omitempty"`
	RewardToken string        `yaml:"reward_token"`
	Router      string        `yaml:"router"`
	Factory     string        `yaml:"factory"`
	Vaults      []VaultConfig `yaml:"vaults"`
}

// LoadNetworkConfig reads and parses a network document. Validation is a
// separate step so callers can report all configuration errors before any
// chain interaction.
func LoadNetworkConfig(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network config: %w", err)
	}

	var cfg NetworkConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse network config: %w", err)
	}

	return &cfg, nil
}

// EnabledVaults returns the vaults that are enabled, in document order.
func (c *NetworkConfig) EnabledVaults() []VaultConfig {
	var out []VaultConfig
	for _, v := range c.Vaults {
		if v.Enabled {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks the document for configuration errors. All checks run
// before the first deployment call; errors name the offending field.
func (c *NetworkConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("network config: name is required")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("network %s: rpc_url is required", c.Name)
	}
	if len(c.Vaults) == 0 {
		return fmt.Errorf("network %s: at least one vault is required", c.Name)
	}

	if err := validateAddressOrSentinel("router", c.Router); err != nil {
		return fmt.Errorf("network %s: %w", c.Name, err)
	}
	if err := validateAddressOrSentinel("factory", c.Factory); err != nil {
		return fmt.Errorf("network %s: %w", c.Name, err)
	}

	// Ephemeral networks get standalone simulated pairs; a concrete
	// factory or router address there is a configuration mix-up.
	if c.Ephemeral {
		if !IsSentinel(c.Factory) {
			return fmt.Errorf("network %s: factory must be %q on ephemeral networks", c.Name, DeploySentinel)
		}
		if !IsSentinel(c.Router) {
			return fmt.Errorf("network %s: router must be %q on ephemeral networks", c.Name, DeploySentinel)
		}
	}
	if err := validateAddress("reward_token", c.RewardToken); err != nil {
		return fmt.Errorf("network %s: %w", c.Name, err)
	}

	seen := make(map[string]bool, len(c.Vaults))
	for i, v := range c.Vaults {
		if v.ID == "" {
			return fmt.Errorf("network %s: vaults[%d]: id is required", c.Name, i)
		}
		if seen[v.ID] {
			return fmt.Errorf("network %s: duplicate vault id %q", c.Name, v.ID)
		}
		seen[v.ID] = true

		if err := v.validate(); err != nil {
			return fmt.Errorf("network %s: vault %s: %w", c.Name, v.ID, err)
		}
	}

	return nil
}

func (v VaultConfig) validate() error {
	if v.BinStep == 0 || v.BinStep > MaxBinStep {
		return fmt.Errorf("bin_step %d out of range [1, %d]", v.BinStep, MaxBinStep)
	}
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if v.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if err := validateAddress("fee_recipient", v.FeeRecipient); err != nil {
		return err
	}
	for _, side := range []struct {
		field string
		ref   TokenRef
	}{
		{"token_x", v.TokenX},
		{"token_y", v.TokenY},
	} {
		if side.ref.Symbol == "" {
			return fmt.Errorf("%s: symbol is required", side.field)
		}
		if err := validateAddressOrSentinel(side.field+".address", side.ref.Address); err != nil {
			return err
		}
	}
	for _, amt := range []struct {
		field string
		value string
	}{
		{"min_amount_x", v.MinAmountX},
		{"min_amount_y", v.MinAmountY},
	} {
		if _, err := ParseAmount(amt.value); err != nil {
			return fmt.Errorf("%s: %w", amt.field, err)
		}
	}
	if v.Seed != nil {
		if _, err := ParseAmount(v.Seed.AmountX); err != nil {
			return fmt.Errorf("seed.amount_x: %w", err)
		}
		if _, err := ParseAmount(v.Seed.AmountY); err != nil {
			return fmt.Errorf("seed.amount_y: %w", err)
		}
	}
	return nil
}

// ParseAmount parses a raw-unit decimal amount string. Empty means zero.
func ParseAmount(s string) (*big.Int, error) {
	if strings.TrimSpace(s) == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return n, nil
}

// MustAddress converts a validated hex string to an address.
func MustAddress(s string) common.Address {
	return common.HexToAddress(s)
}

func validateAddress(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: address is required", field)
	}
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%s: malformed address %q", field, value)
	}
	if common.HexToAddress(value) == (common.Address{}) {
		return fmt.Errorf("%s: zero address is not allowed (use %q to deploy fresh)", field, DeploySentinel)
	}
	return nil
}

func validateAddressOrSentinel(field, value string) error {
	if strings.EqualFold(strings.TrimSpace(value), DeploySentinel) {
		return nil
	}
	return validateAddress(field, value)
}

// IsSentinel reports whether an address field holds the deploy sentinel.
func IsSentinel(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), DeploySentinel)
}

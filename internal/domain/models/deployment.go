package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DeployedToken is a resolved token backing one side of a vault's pair.
// Fresh is true only for placeholder tokens deployed by the orchestrator
// itself; those are mintable by the deployer key.
type DeployedToken struct {
	Symbol   string         `json:"symbol"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Fresh    bool           `json:"fresh,omitempty"`
}

// DeployedPair is the liquidity pair backing a vault.
type DeployedPair struct {
	Address common.Address `json:"address"`
	TokenX  common.Address `json:"token_x"`
	TokenY  common.Address `json:"token_y"`
	BinStep uint16         `json:"bin_step"`
	IsNew   bool           `json:"is_new"`
}

// SharedInfrastructure holds the once-per-network contracts every vault
// depends on.
type SharedInfrastructure struct {
	Registry           common.Address `json:"registry"`
	QueueHandlerBeacon common.Address `json:"queue_handler_beacon"`
	FeeManagerBeacon   common.Address `json:"fee_manager_beacon"`
	Router             common.Address `json:"router"`
	Factory            common.Address `json:"factory"`
}

// VaultDeployment is the full address set of one deployed vault. Entries
// are write-once: they are created when a vault completes and never
// mutated afterwards.
type VaultDeployment struct {
	VaultID       string         `json:"vault_id"`
	Vault         common.Address `json:"vault"`
	QueueHandler  common.Address `json:"queue_handler"`
	FeeManager    common.Address `json:"fee_manager"`
	RewardClaimer common.Address `json:"reward_claimer"`
	Pair          common.Address `json:"pair"`
	TokenX        common.Address `json:"token_x"`
	TokenY        common.Address `json:"token_y"`
}

// DeploymentProgress is the durable record of a deployment run. It is the
// only persisted state; the orchestrator saves it after every milestone.
type DeploymentProgress struct {
	Network     string                      `json:"network"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Shared      *SharedInfrastructure       `json:"shared,omitempty"`
	Tokens      map[string]common.Address   `json:"tokens"`
	Pairs       map[string]common.Address   `json:"pairs"`
	Completed   []string                    `json:"completed"`
	Failed      []string                    `json:"failed"`
	Deployments map[string]*VaultDeployment `json:"deployments"`
}

// NewDeploymentProgress creates an empty progress record for a network.
func NewDeploymentProgress(network string) *DeploymentProgress {
	return &DeploymentProgress{
		Network:     network,
		UpdatedAt:   time.Now(),
		Tokens:      make(map[string]common.Address),
		Pairs:       make(map[string]common.Address),
		Completed:   []string{},
		Failed:      []string{},
		Deployments: make(map[string]*VaultDeployment),
	}
}

// IsCompleted reports whether the vault id has already been fully deployed.
func (p *DeploymentProgress) IsCompleted(vaultID string) bool {
	for _, id := range p.Completed {
		if id == vaultID {
			return true
		}
	}
	return false
}

// MarkCompleted records a vault as fully deployed, clearing any earlier
// failure for the same id.
func (p *DeploymentProgress) MarkCompleted(vaultID string, deployment *VaultDeployment) {
	p.removeFailed(vaultID)
	if !p.IsCompleted(vaultID) {
		p.Completed = append(p.Completed, vaultID)
	}
	p.Deployments[vaultID] = deployment
}

// MarkFailed records a vault as failed. Failed vaults are retried
// wholesale on the next resumed run.
func (p *DeploymentProgress) MarkFailed(vaultID string) {
	for _, id := range p.Failed {
		if id == vaultID {
			return
		}
	}
	p.Failed = append(p.Failed, vaultID)
}

func (p *DeploymentProgress) removeFailed(vaultID string) {
	for i, id := range p.Failed {
		if id == vaultID {
			p.Failed = append(p.Failed[:i], p.Failed[i+1:]...)
			return
		}
	}
}

// DeploymentManifest is the machine-readable output of a run, consumed by
// the dashboard and verification tooling. It supersedes the previous
// manifest for the same network.
type DeploymentManifest struct {
	Network     string                    `json:"network"`
	ChainID     uint64                    `json:"chain_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Shared      SharedInfrastructure      `json:"shared"`
	Tokens      map[string]common.Address `json:"tokens"`
	Vaults      []*VaultDeployment        `json:"vaults"`
}

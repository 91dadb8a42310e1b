package chain

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Vendored forge build output for the vault contract suite. Regenerate
// with `forge build` in the contracts repo and copy the artifacts here.
//
//go:embed artifacts/*.json
var artifactFS embed.FS

// Artifact names, matching the files under artifacts/.
const (
	artifactERC20Mock     = "ERC20Mock"
	artifactRegistry      = "VaultRegistry"
	artifactBeacon        = "UpgradeableBeacon"
	artifactBeaconProxy   = "BeaconProxy"
	artifactQueueHandler  = "QueueHandler"
	artifactFeeManager    = "FeeManager"
	artifactFactory       = "LBFactory"
	artifactRouter        = "LBRouter"
	artifactPair          = "LBPair"
	artifactSimulatedPair = "SimulatedPair"
	artifactRewardClaimer = "RewardClaimer"
	artifactVault         = "Vault"
	artifactOwnable       = "Ownable"
	artifactERC165        = "ERC165"
)

// Artifact is a parsed contract artifact.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

type rawArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
}

var (
	artifactMu    sync.Mutex
	artifactCache = make(map[string]*Artifact)
)

// loadArtifact parses (and caches) an embedded artifact by name.
func loadArtifact(name string) (*Artifact, error) {
	artifactMu.Lock()
	defer artifactMu.Unlock()

	if a, ok := artifactCache[name]; ok {
		return a, nil
	}

	data, err := artifactFS.ReadFile("artifacts/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown artifact %s: %w", name, err)
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", name, err)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI of %s: %w", name, err)
	}

	a := &Artifact{
		Name:     name,
		ABI:      parsedABI,
		Bytecode: common.FromHex(raw.Bytecode.Object),
	}
	artifactCache[name] = a
	return a, nil
}

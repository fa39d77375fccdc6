// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	ChainID       uint16    `json:"chain_id"`        // The chain id represents an unique id for this running instance.
	TransPerBlock uint16    `json:"trans_per_block"` // The maximum number of transactions that can be in a block, not counting the reward.
	Difficulty    uint16    `json:"difficulty"`      // How difficult it needs to be to solve the work problem.
	MiningReward  uint64    `json:"mining_reward"`   // Reward for mining a block.
	Digest        string    `json:"digest"`          // Digest algorithm used for block and transaction hashes.
}

// Default returns the chain rules used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:          time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       1,
		TransPerBlock: 10,
		Difficulty:    4,
		MiningReward:  50,
		Digest:        "sha256",
	}
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, err)
	}

	return genesis, nil
}

// Validate checks the chain rules are usable.
func (g Genesis) Validate() error {
	if g.TransPerBlock == 0 {
		return errors.New("trans_per_block must be greater than zero")
	}

	// The hash is 64 hex digits after the 0x prefix.
	if g.Difficulty == 0 || g.Difficulty > 64 {
		return fmt.Errorf("difficulty %d must be between 1 and 64", g.Difficulty)
	}

	if g.MiningReward == 0 {
		return errors.New("mining_reward must be greater than zero")
	}

	switch g.Digest {
	case "", "sha256", "blake3":
	default:
		return fmt.Errorf("digest %q is not supported", g.Digest)
	}

	return nil
}

package staking

import (
	"math/big"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/gconf"
	"github.com/tokenvault/ledger/x/cash"
)

const optKey = "staking"

// GenesisState is the "staking" section of the genesis file.
type GenesisState struct {
	// RewardPool is issued to the staking custody so that rewards can be
	// paid.
	RewardPool []*coin.Coin `json:"reward_pool"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis stores the staking configuration declared in the "conf"
// section, filling undeclared settings with defaults, and funds the reward
// pool.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	conf := Configuration{
		RewardRatePercent: DefaultRewardRatePercent,
		MinimumStake:      new(big.Int).Set(DefaultMinimumStake),
		UnstakeCooldown:   DefaultUnstakeCooldown,
	}
	if err := gconf.InitConfig(db, opts, ConfigurationPackage, &conf); err != nil {
		return err
	}

	var state GenesisState
	if err := opts.ReadOptions(optKey, &state); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if err := coin.ValidateList(state.RewardPool); err != nil {
		return errors.Wrap(err, "reward pool")
	}
	ctrl := cash.NewController()
	for _, c := range state.RewardPool {
		if c.Ticker != conf.Ticker {
			return errors.Wrapf(errors.ErrInvalidAmount, "reward pool must be in %s", conf.Ticker)
		}
		if err := ctrl.IssueCoins(db, CustodyAddress, *c); err != nil {
			return errors.Wrap(err, "reward pool")
		}
	}
	return nil
}

package staking

import (
	"math/big"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/gconf"
)

const (
	// ConfigurationPackage is the name under which the configuration is
	// kept by gconf and declared in the genesis "conf" section.
	ConfigurationPackage = "staking"

	// DefaultRewardRatePercent is the yearly reward rate used when the
	// genesis does not declare one.
	DefaultRewardRatePercent = 5

	// DefaultUnstakeCooldown is one week, in seconds.
	DefaultUnstakeCooldown = 7 * 24 * 60 * 60
)

// DefaultMinimumStake is one unit of an asset with 18 decimals.
var DefaultMinimumStake = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Configuration holds the owner adjustable staking settings.
type Configuration struct {
	Owner ledger.Address `json:"owner"`
	// Ticker is the base asset that can be staked and in which rewards
	// are paid.
	Ticker            string   `json:"ticker"`
	RewardRatePercent int64    `json:"reward_rate_percent"`
	MinimumStake      *big.Int `json:"minimum_stake"`
	// UnstakeCooldown is the number of seconds between an unstake request
	// and its completion.
	UnstakeCooldown int64 `json:"unstake_cooldown"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

// GetOwner returns the configuration owner.
func (c *Configuration) GetOwner() ledger.Address {
	return c.Owner
}

// Validate returns an error if the configuration is not usable.
func (c *Configuration) Validate() error {
	var err error
	err = errors.AppendField(err, "Owner", c.Owner.Validate())
	if !coin.IsTicker(c.Ticker) {
		err = errors.AppendField(err, "Ticker", errors.ErrInvalidInput)
	}
	if c.RewardRatePercent < 0 {
		err = errors.AppendField(err, "RewardRatePercent", errors.ErrInvalidInput)
	}
	err = errors.AppendField(err, "MinimumStake", validateAmount(c.MinimumStake))
	if c.UnstakeCooldown < 0 {
		err = errors.AppendField(err, "UnstakeCooldown", errors.ErrInvalidInput)
	}
	return err
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, ConfigurationPackage, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

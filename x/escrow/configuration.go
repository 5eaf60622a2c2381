package escrow

import (
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/gconf"
)

const (
	// ConfigurationPackage is the name under which the configuration is
	// kept by gconf and declared in the genesis "conf" section.
	ConfigurationPackage = "escrow"

	// DefaultFeePercent is the platform fee used when the genesis does not
	// declare one.
	DefaultFeePercent = 1

	// MaxFeePercent is the highest platform fee that can be configured.
	MaxFeePercent = 5
)

// Configuration holds the owner adjustable escrow settings.
type Configuration struct {
	// Owner is the only account allowed to change the configuration.
	Owner ledger.Address `json:"owner"`
	// FeePercent is the platform fee in percent, between 0 and
	// MaxFeePercent.
	FeePercent int64 `json:"fee_percent"`
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
	err = errors.AppendField(err, "FeePercent", validateFeePercent(c.FeePercent))
	return err
}

func validateFeePercent(fee int64) error {
	if fee < 0 || fee > MaxFeePercent {
		return errors.Wrapf(errors.ErrInvalidInput, "fee must be between 0 and %d, got %d", MaxFeePercent, fee)
	}
	return nil
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, ConfigurationPackage, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

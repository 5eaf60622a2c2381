package staking

import (
	"math/big"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/x/cash"
)

var (
	_ cash.Payer = (*StakeMsg)(nil)
	_ ledger.Msg = (*RequestUnstakeMsg)(nil)
	_ ledger.Msg = (*CompleteUnstakeMsg)(nil)
	_ ledger.Msg = (*ClaimRewardsMsg)(nil)
	_ ledger.Msg = (*UpdateConfigurationMsg)(nil)
)

// StakeMsg locks the attached amount of the base asset.
type StakeMsg struct {
	Amount *coin.Coin `json:"amount"`
}

// Path returns the routing path for this message
func (StakeMsg) Path() string {
	return "staking/stake"
}

// GetPayment returns the staked amount.
func (m *StakeMsg) GetPayment() []*coin.Coin {
	if m.Amount == nil {
		return nil
	}
	return []*coin.Coin{m.Amount}
}

// Validate makes sure that this is sensible
func (m *StakeMsg) Validate() error {
	if m.Amount == nil {
		return errors.Field("Amount", errors.ErrEmpty, "")
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Field("Amount", err, "")
	}
	if !m.Amount.IsPositive() {
		return errors.Field("Amount", errors.ErrInvalidAmount, "must be positive")
	}
	return nil
}

// RequestUnstakeMsg removes the amount from the stake. It is paid back by
// CompleteUnstakeMsg once the cooldown is over.
type RequestUnstakeMsg struct {
	Amount *coin.Coin `json:"amount"`
}

// Path returns the routing path for this message
func (RequestUnstakeMsg) Path() string {
	return "staking/request_unstake"
}

// Validate makes sure that this is sensible
func (m *RequestUnstakeMsg) Validate() error {
	if m.Amount == nil {
		return errors.Field("Amount", errors.ErrEmpty, "")
	}
	return errors.Field("Amount", m.Amount.Validate(), "")
}

// CompleteUnstakeMsg pays back the whole remaining stake and closes the
// position.
type CompleteUnstakeMsg struct{}

// Path returns the routing path for this message
func (CompleteUnstakeMsg) Path() string {
	return "staking/complete_unstake"
}

// Validate makes sure that this is sensible
func (CompleteUnstakeMsg) Validate() error {
	return nil
}

// ClaimRewardsMsg pays the accrued rewards.
type ClaimRewardsMsg struct{}

// Path returns the routing path for this message
func (ClaimRewardsMsg) Path() string {
	return "staking/claim_rewards"
}

// Validate makes sure that this is sensible
func (ClaimRewardsMsg) Validate() error {
	return nil
}

// ConfigurationPatch lists the configuration fields to change. Empty or
// nil fields are left unchanged. Numbers are pointers so that they can be
// set to zero.
type ConfigurationPatch struct {
	Owner             ledger.Address `json:"owner,omitempty"`
	Ticker            string         `json:"ticker,omitempty"`
	RewardRatePercent *int64         `json:"reward_rate_percent,omitempty"`
	MinimumStake      *big.Int       `json:"minimum_stake,omitempty"`
	UnstakeCooldown   *int64         `json:"unstake_cooldown,omitempty"`
}

// UpdateConfigurationMsg changes the stored configuration as described by
// the Patch.
type UpdateConfigurationMsg struct {
	Patch *ConfigurationPatch `json:"patch"`
}

// Path returns the routing path for this message
func (UpdateConfigurationMsg) Path() string {
	return "staking/update_configuration"
}

// Validate makes sure that this is sensible
func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Field("Patch", errors.ErrEmpty, "")
	}
	p := m.Patch
	var err error
	if len(p.Owner) != 0 {
		err = errors.AppendField(err, "Owner", p.Owner.Validate())
	}
	if p.Ticker != "" && !coin.IsTicker(p.Ticker) {
		err = errors.AppendField(err, "Ticker", errors.ErrInvalidInput)
	}
	if p.RewardRatePercent != nil && *p.RewardRatePercent < 0 {
		err = errors.AppendField(err, "RewardRatePercent", errors.ErrInvalidInput)
	}
	if p.MinimumStake != nil {
		err = errors.AppendField(err, "MinimumStake", validateAmount(p.MinimumStake))
	}
	if p.UnstakeCooldown != nil && *p.UnstakeCooldown < 0 {
		err = errors.AppendField(err, "UnstakeCooldown", errors.ErrInvalidInput)
	}
	return err
}

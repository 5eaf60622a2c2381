/*
Package staking implements a staking ledger. Accounts lock the base asset
and accrue rewards proportional to the staked amount and to the time it
stays locked.

Each account holds at most one Position, stored under the account address.
Staked assets and the reward pool are held by the staking custody account.

  stake                   creates or tops up a position
  request_unstake(amount) subtracts amount and starts the cooldown
  complete_unstake        after the cooldown, pays back the whole stake and
                          deletes the position
  claim_rewards           pays the accrued rewards

Rewards are settled before every change of the staked amount using

  reward = staked * (rate / 365) * elapsed / 8640000

where every division is an integer division done in the written order.
*/
package staking

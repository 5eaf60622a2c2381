package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/app"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/x/escrow"
	"github.com/tokenvault/ledger/x/staking"
)

type cmdFixture struct {
	t     *testing.T
	home  string
	alice ledger.Condition
	bob   ledger.Condition
}

func newCmdFixture(t *testing.T) *cmdFixture {
	f := &cmdFixture{
		t:     t,
		home:  t.TempDir(),
		alice: ledgertest.NewCondition(),
		bob:   ledgertest.NewCondition(),
	}
	owner := ledgertest.NewCondition().Address()
	genesis := writeFile(t, "genesis.json", fmt.Sprintf(`{
		"chain_id": "cmd-test",
		"app_state": {
			"cash": [{"address": %q, "coins": ["1000 EGLD"]}, {"address": %q, "coins": ["500 USDC"]}],
			"conf": {
				"escrow": {"owner": %q, "fee_percent": 1},
				"staking": {"owner": %q, "ticker": "EGLD", "reward_rate_percent": 3650, "minimum_stake": 100, "unstake_cooldown": 100}
			}
		}
	}`, f.alice.Address(), f.bob.Address(), owner, owner))

	_, err := f.run("init", "--genesis", genesis)
	require.NoError(t, err)
	return f
}

// run executes the command line and returns what was written to the
// command output.
func (f *cmdFixture) run(args ...string) ([]byte, error) {
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = ioutil.Discard
	err := a.Run(append([]string{"ledgerd", "--home", f.home, "--log-level", "none"}, args...))
	return out.Bytes(), err
}

func (f *cmdFixture) txFile(msg ledger.Msg) string {
	f.t.Helper()
	raw, err := app.EncodeTx(msg)
	require.NoError(f.t, err)
	path := filepath.Join(f.t.TempDir(), "tx.json")
	require.NoError(f.t, ioutil.WriteFile(path, raw, 0600))
	return path
}

func (f *cmdFixture) exec(caller ledger.Condition, at int64, msg ledger.Msg) (callOutput, error) {
	var res callOutput
	out, err := f.run("exec", "--caller", caller.String(), "--time", fmt.Sprint(at), f.txFile(msg))
	if err != nil {
		return res, err
	}
	require.NoError(f.t, json.Unmarshal(out, &res), string(out))
	return res, nil
}

func TestExecAndQuery(t *testing.T) {
	f := newCmdFixture(t)

	res, err := f.exec(f.alice, 1000, &staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Height)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "stake", res.Events[0].Name)
	assert.Equal(t, "staking/stake", res.Events[0].Path)

	out, err := f.run("query", "wallet", f.alice.Address().String())
	require.NoError(t, err)
	var coins []*coin.Coin
	require.NoError(t, json.Unmarshal(out, &coins))
	require.Len(t, coins, 1)
	assert.Equal(t, "500 EGLD", coins[0].String())

	out, err = f.run("query", "stake", "--time", "1100", f.alice.Address().String())
	require.NoError(t, err)
	var stake map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &stake))
	assert.Equal(t, "500", string(stake["staked"]))

	out, err = f.run("query", "status")
	require.NoError(t, err)
	var status struct {
		ChainID  string `json:"chain_id"`
		Height   int64  `json:"height"`
		LastTime int64  `json:"last_time"`
	}
	require.NoError(t, json.Unmarshal(out, &status))
	assert.Equal(t, "cmd-test", status.ChainID)
	assert.Equal(t, int64(2), status.Height)
	assert.Equal(t, int64(1000), status.LastTime)
}

func TestExecRejectsTimeTravel(t *testing.T) {
	f := newCmdFixture(t)

	_, err := f.exec(f.alice, 1000, &staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")})
	require.NoError(t, err)

	_, err = f.exec(f.alice, 900, &staking.StakeMsg{Amount: coin.NewCoinp(100, "EGLD")})
	if !errors.ErrTiming.Is(err) {
		t.Fatalf("want timing error, got %+v", err)
	}
}

func TestDryRunDoesNotCommit(t *testing.T) {
	f := newCmdFixture(t)

	tx := f.txFile(&staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")})
	_, err := f.run("exec", "--dry-run", "--caller", f.alice.String(), "--time", "1000", tx)
	require.NoError(t, err)

	out, err := f.run("query", "wallet", f.alice.Address().String())
	require.NoError(t, err)
	var coins []*coin.Coin
	require.NoError(t, json.Unmarshal(out, &coins))
	require.Len(t, coins, 1)
	assert.Equal(t, "1000 EGLD", coins[0].String())
}

func TestTickExpiresOffers(t *testing.T) {
	f := newCmdFixture(t)

	_, err := f.exec(f.alice, 1000, &escrow.CreateOfferMsg{
		Recipient: f.bob.Address(),
		Expected:  []*coin.Coin{coin.NewCoinp(50, "USDC")},
		ExpiresAt: ledger.UnixTime(1500),
		Payment:   []*coin.Coin{coin.NewCoinp(100, "EGLD")},
	})
	require.NoError(t, err)

	out, err := f.run("query", "offers", "--time", "1200")
	require.NoError(t, err)
	var offers []*escrow.Offer
	require.NoError(t, json.Unmarshal(out, &offers))
	assert.Len(t, offers, 1)

	out, err = f.run("tick", "--time", "2000")
	require.NoError(t, err)
	var res callOutput
	require.NoError(t, json.Unmarshal(out, &res))
	require.Len(t, res.Events, 1)
	assert.Equal(t, "offer_expired", res.Events[0].Name)

	out, err = f.run("query", "offer", "1")
	require.NoError(t, err)
	var offer struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(out, &offer))
	assert.Equal(t, "expired", offer.Status)
}

func TestCommandErrors(t *testing.T) {
	f := newCmdFixture(t)

	_, err := f.run("init", "--genesis", writeFile(t, "genesis.json", `{"chain_id": "another-one"}`))
	assert.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)

	_, err = f.run("exec", "--caller", "nonsense", f.txFile(&staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")}))
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)

	_, err = f.run("exec", "--caller", f.alice.String())
	assert.True(t, errors.ErrEmpty.Is(err), "%+v", err)

	_, err = f.run("query", "offer", "zero")
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)

	_, err = f.run("query", "offer", "7")
	assert.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}

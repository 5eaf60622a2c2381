package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/app"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/events"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/store/leveldb"
	"github.com/tokenvault/ledger/x/escrow"
	"github.com/tokenvault/ledger/x/staking"
)

type fixture struct {
	t     *testing.T
	l     *app.Ledger
	hub   *events.Hub
	srv   *httptest.Server
	now   time.Time
	alice ledger.Condition
	bob   ledger.Condition
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	l, err := app.Application(leveldb.NewMem(), reg)
	require.NoError(t, err)

	f := &fixture{
		t:     t,
		l:     l,
		hub:   events.NewHub(log.NewNopLogger()),
		now:   time.Unix(1000, 0),
		alice: ledgertest.NewCondition(),
		bob:   ledgertest.NewCondition(),
	}
	l.WithSink(f.hub)

	owner := ledgertest.NewCondition().Address()
	var gen app.Genesis
	raw := fmt.Sprintf(`{
		"chain_id": "api-test",
		"app_state": {
			"cash": [{"address": %q, "coins": ["1000 EGLD"]}, {"address": %q, "coins": ["500 USDC"]}],
			"conf": {
				"escrow": {"owner": %q, "fee_percent": 1},
				"staking": {"owner": %q, "ticker": "EGLD", "reward_rate_percent": 3650, "minimum_stake": 100, "unstake_cooldown": 100}
			}
		}
	}`, f.alice.Address(), f.bob.Address(), owner, owner)
	require.NoError(t, json.Unmarshal([]byte(raw), &gen))
	require.NoError(t, l.InitChain(gen))

	handler, err := New(l, Options{
		Registry: reg,
		Events:   f.hub,
		Clock:    func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.srv = httptest.NewServer(handler)
	t.Cleanup(func() {
		f.hub.Close()
		f.srv.Close()
	})
	return f
}

func (f *fixture) exec(caller ledger.Condition, at int64, msg ledger.Msg) *ledger.DeliverResult {
	f.t.Helper()
	raw, err := app.EncodeTx(msg)
	require.NoError(f.t, err)
	res, err := f.l.Execute(context.Background(), app.Call{Caller: caller, Time: time.Unix(at, 0), Tx: raw})
	require.NoError(f.t, err)
	return res
}

func (f *fixture) get(path string, dest interface{}) int {
	f.t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(f.t, err)
	if dest != nil {
		require.NoError(f.t, json.Unmarshal(body, dest), string(body))
	}
	return resp.StatusCode
}

func (f *fixture) createOffer(at, expires int64) {
	f.t.Helper()
	f.exec(f.alice, at, &escrow.CreateOfferMsg{
		Recipient: f.bob.Address(),
		Expected:  []*coin.Coin{coin.NewCoinp(50, "USDC")},
		ExpiresAt: ledger.UnixTime(expires),
		Payment:   []*coin.Coin{coin.NewCoinp(100, "EGLD")},
	})
}

func TestGetOffer(t *testing.T) {
	f := newFixture(t)
	f.createOffer(900, 2000)

	var offer struct {
		ID      uint64       `json:"id"`
		Status  string       `json:"status"`
		Offered []*coin.Coin `json:"offered"`
	}
	assert.Equal(t, http.StatusOK, f.get("/offers/1", &offer))
	assert.Equal(t, uint64(1), offer.ID)
	assert.Equal(t, "active", offer.Status)
	require.Len(t, offer.Offered, 1)
	assert.Equal(t, "100 EGLD", offer.Offered[0].String())

	var errResp struct {
		Errors []string `json:"errors"`
	}
	assert.Equal(t, http.StatusNotFound, f.get("/offers/7", &errResp))
	assert.Len(t, errResp.Errors, 1)
	assert.Equal(t, http.StatusBadRequest, f.get("/offers/first", nil))
}

func TestListOffers(t *testing.T) {
	f := newFixture(t)
	f.createOffer(900, 950)
	f.createOffer(900, 2000)
	f.createOffer(900, 2000)
	f.exec(f.alice, 910, &escrow.CancelOfferMsg{OfferID: 3})

	ids := func(path string) []uint64 {
		var offers []struct {
			ID uint64 `json:"id"`
		}
		require.Equal(t, http.StatusOK, f.get(path, &offers))
		res := make([]uint64, 0, len(offers))
		for _, o := range offers {
			res = append(res, o.ID)
		}
		return res
	}

	// the first offer is expired at 1000 but not yet swept
	assert.Equal(t, []uint64{2}, ids("/offers?active=1"))
	assert.Equal(t, []uint64{2}, ids("/offers"))
	assert.Equal(t, []uint64{1, 2}, ids("/offers?status=active"))
	assert.Equal(t, []uint64{3}, ids("/offers?status=cancelled"))
	assert.Equal(t, []uint64{}, ids("/offers?status=completed"))

	assert.Equal(t, http.StatusBadRequest, f.get("/offers?status=burnt", nil))
	assert.Equal(t, http.StatusBadRequest, f.get("/offers?active=0", nil))
	assert.Equal(t, http.StatusBadRequest, f.get("/offers?active=maybe", nil))
}

func TestGetStake(t *testing.T) {
	f := newFixture(t)
	f.exec(f.alice, 1000, &staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")})

	var stake struct {
		Staked             string `json:"staked"`
		Pending            string `json:"pending"`
		UnstakeAvailableAt int64  `json:"unstake_available_at"`
	}
	decode := func() {
		var raw map[string]json.RawMessage
		require.Equal(t, http.StatusOK, f.get("/stakes/"+f.alice.Address().String(), &raw))
		stake.Staked = string(raw["staked"])
		stake.Pending = string(raw["pending"])
		require.NoError(t, json.Unmarshal(raw["unstake_available_at"], &stake.UnstakeAvailableAt))
	}

	decode()
	assert.Equal(t, "500", stake.Staked)
	assert.Equal(t, "0", stake.Pending)
	assert.Equal(t, int64(0), stake.UnstakeAvailableAt)

	// one day at 3650% a year earns 10%
	f.now = time.Unix(1000+86400, 0)
	decode()
	assert.Equal(t, "50", stake.Pending)

	f.exec(f.alice, 1100, &staking.RequestUnstakeMsg{Amount: coin.NewCoinp(200, "EGLD")})
	decode()
	assert.Equal(t, "300", stake.Staked)
	assert.Equal(t, int64(1200), stake.UnstakeAvailableAt)

	assert.Equal(t, http.StatusNotFound, f.get("/stakes/"+f.bob.Address().String(), nil))
	assert.Equal(t, http.StatusBadRequest, f.get("/stakes/zz", nil))
}

func TestGetWallet(t *testing.T) {
	f := newFixture(t)

	var wallet struct {
		Coins []*coin.Coin `json:"coins"`
	}
	assert.Equal(t, http.StatusOK, f.get("/wallets/"+f.alice.Address().String(), &wallet))
	require.Len(t, wallet.Coins, 1)
	assert.Equal(t, "1000 EGLD", wallet.Coins[0].String())

	unknown := ledgertest.NewCondition().Address()
	wallet.Coins = nil
	assert.Equal(t, http.StatusOK, f.get("/wallets/bech32:"+unknown.Bech32(), &wallet))
	assert.Empty(t, wallet.Coins)
}

func TestStatusAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.exec(f.alice, 1000, &staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")})

	var status struct {
		ChainID  string `json:"chain_id"`
		Height   int64  `json:"height"`
		LastTime int64  `json:"last_time"`
	}
	assert.Equal(t, http.StatusOK, f.get("/status", &status))
	assert.Equal(t, "api-test", status.ChainID)
	assert.Equal(t, f.l.Height(), status.Height)
	assert.Equal(t, int64(1000), status.LastTime)

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ledger_calls_total{code="0",mode="deliver",path="staking/stake"} 1`)
	assert.Contains(t, string(body), `ledger_api_requests_total{code="200",method="GET",path="/status"} 1`)
}

func TestRequestID(t *testing.T) {
	l, err := app.Application(leveldb.NewMem(), nil)
	require.NoError(t, err)
	handler, err := New(l, Options{EnableReqLogger: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get(RequestIDHeader))
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/events?name=offer_created"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	f.exec(f.alice, 1000, &staking.StakeMsg{Amount: coin.NewCoinp(500, "EGLD")})
	f.createOffer(1000, 2000)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var env events.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "offer_created", env.Name)
	assert.Equal(t, "escrow/create_offer", env.Path)
	assert.Equal(t, "1", env.Attributes["offer_id"])
	assert.Equal(t, f.l.Height(), env.Height)
}

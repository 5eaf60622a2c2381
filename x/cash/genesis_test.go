package cash

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/ledgertest"
	"github.com/tokenvault/ledger/store"
)

func TestGenesis(t *testing.T) {
	addr := ledgertest.NewCondition().Address()

	Convey("Given a cash genesis section", t, func() {
		db := store.MemStore()
		var init Initializer

		load := func(raw string) ledger.Options {
			var opts ledger.Options
			So(json.Unmarshal([]byte(raw), &opts), ShouldBeNil)
			return opts
		}

		Convey("An empty genesis creates no wallets", func() {
			So(init.FromGenesis(ledger.Options{}, db), ShouldBeNil)
			bal, err := NewController().Balance(db, addr)
			So(err, ShouldBeNil)
			So(bal.IsEmpty(), ShouldBeTrue)
		})

		Convey("Accounts are funded", func() {
			opts := load(`{"cash": [{"address": "` + addr.String() + `", "coins": ["50 EGLD", {"ticker": "MEX", "amount": "7"}]}]}`)
			So(init.FromGenesis(opts, db), ShouldBeNil)

			bal, err := NewController().Balance(db, addr)
			So(err, ShouldBeNil)
			So(bal.Balance("EGLD").String(), ShouldEqual, "50 EGLD")
			So(bal.Balance("MEX").String(), ShouldEqual, "7 MEX")
		})

		Convey("An invalid address is rejected", func() {
			opts := load(`{"cash": [{"address": "", "coins": ["50 EGLD"]}]}`)
			err := init.FromGenesis(opts, db)
			So(errors.ErrEmpty.Is(err), ShouldBeTrue)
		})

		Convey("A negative amount is rejected", func() {
			opts := load(`{"cash": [{"address": "` + addr.String() + `", "coins": [{"ticker": "EGLD", "amount": "-1"}]}]}`)
			err := init.FromGenesis(opts, db)
			So(errors.ErrInvalidAmount.Is(err), ShouldBeTrue)
		})
	})
}

package main

import (
	"context"
	"encoding/hex"
	"io/ioutil"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/app"
	"github.com/tokenvault/ledger/coin"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/events"
	"github.com/tokenvault/ledger/x/cash"
	"github.com/tokenvault/ledger/x/escrow"
	"github.com/tokenvault/ledger/x/staking"
	cli "gopkg.in/urfave/cli.v1"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

// callOutput is printed after a call is committed.
type callOutput struct {
	Height int64             `json:"height"`
	Data   string            `json:"data,omitempty"`
	Log    string            `json:"log,omitempty"`
	Events []events.Envelope `json:"events"`
}

// collect returns a sink appending published envelopes to dst.
func collect(dst *[]events.Envelope) events.Sink {
	return events.SinkFunc(func(e events.Envelope) {
		*dst = append(*dst, e)
	})
}

func readTx(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "transaction file")
	}
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = ioutil.ReadAll(os.Stdin)
	} else {
		raw, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "read transaction: %s", err)
	}
	return raw, nil
}

func execAction(ctx *cli.Context) error {
	raw, err := readTx(ctx.Args().First())
	if err != nil {
		return err
	}
	caller, err := ledger.ParseCondition(ctx.String(callerFlag.Name))
	if err != nil {
		return errors.Wrap(err, "caller")
	}

	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	call := app.Call{
		Caller: caller,
		Time:   blockTime(ctx).Time(),
		Tx:     raw,
	}
	if ctx.Bool(dryRunFlag.Name) {
		res, err := n.ledger.Check(context.Background(), call)
		if err != nil {
			return err
		}
		return printJSON(ctx, res)
	}

	var published []events.Envelope
	n.ledger.WithSink(events.MultiSink{events.NewLogSink(n.logger), collect(&published)})
	res, err := n.ledger.Execute(context.Background(), call)
	if err != nil {
		return err
	}
	out := callOutput{
		Height: n.ledger.Height(),
		Log:    res.Log,
		Events: published,
	}
	if len(res.Data) > 0 {
		out.Data = hex.EncodeToString(res.Data)
	}
	if out.Events == nil {
		out.Events = []events.Envelope{}
	}
	return printJSON(ctx, out)
}

func tickAction(ctx *cli.Context) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	published := []events.Envelope{}
	n.ledger.WithSink(events.MultiSink{events.NewLogSink(n.logger), collect(&published)})
	if _, err := n.ledger.Tick(context.Background(), blockTime(ctx).Time()); err != nil {
		return err
	}
	return printJSON(ctx, callOutput{Height: n.ledger.Height(), Events: published})
}

func queryStatusAction(ctx *cli.Context) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	return printJSON(ctx, struct {
		ChainID  string          `json:"chain_id"`
		Height   int64           `json:"height"`
		LastTime ledger.UnixTime `json:"last_time"`
	}{
		ChainID:  n.ledger.ChainID(),
		Height:   n.ledger.Height(),
		LastTime: n.ledger.LastTime(),
	})
}

func queryOfferAction(ctx *cli.Context) error {
	id, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
	if err != nil || id == 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "offer id %q", ctx.Args().First())
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	var offer *escrow.Offer
	err = n.ledger.View(func(db ledger.ReadOnlyKVStore) error {
		offer, err = escrow.OfferByID(db, id)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, offer)
}

func queryOffersAction(ctx *cli.Context) error {
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	offers := make([]*escrow.Offer, 0)
	err = n.ledger.View(func(db ledger.ReadOnlyKVStore) error {
		found, err := escrow.ActiveOffers(db, blockTime(ctx))
		offers = append(offers, found...)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, offers)
}

func queryStakeAction(ctx *cli.Context) error {
	owner, err := parseAddressArg(ctx)
	if err != nil {
		return err
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	now := blockTime(ctx)
	var out struct {
		*staking.Position
		Pending *big.Int `json:"pending"`
	}
	err = n.ledger.View(func(db ledger.ReadOnlyKVStore) error {
		pos, err := staking.PositionOf(db, owner)
		if err != nil {
			return err
		}
		conf, err := staking.CurrentConfiguration(db)
		if err != nil {
			return err
		}
		out.Position = pos
		out.Pending = pos.Pending(now, conf.RewardRatePercent)
		return nil
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, out)
}

func queryWalletAction(ctx *cli.Context) error {
	addr, err := parseAddressArg(ctx)
	if err != nil {
		return err
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	coins := coin.Coins{}
	err = n.ledger.View(func(db ledger.ReadOnlyKVStore) error {
		found, err := cash.NewController().Balance(db, addr)
		coins = append(coins, found...)
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(ctx, coins)
}

func parseAddressArg(ctx *cli.Context) (ledger.Address, error) {
	addr, err := ledger.ParseAddress(ctx.Args().First())
	if err != nil {
		return nil, err
	}
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	return addr, nil
}

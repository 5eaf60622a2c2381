// ledgerd runs the escrow and staking ledger. It executes calls against a
// local state database and serves a read only HTTP API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tokenvault/ledger"
	"github.com/tokenvault/ledger/app"
	"github.com/tokenvault/ledger/errors"
	"github.com/tokenvault/ledger/store/leveldb"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
)

func fullVersion() string {
	if version == "" {
		version = "dev"
	}
	if gitCommit == "" {
		return version
	}
	return fmt.Sprintf("%s-%s", version, gitCommit)
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	a := cli.NewApp()
	a.Name = "ledgerd"
	a.Usage = "Multi asset escrow and staking ledger"
	a.Version = fullVersion()
	a.Flags = []cli.Flag{
		configFlag,
		homeFlag,
		logLevelFlag,
	}
	a.Commands = []cli.Command{
		{
			Name:   "init",
			Usage:  "initialize the state database from a genesis file",
			Flags:  []cli.Flag{genesisFlag},
			Action: initAction,
		},
		{
			Name:      "exec",
			Usage:     "execute a call, the transaction is read from a file or - for stdin",
			ArgsUsage: "<tx.json>",
			Flags:     []cli.Flag{callerFlag, timeFlag, dryRunFlag},
			Action:    execAction,
		},
		{
			Name:   "tick",
			Usage:  "run the ticker, expiring outdated offers",
			Flags:  []cli.Flag{timeFlag},
			Action: tickAction,
		},
		{
			Name:  "query",
			Usage: "print the committed state",
			Subcommands: []cli.Command{
				{Name: "status", Usage: "chain id, height and time", Action: queryStatusAction},
				{Name: "offer", Usage: "offer by id", ArgsUsage: "<id>", Action: queryOfferAction},
				{Name: "offers", Usage: "offers active at given time", Flags: []cli.Flag{timeFlag}, Action: queryOffersAction},
				{Name: "stake", Usage: "staking position of an address", ArgsUsage: "<address>", Flags: []cli.Flag{timeFlag}, Action: queryStakeAction},
				{Name: "wallet", Usage: "balance of an address", ArgsUsage: "<address>", Action: queryWalletAction},
			},
		},
		{
			Name:   "serve",
			Usage:  "serve the HTTP API and run the ticker periodically",
			Flags:  []cli.Flag{apiAddrFlag, apiCorsFlag, tickIntervalFlag},
			Action: serveAction,
		},
	}
	return a
}

// loadConfig resolves the configuration file and environment, then the
// global command line flags.
func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg, err := LoadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if home := ctx.GlobalString(homeFlag.Name); home != "" {
		cfg.DataDir = home
	}
	if lvl := ctx.GlobalString(logLevelFlag.Name); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "log level: %s", err)
	}
	return log.NewFilter(logger, opt).With("module", "ledgerd"), nil
}

func errWriter(ctx *cli.Context) io.Writer {
	if ctx.App.ErrWriter != nil {
		return ctx.App.ErrWriter
	}
	return os.Stderr
}

// node groups what every command needs: the configuration, a logger and
// the ledger opened on the state database.
type node struct {
	cfg    *Config
	logger log.Logger
	ledger *app.Ledger
}

func openNode(ctx *cli.Context) (*node, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return openNodeWithConfig(ctx, cfg, nil)
}

// openNodeWithConfig opens the state database. Metrics are registered with
// reg unless it is nil.
func openNodeWithConfig(ctx *cli.Context, cfg *Config, reg prometheus.Registerer) (*node, error) {
	logger, err := newLogger(errWriter(ctx), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "data dir: %s", err)
	}
	kv, err := leveldb.Open(filepath.Join(cfg.DataDir, "state"), &leveldb.Options{
		ReadCacheMB:   cfg.Store.ReadCacheMB,
		WriteBufferMB: cfg.Store.WriteBufferMB,
	})
	if err != nil {
		return nil, err
	}
	l, err := app.Application(kv, reg)
	if err != nil {
		kv.Close()
		return nil, err
	}
	l.WithLogger(logger)
	return &node{cfg: cfg, logger: logger, ledger: l}, nil
}

func (n *node) Close() {
	if err := n.ledger.Close(); err != nil {
		n.logger.Error("close state database", "err", err)
	}
}

// printJSON writes v as indented JSON to the command output.
func printJSON(ctx *cli.Context, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(raw))
	return err
}

func initAction(ctx *cli.Context) error {
	gen, err := app.LoadGenesis(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}
	n, err := openNode(ctx)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.ledger.InitChain(gen); err != nil {
		return err
	}
	n.logger.Info("chain initialized", "chain_id", n.ledger.ChainID(), "height", n.ledger.Height())
	return nil
}

// blockTime returns the time given with the time flag or the current time.
func blockTime(ctx *cli.Context) ledger.UnixTime {
	if ctx.IsSet(timeFlag.Name) {
		return ledger.UnixTime(ctx.Int64(timeFlag.Name))
	}
	return ledger.AsUnixTime(nowFunc())
}

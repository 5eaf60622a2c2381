package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path to the TOML configuration file",
		EnvVar: "LEDGERD_CONFIG",
	}
	homeFlag = cli.StringFlag{
		Name:  "home",
		Usage: "directory for the state database, overrides data_dir",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug|info|error|none), overrides log_level",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Value: "genesis.json",
		Usage: "path to the genesis file",
	}
	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "condition of the calling account, in ext/type/HEXDATA form",
	}
	timeFlag = cli.Int64Flag{
		Name:  "time",
		Usage: "block time as unix seconds, defaults to the current time",
	}
	dryRunFlag = cli.BoolFlag{
		Name:  "dry-run",
		Usage: "check the call without committing it",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address, overrides api.addr",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	tickIntervalFlag = cli.DurationFlag{
		Name:  "tick-interval",
		Usage: "interval between ticks, zero disables the ticker",
	}
)

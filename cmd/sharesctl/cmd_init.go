package main

import (
	"fmt"
	"io"
	"os"

	"github.com/bitfsorg/libshares-go/config"
	"github.com/bitfsorg/libshares-go/engine"
)

func cmdInit(input io.Reader, output io.Writer, args []string) error {
	fl, dirFl := newFlagSet("init", `
Create a data directory with a configuration file and an empty state.

This command fails if the configuration file already exists, unless -force
is given.
`)
	defaults := config.DefaultConfig()
	var (
		networkFl   = fl.String("network", defaults.Network, "Network used for address encoding: mainnet, testnet or regtest.")
		storeFl     = fl.String("store", defaults.StoreBackend, "State backend: bolt or memory.")
		logLevelFl  = fl.String("loglevel", defaults.LogLevel, "Log level: debug, info, warn or error.")
		logFileFl   = fl.String("logfile", "", "Log file. Empty logs to stderr.")
		feeRateFl   = fl.Uint64("feerate", 0, "Protocol fee scaled by 1e18.")
		collectorFl = fl.String("collector", "", "Fee collector address.")
		factoryFl   = fl.String("factory", "", "Factory address. Empty uses the built-in one.")
		forceFl     = fl.Bool("force", false, "Overwrite an existing configuration file.")
	)
	if err := fl.Parse(args); err != nil {
		return err
	}

	path := config.ConfigPath(*dirFl)
	if _, err := os.Stat(path); err == nil && !*forceFl {
		return fmt.Errorf("configuration %q already exists, use -force to overwrite it", path)
	}

	cfg := config.Config{
		DataDir:      *dirFl,
		Network:      *networkFl,
		LogLevel:     *logLevelFl,
		LogFile:      *logFileFl,
		StoreBackend: *storeFl,
		FeeRate:      *feeRateFl,
		FeeCollector: *collectorFl,
		Factory:      *factoryFl,
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return err
	}
	// Opening once creates the state and seeds the fee schedule.
	if err := withEngine(*dirFl, func(*engine.Engine) error { return nil }); err != nil {
		return err
	}
	fmt.Fprintf(output, "initialized %s\n", *dirFl)
	return nil
}

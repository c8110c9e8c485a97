package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/bitfsorg/libshares-go/account"
	"github.com/bitfsorg/libshares-go/bank"
	"github.com/bitfsorg/libshares-go/config"
	"github.com/bitfsorg/libshares-go/engine"
)

// env returns the value of an environment variable if set, otherwise the
// fallback value.
func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

// newFlagSet returns a flag set that reports errors instead of exiting,
// with the -datadir flag every command shares.
func newFlagSet(name, usage string) (*flag.FlagSet, *string) {
	fl := flag.NewFlagSet(name, flag.ContinueOnError)
	fl.Usage = func() {
		fmt.Fprint(fl.Output(), usage)
		fl.PrintDefaults()
	}
	dir := fl.String("datadir", env("SHARES_DATADIR", config.DefaultDataDir()),
		"Data directory. You can use SHARES_DATADIR environment variable to set it.")
	return fl, dir
}

// loadConfig reads the config file of dataDir, falling back to defaults
// when there is none.
func loadConfig(dataDir string) (config.Config, error) {
	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return cfg, err
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

// openEngine opens the engine of dataDir. Close it when done.
func openEngine(dataDir string) (*engine.Engine, error) {
	cfg, err := loadConfig(dataDir)
	if err != nil {
		return nil, err
	}
	return engine.Open(cfg)
}

// withEngine runs fn on an open engine and closes it afterwards.
func withEngine(dataDir string, fn func(*engine.Engine) error) (err error) {
	e, err := openEngine(dataDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(e)
}

// addressFlag parses a required address flag value.
func addressFlag(name, value string) (account.Address, error) {
	if value == "" {
		return account.Address{}, fmt.Errorf("-%s is required", name)
	}
	a, err := account.ParseAddress(value)
	if err != nil {
		return a, fmt.Errorf("-%s: %w", name, err)
	}
	return a, nil
}

// currencyFlag parses a required currency flag value.
func currencyFlag(value string) (bank.Currency, error) {
	cur := bank.Currency(value)
	if err := cur.Validate(); err != nil {
		return cur, fmt.Errorf("-currency: %w", err)
	}
	return cur, nil
}

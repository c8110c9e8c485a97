// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet\", \"testnet\", or \"regtest\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidStoreBackend indicates the store backend is not recognized.
	ErrInvalidStoreBackend = errors.New("config: invalid store backend (must be \"bolt\" or \"memory\")")

	// ErrInvalidFeeRate indicates a fee rate above 1e18 (100%).
	ErrInvalidFeeRate = errors.New("config: fee rate exceeds 1e18")

	// ErrInvalidAddress indicates an address value that cannot be parsed.
	ErrInvalidAddress = errors.New("config: invalid address")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)

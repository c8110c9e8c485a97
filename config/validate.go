// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"strings"

	"github.com/bitfsorg/libshares-go/account"
)

// maxFeeRate is 100% at the ledger's 1e18 scale.
const maxFeeRate uint64 = 1_000_000_000_000_000_000

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if _, err := account.GetNetwork(cfg.Network); err != nil {
		return ErrInvalidNetwork
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.StoreBackend != BackendBolt && cfg.StoreBackend != BackendMemory {
		return ErrInvalidStoreBackend
	}

	if cfg.FeeRate > maxFeeRate {
		return ErrInvalidFeeRate
	}

	for _, addr := range []string{cfg.FeeCollector, cfg.Factory} {
		if addr == "" {
			continue
		}
		if _, err := account.ParseAddress(addr); err != nil {
			return ErrInvalidAddress
		}
	}

	return nil
}

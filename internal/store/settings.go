// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package store

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/yqpay/theaterpos/internal/models"
)

// SettingsStore persists per-theater printer configuration.
type SettingsStore struct {
	db *badger.DB
}

// NewSettingsStore creates a settings store on db.
func NewSettingsStore(db *badger.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func printerKey(theaterID string) []byte {
	return []byte("printer:" + theaterID)
}

// GetPrinterConfig returns the theater's printer configuration, or the
// default USB configuration when nothing has been saved yet.
func (s *SettingsStore) GetPrinterConfig(ctx context.Context, theaterID string) (models.PrinterConfig, error) {
	if err := ctx.Err(); err != nil {
		return models.PrinterConfig{}, err
	}
	cfg := models.DefaultPrinterConfig()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(printerKey(theaterID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // defaults
		}
		if err != nil {
			return fmt.Errorf("load printer config: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &cfg)
		})
	})
	if err != nil {
		return models.PrinterConfig{}, err
	}
	if cfg.Driver == "" {
		cfg.Driver = models.PrinterDriverUSB
	}
	return cfg, nil
}

// PutPrinterConfig saves the theater's printer configuration.
func (s *SettingsStore) PutPrinterConfig(ctx context.Context, theaterID string, cfg models.PrinterConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.Driver == "" {
		cfg.Driver = models.PrinterDriverUSB
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal printer config: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(printerKey(theaterID), body)
	})
}

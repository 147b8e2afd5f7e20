// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

// Package printer delivers rendered receipt jobs to physical printers,
// either raw over USB (ESC/POS) or through the OS print spooler.
package printer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yqpay/theaterpos/internal/models"
)

// Driver sends one print job to the configured printer. Implementations
// open and close the device per job so a printer that is unplugged
// between orders does not wedge the agent.
type Driver interface {
	Print(ctx context.Context, job []byte) error
	Name() string
}

// NewDriver builds the driver the printer config selects. An empty
// driver falls back to USB, matching DefaultPrinterConfig.
func NewDriver(cfg models.PrinterConfig) (Driver, error) {
	switch cfg.Driver {
	case models.PrinterDriverUSB, "":
		vid, pid, err := parseUSBIDs(cfg.USBVendorID, cfg.USBProductID)
		if err != nil {
			return nil, err
		}
		return &usbDriver{vendorID: vid, productID: pid}, nil
	case models.PrinterDriverSystem:
		return &systemDriver{printerName: cfg.PrinterName}, nil
	default:
		return nil, fmt.Errorf("unknown printer driver %q", cfg.Driver)
	}
}

// parseUSBIDs parses hex vendor/product IDs ("0x04b8" or "04b8"). Both
// empty means discover the first printer-class device.
func parseUSBIDs(vendor, product string) (uint16, uint16, error) {
	if vendor == "" && product == "" {
		return 0, 0, nil
	}
	if vendor == "" || product == "" {
		return 0, 0, fmt.Errorf("usb vendor and product IDs must be set together")
	}
	vid, err := parseHexID(vendor)
	if err != nil {
		return 0, 0, fmt.Errorf("usb vendor id %q: %w", vendor, err)
	}
	pid, err := parseHexID(product)
	if err != nil {
		return 0, 0, fmt.Errorf("usb product id %q: %w", product, err)
	}
	return vid, pid, nil
}

func parseHexID(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

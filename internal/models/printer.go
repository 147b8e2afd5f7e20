// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package models

// Printer driver kinds.
const (
	PrinterDriverUSB    = "usb"
	PrinterDriverSystem = "system"
)

// PrinterConfig is the per-theater printer selection served to agents.
// Vendor and product IDs are hex strings ("0x04b8") and may be empty, in
// which case the USB driver picks the first printer-class device it finds.
type PrinterConfig struct {
	Driver       string `json:"driver" validate:"omitempty,oneof=usb system"`
	USBVendorID  string `json:"usbVendorId,omitempty"`
	USBProductID string `json:"usbProductId,omitempty"`
	PrinterName  string `json:"printerName,omitempty"`
}

// DefaultPrinterConfig is what a theater gets before anyone has saved a
// printer configuration.
func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{Driver: PrinterDriverUSB}
}

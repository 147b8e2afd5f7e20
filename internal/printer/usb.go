// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package printer

import (
	"context"
	"fmt"

	"github.com/google/gousb"

	"github.com/yqpay/theaterpos/internal/logging"
)

// usbDriver writes raw ESC/POS bytes to a USB printer. With zero IDs it
// claims the first printer-class device it finds; with explicit IDs it
// opens exactly that device.
type usbDriver struct {
	vendorID  uint16
	productID uint16
}

func (d *usbDriver) Name() string { return "usb" }

func (d *usbDriver) Print(ctx context.Context, job []byte) error {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	dev, err := d.openDevice(usbCtx)
	if err != nil {
		return err
	}
	defer dev.Close()

	// The kernel usblp driver usually owns the interface.
	if err := dev.SetAutoDetach(true); err != nil {
		logging.Debug().Err(err).Msg("usb auto-detach not supported")
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		return fmt.Errorf("claim usb interface: %w", err)
	}
	defer done()

	ep, err := outEndpoint(intf)
	if err != nil {
		return err
	}

	written := 0
	for written < len(job) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := ep.Write(job[written:])
		if err != nil {
			return fmt.Errorf("usb write after %d bytes: %w", written, err)
		}
		written += n
	}

	logging.Debug().
		Int("bytes", written).
		Str("device", dev.String()).
		Msg("usb print job written")
	return nil
}

func (d *usbDriver) openDevice(usbCtx *gousb.Context) (*gousb.Device, error) {
	if d.vendorID != 0 || d.productID != 0 {
		dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(d.vendorID), gousb.ID(d.productID))
		if err != nil {
			return nil, fmt.Errorf("open usb device %04x:%04x: %w", d.vendorID, d.productID, err)
		}
		if dev == nil {
			return nil, fmt.Errorf("usb device %04x:%04x not connected", d.vendorID, d.productID)
		}
		return dev, nil
	}

	devs, err := usbCtx.OpenDevices(isPrinterDesc)
	if err != nil {
		// OpenDevices can return partial results alongside an error;
		// keep a device if we got one.
		if len(devs) == 0 {
			return nil, fmt.Errorf("scan usb printers: %w", err)
		}
		logging.Warn().Err(err).Msg("usb scan reported errors")
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no usb printer-class device found")
	}
	for _, extra := range devs[1:] {
		_ = extra.Close()
	}
	return devs[0], nil
}

// isPrinterDesc reports whether a device advertises the USB printer
// class, either at the device level or on any interface.
func isPrinterDesc(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}

func outEndpoint(intf *gousb.Interface) (*gousb.OutEndpoint, error) {
	for _, ed := range intf.Setting.Endpoints {
		if ed.Direction == gousb.EndpointDirectionOut {
			ep, err := intf.OutEndpoint(ed.Number)
			if err != nil {
				return nil, fmt.Errorf("open out endpoint %d: %w", ed.Number, err)
			}
			return ep, nil
		}
	}
	return nil, fmt.Errorf("usb interface has no out endpoint")
}

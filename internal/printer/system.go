// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package printer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/yqpay/theaterpos/internal/logging"
)

// systemDriver hands the job to the OS print spooler: lp (or lpr) on
// Unix-likes, print on Windows. The job is staged in a temp file because
// the spooler tools want a path.
type systemDriver struct {
	printerName string
}

func (d *systemDriver) Name() string { return "system" }

func (d *systemDriver) Print(ctx context.Context, job []byte) error {
	tmp, err := os.CreateTemp("", "pos-receipt-*.bin")
	if err != nil {
		return fmt.Errorf("stage print job: %w", err)
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(job); err != nil {
		tmp.Close()
		return fmt.Errorf("stage print job: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage print job: %w", err)
	}

	cmd, err := d.spoolCommand(ctx, path)
	if err != nil {
		return err
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("spooler %s: %w (%s)", cmd.Path, err, string(out))
	}

	logging.Debug().
		Str("spooler", cmd.Path).
		Str("printer", d.printerName).
		Msg("print job spooled")
	return nil
}

func (d *systemDriver) spoolCommand(ctx context.Context, path string) (*exec.Cmd, error) {
	if runtime.GOOS == "windows" {
		args := []string{}
		if d.printerName != "" {
			args = append(args, "/D:"+d.printerName)
		}
		args = append(args, path)
		return exec.CommandContext(ctx, "print", args...), nil
	}

	if _, err := exec.LookPath("lp"); err == nil {
		args := []string{}
		if d.printerName != "" {
			args = append(args, "-d", d.printerName)
		}
		args = append(args, path)
		return exec.CommandContext(ctx, "lp", args...), nil
	}
	if _, err := exec.LookPath("lpr"); err == nil {
		args := []string{}
		if d.printerName != "" {
			args = append(args, "-P", d.printerName)
		}
		args = append(args, path)
		return exec.CommandContext(ctx, "lpr", args...), nil
	}
	return nil, fmt.Errorf("no print spooler found (need lp or lpr)")
}

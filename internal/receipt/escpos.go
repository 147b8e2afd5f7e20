// Theater POS - Multi-Tenant Ticketing and Auto-Print Dispatch Platform
// Copyright 2026 YQ Pay
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/yqpay/theaterpos

package receipt

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/yqpay/theaterpos/internal/models"
)

// ESC/POS command sequences. Thermal printers speak code page 437; runes
// outside it (the rupee glyph included) are substituted by the encoder.
var (
	escInit     = []byte{0x1b, 0x40}             // ESC @  initialize
	alignLeft   = []byte{0x1b, 0x61, 0x00}       // ESC a 0
	alignCenter = []byte{0x1b, 0x61, 0x01}       // ESC a 1
	alignRight  = []byte{0x1b, 0x61, 0x02}       // ESC a 2
	feedLines   = []byte{0x1b, 0x64, 0x03}       // ESC d 3  feed before cut
	partialCut  = []byte{0x1d, 0x56, 0x41, 0x00} // GS V A 0
)

// RenderESCPOS produces the ESC/POS job for an order: centered header,
// left-aligned body, right-aligned total, feed and partial cut.
func RenderESCPOS(order *models.Order) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.CodePage437.NewEncoder())
	var buf bytes.Buffer

	buf.Write(escInit)

	buf.Write(alignCenter)
	if err := writeLine(&buf, enc, header); err != nil {
		return nil, err
	}

	buf.Write(alignLeft)
	if err := writeLine(&buf, enc, rule); err != nil {
		return nil, err
	}
	if err := writeLine(&buf, enc, "Order: "+order.OrderNumber); err != nil {
		return nil, err
	}
	if err := writeLine(&buf, enc, "Date : "+order.CreatedAt.Format(dateLayout)); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')

	for _, item := range order.Items {
		if err := writeLine(&buf, enc, itemLine(item)); err != nil {
			return nil, err
		}
	}
	if err := writeLine(&buf, enc, rule); err != nil {
		return nil, err
	}

	buf.Write(alignRight)
	if err := writeLine(&buf, enc, fmt.Sprintf("TOTAL: ₹%.2f", order.EffectiveTotal())); err != nil {
		return nil, err
	}

	buf.Write(alignLeft)
	if err := writeLine(&buf, enc, "\nThank you!"); err != nil {
		return nil, err
	}

	buf.Write(feedLines)
	buf.Write(partialCut)

	return buf.Bytes(), nil
}

func writeLine(buf *bytes.Buffer, enc *encoding.Encoder, line string) error {
	encoded, err := enc.Bytes([]byte(line))
	if err != nil {
		return fmt.Errorf("encode receipt line: %w", err)
	}
	buf.Write(encoded)
	buf.WriteByte('\n')
	return nil
}

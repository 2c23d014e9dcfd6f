// Package neserr holds the terminal error kinds the core can surface to a
// driver: a bad cartridge header, a mapper number nothing implements, or a
// breakpoint. It also defines UnknownOpcode for an opcode byte outside the
// supported legal+illegal set; the CPU core does not return it, since opcode
// bytes it does not decode run as two-cycle no-ops.
package neserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidHeader reports a malformed or unsupported iNES header: bad magic,
// NES 2.0, or four-screen VRAM.
type InvalidHeader struct {
	Reason string
}

func (e *InvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %s", e.Reason)
}

// UnsupportedMapper reports an iNES mapper number with no implementation.
type UnsupportedMapper struct {
	Number uint8
}

func (e *UnsupportedMapper) Error() string {
	return fmt.Sprintf("unsupported mapper: %d", e.Number)
}

// UnknownOpcode reports a fetched byte outside the supported opcode table.
type UnknownOpcode struct {
	PC   uint16
	Byte uint8
}

func (e *UnknownOpcode) Error() string {
	return fmt.Sprintf("unknown opcode $%02X at $%04X", e.Byte, e.PC)
}

// BreakpointHit reports that execution reached a registered breakpoint PC.
// It is not a failure; the driver decides whether to halt or continue.
type BreakpointHit struct {
	PC uint16
}

func (e *BreakpointHit) Error() string {
	return fmt.Sprintf("breakpoint hit at $%04X", e.PC)
}

// WrapHeader wraps a lower-level parse error as an InvalidHeader, attaching
// a stack trace at the boundary.
func WrapHeader(reason string) error {
	return errors.WithStack(&InvalidHeader{Reason: reason})
}

// WrapUnsupportedMapper wraps mapper number n as a terminal error.
func WrapUnsupportedMapper(n uint8) error {
	return errors.WithStack(&UnsupportedMapper{Number: n})
}

// WrapUnknownOpcode wraps an unknown opcode byte as a terminal CPU error.
func WrapUnknownOpcode(pc uint16, b uint8) error {
	return errors.WithStack(&UnknownOpcode{PC: pc, Byte: b})
}

// WrapBreakpoint wraps a breakpoint hit as a synthetic, once-reported error.
func WrapBreakpoint(pc uint16) error {
	return errors.WithStack(&BreakpointHit{PC: pc})
}

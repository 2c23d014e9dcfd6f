package cpu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yoshiomiyamaegones/pkg/logger"
	"github.com/yoshiomiyamaegones/pkg/memory"
	"github.com/yoshiomiyamaegones/pkg/neserr"
)

// CPU represents the 6502 processor
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter
	P  uint8  // Status register

	// Memory interface
	Memory *memory.Memory

	// Cycle counting. Cycles is the running total of CPU cycles, including
	// interrupt dispatch and OAM DMA stall cycles. It sets the OAM DMA
	// parity and, together with busCycle, the cycle stamp handed to the
	// cartridge on every write, which MMC1 needs to collapse the two write
	// phases of an RMW instruction into a single shift-register update.
	Cycles int

	// Interrupt flags
	NMI bool
	IRQ bool

	// Debug fields for freeze detection
	lastPC       uint16
	stuckCounter int

	// busCycle increments on every bus write. write() stamps each write with
	// Cycles+busCycle; Cycles does not move within an instruction, so
	// consecutive writes of one read-modify-write instruction are stamped
	// one cycle apart for mapper.MMC1's lockout, while writes from separate
	// instructions are always further apart.
	busCycle uint64

	// Breakpoints is the set of PC values that pause execution: CheckBreakpoint
	// reports a neserr.BreakpointHit once per arrival at such a PC, then lets
	// execution continue normally on the next call.
	Breakpoints map[uint16]bool

	breakpointArmed bool
	breakpointAt    uint16
}

// Status flag bits
const (
	FlagCarry     = 1 << 0 // C
	FlagZero      = 1 << 1 // Z
	FlagInterrupt = 1 << 2 // I
	FlagDecimal   = 1 << 3 // D
	FlagBreak     = 1 << 4 // B
	FlagUnused    = 1 << 5 // -
	FlagOverflow  = 1 << 6 // V
	FlagNegative  = 1 << 7 // N
)

// New creates a new CPU instance
func New(mem *memory.Memory) *CPU {
	return &CPU{
		Memory: mem,
		SP:     0xFD,
		P:      FlagUnused | FlagInterrupt,
	}
}

// Reset resets the CPU to initial state
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD
	c.P = FlagUnused | FlagInterrupt

	// Read reset vector
	resetVector := c.read16(0xFFFC)
	c.PC = resetVector
	c.Cycles = 0
}

// Step executes one instruction and returns cycles taken. While an OAM DMA
// transfer is pending, Step instead consumes one cycle of that transfer and
// returns 1, so the 513/514-cycle CPU stall is observable as a run of Step
// calls during which PC and the instruction stream never advance.
func (c *CPU) Step() int {
	if c.Memory.OAMDMAActive() {
		c.Memory.StepOAMDMA()
		c.Cycles++
		return 1
	}

	// Handle interrupts
	if c.NMI {
		logger.LogCPU("NMI triggered at PC=$%04X", c.PC)
		c.handleNMI()
		c.NMI = false
		c.Cycles += 7
		return 7
	}

	if c.IRQ && !c.getFlag(FlagInterrupt) {
		c.IRQ = false
		logger.LogCPU("IRQ triggered at PC=$%04X", c.PC)
		c.handleIRQ()
		c.Cycles += 7
		return 7
	}

	// Record cycle parity before this instruction runs, so a $4014 write
	// during it arms the OAM DMA with the correct 513/514-cycle length.
	c.Memory.SetCPUCycleParity(c.Cycles%2 == 1)

	// Fetch instruction
	opcode := c.read(c.PC)

	c.PC++

	// Execute instruction
	cycles := c.executeInstruction(opcode)
	c.Cycles += cycles

	return cycles
}

// executeInstruction is implemented in instructions.go

// handleNMI handles Non-Maskable Interrupt
func (c *CPU) handleNMI() {
	logger.LogCPU("NMI triggered: PC=$%04X, pushing to stack", c.PC)
	c.push16(c.PC)
	c.push(c.P &^ FlagBreak | FlagUnused)
	c.setFlag(FlagInterrupt, true)
	nmiVector := c.read16(0xFFFA)
	logger.LogCPU("NMI vector: $%04X, jumping to NMI handler", nmiVector)
	c.PC = nmiVector
}

// handleIRQ handles Interrupt Request
func (c *CPU) handleIRQ() {
	c.push16(c.PC)
	c.push(c.P &^ FlagBreak | FlagUnused)
	c.setFlag(FlagInterrupt, true)
	c.PC = c.read16(0xFFFE)
}

// Flag operations
func (c *CPU) getFlag(flag uint8) bool {
	return c.P&flag != 0
}

func (c *CPU) setFlag(flag uint8, value bool) {
	if value {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

// Memory operations
func (c *CPU) read(addr uint16) uint8 {
	return c.Memory.Read(addr)
}

func (c *CPU) write(addr uint16, value uint8) {
	c.Memory.SetCPUCycle(uint64(c.Cycles) + c.busCycle)
	c.busCycle++
	c.Memory.Write(addr, value)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.read(addr))
	hi := uint16(c.read(addr + 1))
	return hi<<8 | lo
}

// Stack operations
func (c *CPU) push(value uint8) {
	c.write(0x100|uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.read(0x100 | uint16(c.SP))
}

func (c *CPU) push16(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value & 0xFF))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// TriggerNMI triggers a Non-Maskable Interrupt
func (c *CPU) TriggerNMI() {
	c.NMI = true
}

// TriggerIRQ triggers an Interrupt Request
func (c *CPU) TriggerIRQ() {
	c.IRQ = true
}

// GetFlag returns the state of a flag (public method for testing)
func (c *CPU) GetFlag(flag uint8) bool {
	return c.getFlag(flag)
}

// SetBreakpoints installs the set of PC values that pause execution.
func (c *CPU) SetBreakpoints(pcs map[uint16]bool) {
	c.Breakpoints = pcs
	c.breakpointArmed = false
}

// CheckBreakpoint honors breakpoints before instruction fetch: if PC is a
// registered breakpoint not already reported for this visit, it returns a
// neserr.BreakpointHit once; a caller that keeps stepping afterward runs
// the instruction normally, since the next call finds the breakpoint
// already armed for this PC.
func (c *CPU) CheckBreakpoint() error {
	if !c.Breakpoints[c.PC] {
		c.breakpointArmed = false
		return nil
	}
	if c.breakpointArmed && c.breakpointAt == c.PC {
		return nil
	}
	c.breakpointArmed = true
	c.breakpointAt = c.PC
	return neserr.WrapBreakpoint(c.PC)
}

// ParseBreakpoints parses a comma-separated list of PC values, decimal or
// 0x-prefixed hex (e.g. "0xC000,0xC010"), as accepted by the --break flag.
func ParseBreakpoints(s string) (map[uint16]bool, error) {
	breakpoints := make(map[uint16]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseUint(part, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid breakpoint %q: %w", part, err)
		}
		breakpoints[uint16(value)] = true
	}
	return breakpoints, nil
}

package nes

import (
	"github.com/yoshiomiyamaegones/pkg/apu"
	"github.com/yoshiomiyamaegones/pkg/cartridge"
	"github.com/yoshiomiyamaegones/pkg/cpu"
	"github.com/yoshiomiyamaegones/pkg/input"
	"github.com/yoshiomiyamaegones/pkg/memory"
	"github.com/yoshiomiyamaegones/pkg/ppu"
)

// NES represents the Nintendo Entertainment System
type NES struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Memory    *memory.Memory
	Cartridge *cartridge.Cartridge
	Input     *input.Controller

	Cycles uint64
	Frame  uint64
}

// NewNES creates a new NES instance
func NewNES() *NES {
	nes := &NES{}

	// Initialize components
	nes.Memory = memory.New()
	nes.CPU = cpu.New(nes.Memory)
	nes.PPU = ppu.New(nes.Memory)
	nes.APU = apu.New()
	nes.Input = input.New()

	// Connect components to memory
	nes.Memory.SetPPU(nes.PPU)
	nes.Memory.SetAPU(nes.APU)
	nes.Memory.SetInput(nes.Input)

	return nes
}

// LoadCartridge loads a cartridge into the NES
func (n *NES) LoadCartridge(cart *cartridge.Cartridge) {
	n.Cartridge = cart
	n.Memory.SetCartridge(cart)
	n.PPU.SetCartridge(cart)
}

// Reset resets the NES to initial state
func (n *NES) Reset() {
	n.CPU.Reset()
	n.PPU.Reset()
	n.APU.Reset()
	n.Cycles = 0
	n.Frame = 0
}

// Step runs one CPU.Step (one instruction, one interrupt dispatch, or one
// OAM DMA stall cycle), then clocks the PPU three dots and the APU one cycle
// for each CPU cycle that took. It honors breakpoints before the opcode
// fetch: on a hit it returns a neserr.BreakpointHit without running the CPU
// for this call, leaving PC and all component state untouched so the next
// call (after the driver inspects state) executes normally.
func (n *NES) Step() error {
	if err := n.CPU.CheckBreakpoint(); err != nil {
		return err
	}

	cpuCycles := n.CPU.Step()

	// PPU runs 3 times faster than CPU
	for i := 0; i < cpuCycles*3; i++ {
		n.PPU.Step()

		// Check if PPU requested NMI
		if n.PPU.NMIRequested {
			n.CPU.TriggerNMI()
			n.PPU.NMIRequested = false
		}

		// Check if mapper requested IRQ. IsMapperIRQPending consumes the edge.
		if n.PPU.IsMapperIRQPending() {
			n.CPU.TriggerIRQ()
		}
	}

	// APU runs at CPU speed
	for i := 0; i < cpuCycles; i++ {
		n.APU.Step()
	}

	n.Cycles += uint64(cpuCycles)
	return nil
}

// SetBreakpoints installs the set of PC values that pause execution, as
// parsed from the --break flag by cpu.ParseBreakpoints.
func (n *NES) SetBreakpoints(pcs map[uint16]bool) {
	n.CPU.SetBreakpoints(pcs)
}

// StepFrame executes until frame is complete, or a breakpoint is hit, in
// which case it returns immediately without completing the frame.
func (n *NES) StepFrame() error {
	stepCount := 0
	maxSteps := 50000 // Proper limit for normal NES frame processing

	for !n.PPU.FrameComplete {
		if err := n.Step(); err != nil {
			return err
		}
		stepCount++

		// Safety check to prevent infinite loops during game freezes
		if stepCount > maxSteps {
			n.PPU.FrameComplete = true
			break
		}
	}

	n.PPU.FrameComplete = false
	// Frame counter is managed by PPU, don't increment here
	n.Frame = n.PPU.Frame
	return nil
}

// GetInput returns the input controller
func (n *NES) GetInput() *input.Controller {
	return n.Input
}

// GetFramebuffer returns the current framebuffer from PPU
func (n *NES) GetFramebuffer() []uint8 {
	return n.PPU.GetFramebuffer()
}

// GetFrame returns the current frame number
func (n *NES) GetFrame() uint64 {
	return n.Frame
}

// GetFramebufferRaw returns the raw framebuffer as 32-bit integers
func (n *NES) GetFramebufferRaw() []uint32 {
	return n.PPU.FrameBuffer[:]
}

// GetDisplayFramebufferRaw returns the display framebuffer considering persistent rendering
func (n *NES) GetDisplayFramebufferRaw() []uint32 {
	return n.PPU.FrameBuffer[:]
}

// GetDisplayFramebuffer returns the display framebuffer as RGBA bytes considering persistent rendering
func (n *NES) GetDisplayFramebuffer() []uint8 {
	// Get the current frame buffer (disable persistent rendering for proper game flow)
	frameBuffer := n.PPU.FrameBuffer[:]

	// Convert 32-bit framebuffer to RGBA bytes
	rgba := make([]uint8, 256*240*4)

	for i, pixel := range frameBuffer {
		// Extract RGB components from 32-bit pixel (0xAARRGGBB format)
		r := uint8((pixel >> 16) & 0xFF) // Extract R
		g := uint8((pixel >> 8) & 0xFF)  // Extract G
		b := uint8(pixel & 0xFF)         // Extract B
		a := uint8((pixel >> 24) & 0xFF) // Extract A

		// Use RGBA order to match expected format
		rgba[i*4+0] = r
		rgba[i*4+1] = g
		rgba[i*4+2] = b
		rgba[i*4+3] = a
	}

	return rgba
}

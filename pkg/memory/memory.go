package memory

import (
	"github.com/yoshiomiyamaegones/pkg/logger"
)

// Memory represents the NES memory map
type Memory struct {
	// CPU RAM (2KB, mirrored to fill 8KB)
	RAM [2048]uint8

	// Test memory for high addresses (for testing purposes)
	HighMem [0xA000]uint8 // 0x6000-0xFFFF

	// PPU interface
	PPU interface {
		ReadRegister(addr uint16) uint8
		WriteRegister(addr uint16, value uint8)
	}

	// APU interface
	APU interface {
		ReadRegister(addr uint16) uint8
		WriteRegister(addr uint16, value uint8)
	}

	// Cartridge interface
	Cartridge interface {
		CPURead(addr uint16) uint8
		CPUWrite(addr uint16, value uint8, cpuCycle uint64)
	}

	// Input interface
	Input interface {
		Read() uint8
		Write(value uint8)
	}

	// cpuCycle is the running CPU cycle counter, stamped on every cartridge
	// write so MMC1 can detect the two write phases of an RMW instruction.
	cpuCycle uint64

	// cpuCycleOdd records whether the CPU's total cycle count was odd at the
	// start of the instruction currently executing, so a $4014 write arms an
	// OAM DMA transfer with the correct 513/514-cycle length.
	cpuCycleOdd bool

	// dma holds the pending OAM DMA transfer armed by a $4014 write. It is
	// consumed one CPU cycle at a time by StepOAMDMA rather than performed
	// synchronously, so the CPU stall is externally observable.
	dma oamDMAState
}

// oamDMAState is the pending OAM DMA descriptor referenced by the memory
// map's data model: a page register and a byte cursor, advanced one CPU
// cycle per StepOAMDMA call.
type oamDMAState struct {
	active      bool
	page        uint8
	cycleIndex  int // cycles consumed since arming
	totalCycles int // 513 (armed on an even CPU cycle) or 514 (odd)
	readValue   uint8
}

// SetCPUCycle records the CPU's current cycle counter ahead of a Write call.
func (m *Memory) SetCPUCycle(cycle uint64) {
	m.cpuCycle = cycle
}

// SetCPUCycleParity records whether the CPU's total cycle count is odd as of
// the start of the instruction about to run, so an OAM DMA armed by a
// $4014 write during that instruction stalls for the correct cycle count.
func (m *Memory) SetCPUCycleParity(odd bool) {
	m.cpuCycleOdd = odd
}

// OAMDMAActive reports whether a $4014-armed transfer is still in progress.
// CPU.Step consults this before fetching the next instruction, so the
// transfer occupies CPU cycles instead of completing instantaneously.
func (m *Memory) OAMDMAActive() bool {
	return m.dma.active
}

// StepOAMDMA advances the pending OAM DMA transfer by one CPU cycle. The
// first cycle (two, if the triggering write landed on an odd CPU cycle) is
// an alignment wait state; the remaining 512 cycles are 256 read/write
// pairs copying page*0x100..+0xFF into OAM via $2004.
func (m *Memory) StepOAMDMA() {
	align := m.dma.totalCycles - 512

	if m.dma.cycleIndex >= align {
		transferCycle := m.dma.cycleIndex - align
		byteIndex := transferCycle / 2
		if transferCycle%2 == 0 {
			addr := uint16(m.dma.page)<<8 | uint16(byteIndex)
			m.dma.readValue = m.Read(addr)
		} else if m.PPU != nil {
			m.PPU.WriteRegister(0x2004, m.dma.readValue)
		}
	}

	m.dma.cycleIndex++
	if m.dma.cycleIndex >= m.dma.totalCycles {
		m.dma = oamDMAState{}
	}
}

// New creates a new Memory instance
func New() *Memory {
	return &Memory{}
}

// SetCartridge sets the cartridge reference
func (m *Memory) SetCartridge(cart interface {
	CPURead(addr uint16) uint8
	CPUWrite(addr uint16, value uint8, cpuCycle uint64)
}) {
	m.Cartridge = cart
}

// SetPPU sets the PPU reference
func (m *Memory) SetPPU(ppu interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}) {
	m.PPU = ppu
}

// SetAPU sets the APU reference
func (m *Memory) SetAPU(apu interface {
	ReadRegister(addr uint16) uint8
	WriteRegister(addr uint16, value uint8)
}) {
	m.APU = apu
}

// SetInput sets the input reference
func (m *Memory) SetInput(input interface {
	Read() uint8
	Write(value uint8)
}) {
	m.Input = input
}

// Read reads a byte from the given address with optimized path for common cases
func (m *Memory) Read(addr uint16) uint8 {

	// Fast path for most common accesses (CPU RAM and cartridge)
	if addr < 0x2000 {
		// CPU RAM (0x0000-0x1FFF, mirrored every 0x800 bytes)
		return m.RAM[addr&0x7FF] // Use bitwise AND for faster modulo
	}

	if addr >= 0x6000 {
		// Cartridge PRG ROM space (0x8000-0xFFFF) - most frequent after RAM
		if m.Cartridge != nil {
			return m.Cartridge.CPURead(addr)
		}
		// For testing: use HighMem when no cartridge is present
		index := addr - 0x6000
		if index >= 0xA000 {
			// Index out of bounds - this shouldn't happen
			return 0
		}
		return m.HighMem[index]
	}

	// Less frequent accesses
	if addr < 0x4000 {
		// PPU registers (0x2000-0x3FFF, mirrored every 8 bytes)
		if m.PPU != nil {
			return m.PPU.ReadRegister(0x2000 + (addr & 0x7))
		}
		return 0
	}

	if addr == 0x4016 {
		// Controller 1
		if m.Input != nil {
			return m.Input.Read()
		}
		return 0
	}

	if addr == 0x4017 {
		// Controller 2 / APU frame counter
		if m.APU != nil {
			return m.APU.ReadRegister(addr)
		}
		return 0
	}

	if addr < 0x4020 {
		// APU and I/O registers (0x4000-0x401F)
		if m.APU != nil {
			return m.APU.ReadRegister(addr)
		}
		return 0
	}

	// Unmapped addr > 0x4020 && addr < 0x6000
	return 0
}

// Write writes a byte to the given address
func (m *Memory) Write(addr uint16, value uint8) {

	switch {
	case addr < 0x2000:
		// CPU RAM (0x0000-0x1FFF, mirrored every 0x800 bytes)
		m.RAM[addr%0x800] = value

	case addr < 0x4000:
		// PPU registers (0x2000-0x3FFF, mirrored every 8 bytes)
		if m.PPU != nil {
			ppuAddr := 0x2000 + (addr & 0x7)
			// Debug: Log $2006/$2007 writes specifically
			if ppuAddr == 0x2006 || ppuAddr == 0x2007 {
				logger.LogCPU("Memory Write PPU $%04X: value=$%02X", ppuAddr, value)
			}
			m.PPU.WriteRegister(ppuAddr, value)
		}

	case addr == 0x4014:
		// OAM DMA: arm the transfer, don't run it synchronously
		m.armOAMDMA(value)

	case addr == 0x4016:
		// Controller 1
		if m.Input != nil {
			m.Input.Write(value)
		}

	case addr < 0x4020:
		// APU and I/O registers (0x4000-0x401F)
		if m.APU != nil {
			m.APU.WriteRegister(addr, value)
		}
	case addr >= 0x6000:
		// Cartridge PRG ROM space (0x8000-0xFFFF)
		if m.Cartridge != nil {
			m.Cartridge.CPUWrite(addr, value, m.cpuCycle)
		} else {
			// For testing: use HighMem when no cartridge is present
			index := addr - 0x6000
			if index >= 0xA000 {
				// Index out of bounds - this shouldn't happen
				return
			}
			m.HighMem[index] = value
		}

	default:
		// Unmapped addr > 0x4020 && addr < 0x6000
	}
}

// armOAMDMA records a pending OAM DMA transfer triggered by a $4014 write.
// The transfer is consumed cycle-by-cycle via StepOAMDMA, driven by
// CPU.Step, rather than performed synchronously here.
func (m *Memory) armOAMDMA(page uint8) {
	total := 513
	if m.cpuCycleOdd {
		total = 514
	}
	m.dma = oamDMAState{
		active:      true,
		page:        page,
		totalCycles: total,
	}
}

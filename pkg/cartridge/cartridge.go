package cartridge

import (
	"io"

	"github.com/yoshiomiyamaegones/pkg/cartridge/mapper"
	"github.com/yoshiomiyamaegones/pkg/logger"
	"github.com/yoshiomiyamaegones/pkg/neserr"
)

// Cartridge owns the parsed iNES image and the mapper instance driving it.
// It is the only component that directly touches PRGROM/CHRROM/PRGRAM/CHRRAM;
// everything else (bus, PPU) goes through its CPU/PPU read/write surface.
type Cartridge struct {
	PRGROM []uint8
	CHRROM []uint8
	PRGRAM []uint8
	CHRRAM []uint8

	Header iNESHeader
	Mapper mapper.Mapper

	headerMirroring mapper.Mirroring
}

// iNESHeader is the 16-byte iNES 1.0 file header. NES 2.0 images (Flags7 bits
// 2-3 == 0b10) are rejected at load time rather than partially supported.
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8
	CHRROMSize uint8
	Flags6     uint8
	Flags7     uint8
	Flags8     uint8
	Flags9     uint8
	Flags10    uint8
	Padding    [5]uint8
}

func (h iNESHeader) mapperNumber() uint8 {
	return (h.Flags6 >> 4) | (h.Flags7 & 0xF0)
}

func (h iNESHeader) isNES20() bool {
	return h.Flags7&0x0C == 0x08
}

func (h iNESHeader) hasFourScreenVRAM() bool {
	return h.Flags6&0x08 != 0
}

func (h iNESHeader) hasTrainer() bool {
	return h.Flags6&0x04 != 0
}

func (h iNESHeader) isBatteryBacked() bool {
	return h.Flags6&0x02 != 0
}

// LoadFromReader parses an iNES image and constructs the mapper it names.
func LoadFromReader(reader io.Reader) (*Cartridge, error) {
	cart := &Cartridge{}

	if err := cart.readHeader(reader); err != nil {
		return nil, neserr.WrapHeader("truncated iNES header: " + err.Error())
	}
	if string(cart.Header.Magic[:]) != "NES\x1A" {
		return nil, neserr.WrapHeader("missing iNES magic number")
	}
	if cart.Header.isNES20() {
		return nil, neserr.WrapHeader("NES 2.0 headers are not supported")
	}
	if cart.Header.hasFourScreenVRAM() {
		return nil, neserr.WrapHeader("four-screen VRAM layouts are not supported")
	}

	if cart.Header.hasTrainer() {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(reader, trainer); err != nil {
			return nil, neserr.WrapHeader("failed to read 512-byte trainer: " + err.Error())
		}
	}

	prgSize := int(cart.Header.PRGROMSize) * 16384
	cart.PRGROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(reader, cart.PRGROM); err != nil {
		return nil, neserr.WrapHeader("failed to read PRG ROM: " + err.Error())
	}

	chrSize := int(cart.Header.CHRROMSize) * 8192
	if chrSize > 0 {
		cart.CHRROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(reader, cart.CHRROM); err != nil {
			return nil, neserr.WrapHeader("failed to read CHR ROM: " + err.Error())
		}
	} else {
		chrRAMSize := 8192
		if cart.Header.mapperNumber() == 4 {
			chrRAMSize = 32768 // many MMC3 boards ship with a full 32KB of CHR RAM
		}
		cart.CHRRAM = make([]uint8, chrRAMSize)
	}

	if cart.Header.isBatteryBacked() {
		cart.PRGRAM = make([]uint8, 32768)
	}

	if cart.Header.Flags6&0x01 != 0 {
		cart.headerMirroring = mapper.MirroringVertical
	} else {
		cart.headerMirroring = mapper.MirroringHorizontal
	}

	mapperNumber := cart.Header.mapperNumber()
	mapperData := &mapper.CartridgeData{
		PRGROM: cart.PRGROM,
		CHRROM: cart.CHRROM,
		PRGRAM: cart.PRGRAM,
		CHRRAM: cart.CHRRAM,
	}

	m, err := mapper.New(mapperNumber, mapperData)
	if err != nil {
		return nil, err
	}
	cart.Mapper = m

	logger.LogInfo("cartridge: mapper=%d prg=%dKB chr=%dKB prgram=%dKB battery=%v",
		mapperNumber, len(cart.PRGROM)/1024, (len(cart.CHRROM)+len(cart.CHRRAM))/1024,
		len(cart.PRGRAM)/1024, cart.Header.isBatteryBacked())

	return cart, nil
}

func (c *Cartridge) readHeader(reader io.Reader) error {
	headerBytes := make([]uint8, 16)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return err
	}

	copy(c.Header.Magic[:], headerBytes[0:4])
	c.Header.PRGROMSize = headerBytes[4]
	c.Header.CHRROMSize = headerBytes[5]
	c.Header.Flags6 = headerBytes[6]
	c.Header.Flags7 = headerBytes[7]
	c.Header.Flags8 = headerBytes[8]
	c.Header.Flags9 = headerBytes[9]
	c.Header.Flags10 = headerBytes[10]
	copy(c.Header.Padding[:], headerBytes[11:16])

	return nil
}

// CPURead reads a CPU-bus address ($4020-$FFFF) through the mapper.
func (c *Cartridge) CPURead(addr uint16) uint8 {
	if c.Mapper == nil {
		return 0
	}
	return c.Mapper.CPURead(addr)
}

// CPUWrite writes a CPU-bus address through the mapper. cpuCycle is the
// running CPU cycle counter, which MMC1 needs to collapse the two write
// phases of an RMW instruction into a single shift-register update.
func (c *Cartridge) CPUWrite(addr uint16, value uint8, cpuCycle uint64) {
	if c.Mapper != nil {
		c.Mapper.CPUWrite(addr, value, cpuCycle)
	}
}

// PPURead reads a pattern-table address ($0000-$1FFF) through the mapper.
func (c *Cartridge) PPURead(addr uint16) uint8 {
	if c.Mapper == nil {
		return 0
	}
	v, _ := c.Mapper.PPURead(addr)
	return v
}

// PPUWrite writes a pattern-table address through the mapper.
func (c *Cartridge) PPUWrite(addr uint16, value uint8) {
	if c.Mapper != nil {
		c.Mapper.PPUWrite(addr, value)
	}
}

// ClockIRQ is driven by the PPU on each qualifying A12 rising edge. Mappers
// without a scanline counter (everything but MMC3) treat this as a no-op.
func (c *Cartridge) ClockIRQ() {
	if c.Mapper != nil {
		c.Mapper.ClockIRQ()
	}
}

// IRQAsserted reports and consumes a pending mapper IRQ.
func (c *Cartridge) IRQAsserted() bool {
	if c.Mapper == nil {
		return false
	}
	return c.Mapper.IRQAsserted()
}

// Mirroring resolves the active nametable mirroring: the mapper's dynamic
// choice when it has one (MMC1, MMC3, MMC4), otherwise the header's fixed
// setting. Returned as int (matching mapper.Mirroring's own ordering) so the
// ppu package can consume it without importing the mapper package.
func (c *Cartridge) Mirroring() int {
	if c.Mapper != nil {
		if m, ok := c.Mapper.Mirroring(); ok {
			return int(m)
		}
	}
	return int(c.headerMirroring)
}

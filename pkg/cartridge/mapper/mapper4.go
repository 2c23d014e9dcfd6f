package mapper

import "github.com/yoshiomiyamaegones/pkg/logger"

// mmc3 is Mapper 4: eight bank registers R0..R7 selected through a
// bank-select/bank-data port pair, with a scanline IRQ counter clocked by
// the PPU on qualifying A12 rising edges (the A12 low-hold filtering
// itself lives in the PPU, which calls ClockIRQ only once the line has
// been low long enough; see pkg/ppu).
type mmc3 struct {
	data *CartridgeData

	bankRegisters [8]uint8
	bankSelect    uint8
	mirrorMode    uint8
	prgRAMProtect uint8

	irqLatch      uint8
	irqCounter    uint8
	irqEnabled    bool
	irqPending    bool
	irqReloadNext bool

	prgBankCount uint8
	chrBankCount uint8
}

func newMMC3(data *CartridgeData) *mmc3 {
	m := &mmc3{
		data:          data,
		prgRAMProtect: 0x80,
		prgBankCount:  uint8(len(data.PRGROM) / 0x2000),
	}
	switch {
	case len(data.CHRROM) > 0:
		m.chrBankCount = uint8(len(data.CHRROM) / 0x400)
	case len(data.CHRRAM) > 0:
		m.chrBankCount = uint8(len(data.CHRRAM) / 0x400)
	default:
		m.chrBankCount = 8
	}
	if m.prgBankCount >= 2 {
		m.bankRegisters[6] = m.prgBankCount - 2
		m.bankRegisters[7] = m.prgBankCount - 1
	}
	return m
}

func (m *mmc3) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if len(m.data.PRGRAM) > 0 && m.prgRAMProtect&0x80 != 0 {
			return m.data.PRGRAM[addr-0x6000]
		}
	case addr >= 0x8000:
		bank := m.prgBankFor(addr)
		off := uint32(bank)*0x2000 + uint32(addr&0x1FFF)
		if int(off) < len(m.data.PRGROM) {
			return m.data.PRGROM[off]
		}
	}
	return 0
}

func (m *mmc3) prgBankFor(addr uint16) uint8 {
	prgMode := (m.bankSelect >> 6) & 1
	var bank uint8
	switch {
	case addr <= 0x9FFF:
		if prgMode == 0 {
			bank = m.bankRegisters[6]
		} else {
			bank = m.prgBankCount - 2
		}
	case addr <= 0xBFFF:
		bank = m.bankRegisters[7]
	case addr <= 0xDFFF:
		if prgMode == 0 {
			bank = m.prgBankCount - 2
		} else {
			bank = m.bankRegisters[6]
		}
	default:
		bank = m.prgBankCount - 1
	}
	if m.prgBankCount > 0 && bank >= m.prgBankCount {
		bank = m.prgBankCount - 1
	}
	return bank
}

func (m *mmc3) CPUWrite(addr uint16, value uint8, _ uint64) {
	switch {
	case addr >= 0x6000 && addr <= 0x7FFF:
		if len(m.data.PRGRAM) > 0 && m.prgRAMProtect&0x80 != 0 && m.prgRAMProtect&0x40 == 0 {
			m.data.PRGRAM[addr-0x6000] = value
		}
	case addr >= 0x8000:
		switch addr & 0xE001 {
		case 0x8000:
			m.bankSelect = value
		case 0x8001:
			idx := m.bankSelect & 0x07
			if idx >= 6 {
				if m.prgBankCount > 0 {
					m.bankRegisters[idx] = value % m.prgBankCount
				} else {
					m.bankRegisters[idx] = value
				}
			} else if m.chrBankCount > 0 {
				m.bankRegisters[idx] = value % m.chrBankCount
			} else {
				m.bankRegisters[idx] = value
			}
		case 0xA000:
			m.mirrorMode = value & 1
		case 0xA001:
			m.prgRAMProtect = value
		case 0xC000:
			m.irqLatch = value
		case 0xC001:
			m.irqReloadNext = true
		case 0xE000:
			m.irqEnabled = false
			m.irqPending = false
		case 0xE001:
			m.irqEnabled = true
		}
	}
}

func (m *mmc3) chrBankFor(addr uint16) uint8 {
	chrMode := (m.bankSelect >> 7) & 1
	var bank uint8
	if chrMode == 0 {
		switch {
		case addr < 0x800:
			bank = (m.bankRegisters[0] &^ 1) + uint8(addr/0x400)
		case addr < 0x1000:
			bank = (m.bankRegisters[1] &^ 1) + uint8((addr-0x800)/0x400)
		default:
			bank = m.bankRegisters[2+(addr-0x1000)/0x400]
		}
	} else {
		switch {
		case addr < 0x1000:
			bank = m.bankRegisters[2+addr/0x400]
		case addr < 0x1800:
			bank = (m.bankRegisters[0] &^ 1) + uint8((addr-0x1000)/0x400)
		default:
			bank = (m.bankRegisters[1] &^ 1) + uint8((addr-0x1800)/0x400)
		}
	}
	if m.chrBankCount > 0 {
		bank %= m.chrBankCount
	}
	return bank
}

func (m *mmc3) PPURead(addr uint16) (uint8, bool) {
	if addr >= 0x2000 {
		return 0, false
	}
	bank := m.chrBankFor(addr)
	off := uint32(bank)*0x400 + uint32(addr&0x3FF)
	if m.data.chrIsRAM() {
		if int(off) < len(m.data.CHRRAM) {
			return m.data.CHRRAM[off], true
		}
		return 0, true
	}
	if int(off) < len(m.data.CHRROM) {
		return m.data.CHRROM[off], true
	}
	return 0, true
}

func (m *mmc3) PPUWrite(addr uint16, value uint8) bool {
	if addr >= 0x2000 {
		return false
	}
	if m.data.chrIsRAM() {
		bank := m.chrBankFor(addr)
		off := uint32(bank)*0x400 + uint32(addr&0x3FF)
		if int(off) < len(m.data.CHRRAM) {
			m.data.CHRRAM[off] = value
		}
	}
	return true
}

func (m *mmc3) Mirroring() (Mirroring, bool) {
	if m.mirrorMode == 0 {
		return MirroringVertical, true
	}
	return MirroringHorizontal, true
}

func (m *mmc3) IRQAsserted() bool {
	pending := m.irqPending
	m.irqPending = false
	return pending
}

// ClockIRQ is driven by the PPU once per qualifying A12 rising edge (A12
// held low for at least 8 PPU cycles beforehand).
func (m *mmc3) ClockIRQ() {
	if m.irqReloadNext || m.irqCounter == 0 {
		m.irqCounter = m.irqLatch
		m.irqReloadNext = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
		logger.LogMapper("MMC3 IRQ asserted, latch=%d", m.irqLatch)
	}
}

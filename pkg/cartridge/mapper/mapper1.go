package mapper

import "github.com/yoshiomiyamaegones/pkg/logger"

// mmc1 is Mapper 1: a 5-bit serial shift register latched after 5 writes
// to $8000-$FFFF, selecting one of four internal registers by address
// bits 14..13. Consecutive writes at adjacent CPU cycles (as produced by a
// read-modify-write instruction's two write phases) collapse to a single
// write: the second is discarded.
type mmc1 struct {
	data *CartridgeData

	shift      uint8
	shiftCount uint8

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgMode uint8
	chrMode uint8
	mirror  uint8

	lastWriteCycle uint64
	haveLastWrite  bool
}

func newMMC1(data *CartridgeData) *mmc1 {
	return &mmc1{
		data:    data,
		control: 0x0C,
		prgMode: 3,
	}
}

func (m *mmc1) prgBankCount32() uint8 {
	if len(m.data.PRGROM) == 0 {
		return 0
	}
	return uint8(len(m.data.PRGROM) / 0x8000)
}

func (m *mmc1) prgBankCount16() uint8 {
	if len(m.data.PRGROM) == 0 {
		return 0
	}
	return uint8(len(m.data.PRGROM) / 0x4000)
}

func (m *mmc1) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		off := addr - 0x8000
		prgSize := len(m.data.PRGROM)
		switch m.prgMode {
		case 0, 1:
			bank := m.prgBank >> 1
			idx := uint32(bank)*0x8000 + uint32(off)
			if int(idx) < prgSize {
				return m.data.PRGROM[idx]
			}
		case 2:
			if off < 0x4000 {
				if int(off) < prgSize {
					return m.data.PRGROM[off]
				}
			} else {
				bank := m.prgBank & 0x0F
				idx := uint32(bank)*0x4000 + uint32(off-0x4000)
				if int(idx) < prgSize {
					return m.data.PRGROM[idx]
				}
			}
		case 3:
			if off < 0x4000 {
				bank := m.prgBank & 0x0F
				idx := uint32(bank)*0x4000 + uint32(off)
				if int(idx) < prgSize {
					return m.data.PRGROM[idx]
				}
			} else {
				last := m.prgBankCount16() - 1
				idx := uint32(last)*0x4000 + uint32(off-0x4000)
				if int(idx) < prgSize {
					return m.data.PRGROM[idx]
				}
			}
		}
	case addr >= 0x6000 && len(m.data.PRGRAM) > 0:
		if m.prgBank&0x10 == 0 {
			off := addr - 0x6000
			if int(off) < len(m.data.PRGRAM) {
				return m.data.PRGRAM[off]
			}
		}
	}
	return 0
}

func (m *mmc1) CPUWrite(addr uint16, value uint8, cpuCycle uint64) {
	if addr < 0x8000 {
		if addr >= 0x6000 && len(m.data.PRGRAM) > 0 && m.prgBank&0x10 == 0 {
			off := addr - 0x6000
			if int(off) < len(m.data.PRGRAM) {
				m.data.PRGRAM[off] = value
			}
		}
		return
	}

	if m.haveLastWrite && cpuCycle == m.lastWriteCycle+1 {
		logger.LogMapper("MMC1 consecutive write at cycle %d discarded", cpuCycle)
		m.lastWriteCycle = cpuCycle
		return
	}
	m.lastWriteCycle = cpuCycle
	m.haveLastWrite = true

	if value&0x80 != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		m.prgMode = 3
		return
	}

	m.shift = (m.shift >> 1) | ((value & 1) << 4)
	m.shiftCount++
	if m.shiftCount == 5 {
		m.writeRegister(addr, m.shift)
		m.shift = 0
		m.shiftCount = 0
	}
}

func (m *mmc1) writeRegister(addr uint16, value uint8) {
	switch {
	case addr <= 0x9FFF:
		m.control = value
		m.mirror = value & 3
		m.prgMode = (value >> 2) & 3
		m.chrMode = (value >> 4) & 1
	case addr <= 0xBFFF:
		m.chrBank0 = value
	case addr <= 0xDFFF:
		m.chrBank1 = value
	default:
		m.prgBank = value
	}
}

func (m *mmc1) PPURead(addr uint16) (uint8, bool) {
	if addr >= 0x2000 {
		return 0, false
	}
	bank, off := m.chrAddr(addr)
	if m.data.chrIsRAM() {
		if int(off) < len(m.data.CHRRAM) {
			return m.data.CHRRAM[off], true
		}
		return 0, true
	}
	_ = bank
	if int(off) < len(m.data.CHRROM) {
		return m.data.CHRROM[off], true
	}
	return 0, true
}

func (m *mmc1) PPUWrite(addr uint16, value uint8) bool {
	if addr >= 0x2000 {
		return false
	}
	if m.data.chrIsRAM() {
		_, off := m.chrAddr(addr)
		if int(off) < len(m.data.CHRRAM) {
			m.data.CHRRAM[off] = value
		}
	}
	return true
}

func (m *mmc1) chrAddr(addr uint16) (uint8, uint32) {
	if m.chrMode == 0 {
		bank := m.chrBank0 >> 1
		return bank, uint32(bank)*0x2000 + uint32(addr)
	}
	if addr < 0x1000 {
		return m.chrBank0, uint32(m.chrBank0)*0x1000 + uint32(addr)
	}
	return m.chrBank1, uint32(m.chrBank1)*0x1000 + uint32(addr-0x1000)
}

func (m *mmc1) Mirroring() (Mirroring, bool) {
	switch m.mirror {
	case 0:
		return MirroringOneScreenLo, true
	case 1:
		return MirroringOneScreenHi, true
	case 2:
		return MirroringVertical, true
	default:
		return MirroringHorizontal, true
	}
}

func (m *mmc1) IRQAsserted() bool { return false }
func (m *mmc1) ClockIRQ()         {}

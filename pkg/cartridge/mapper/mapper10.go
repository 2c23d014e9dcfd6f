package mapper

// mmc4 is Mapper 10 (FxROM): one switchable 16 KiB PRG bank at $8000, a
// fixed last 16 KiB at $C000, and two 4 KiB CHR halves each with a "$FD"
// and "$FE" tile-latch variant. Reading a pattern-table address in the
// $xFD8-$xFDF / $xFE8-$xFEF ranges latches that half's active variant for
// subsequent reads, mirroring the PPU's own tile fetches during rendering.
type mmc4 struct {
	data *CartridgeData

	prgBank uint8

	chr0FD, chr0FE uint8
	chr1FD, chr1FE uint8
	latch0, latch1 uint8 // 0 = $FD selected, 1 = $FE selected

	mirror uint8

	prgBankCount uint8
	chrBankCount uint8
}

func newMMC4(data *CartridgeData) *mmc4 {
	m := &mmc4{
		data:    data,
		latch0:  1,
		latch1:  1,
		prgBankCount: uint8(len(data.PRGROM) / 0x4000),
	}
	if len(data.CHRROM) > 0 {
		m.chrBankCount = uint8(len(data.CHRROM) / 0x1000)
	} else {
		m.chrBankCount = uint8(len(data.CHRRAM) / 0x1000)
	}
	return m
}

func (m *mmc4) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0xC000:
		last := m.prgBankCount - 1
		off := uint32(last)*0x4000 + uint32(addr-0xC000)
		if int(off) < len(m.data.PRGROM) {
			return m.data.PRGROM[off]
		}
	case addr >= 0x8000:
		bank := m.prgBank
		if m.prgBankCount > 0 {
			bank %= m.prgBankCount
		}
		off := uint32(bank)*0x4000 + uint32(addr-0x8000)
		if int(off) < len(m.data.PRGROM) {
			return m.data.PRGROM[off]
		}
	case addr >= 0x6000 && len(m.data.PRGRAM) > 0:
		off := addr - 0x6000
		if int(off) < len(m.data.PRGRAM) {
			return m.data.PRGRAM[off]
		}
	}
	return 0
}

func (m *mmc4) CPUWrite(addr uint16, value uint8, _ uint64) {
	switch {
	case addr >= 0x6000 && addr < 0x8000 && len(m.data.PRGRAM) > 0:
		off := addr - 0x6000
		if int(off) < len(m.data.PRGRAM) {
			m.data.PRGRAM[off] = value
		}
	case addr >= 0xA000 && addr <= 0xAFFF:
		m.prgBank = value & 0x0F
	case addr >= 0xB000 && addr <= 0xBFFF:
		m.chr0FD = value & 0x1F
	case addr >= 0xC000 && addr <= 0xCFFF:
		m.chr0FE = value & 0x1F
	case addr >= 0xD000 && addr <= 0xDFFF:
		m.chr1FD = value & 0x1F
	case addr >= 0xE000 && addr <= 0xEFFF:
		m.chr1FE = value & 0x1F
	case addr >= 0xF000 && addr <= 0xFFFF:
		m.mirror = value & 1
	}
}

func (m *mmc4) PPURead(addr uint16) (uint8, bool) {
	if addr >= 0x2000 {
		return 0, false
	}

	bank, off := m.chrAddr(addr)
	m.updateLatch(addr)
	_ = bank

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

func (m *mmc4) PPUWrite(addr uint16, value uint8) bool {
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

func (m *mmc4) chrAddr(addr uint16) (uint8, uint32) {
	if addr < 0x1000 {
		bank := m.chr0FD
		if m.latch0 == 1 {
			bank = m.chr0FE
		}
		return bank, uint32(bank)*0x1000 + uint32(addr)
	}
	bank := m.chr1FD
	if m.latch1 == 1 {
		bank = m.chr1FE
	}
	return bank, uint32(bank)*0x1000 + uint32(addr-0x1000)
}

// updateLatch inspects the tile-index portion of a PPU pattern-table read
// and flips the $FD/$FE latch for the half it falls in, per the hardware's
// $xFD8-$xFDF / $xFE8-$xFEF detection windows.
func (m *mmc4) updateLatch(addr uint16) {
	switch {
	case addr >= 0x0FD8 && addr <= 0x0FDF:
		m.latch0 = 0
	case addr >= 0x0FE8 && addr <= 0x0FEF:
		m.latch0 = 1
	case addr >= 0x1FD8 && addr <= 0x1FDF:
		m.latch1 = 0
	case addr >= 0x1FE8 && addr <= 0x1FEF:
		m.latch1 = 1
	}
}

func (m *mmc4) Mirroring() (Mirroring, bool) {
	if m.mirror == 0 {
		return MirroringVertical, true
	}
	return MirroringHorizontal, true
}

func (m *mmc4) IRQAsserted() bool { return false }
func (m *mmc4) ClockIRQ()         {}

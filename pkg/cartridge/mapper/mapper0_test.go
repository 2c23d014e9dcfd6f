package mapper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNROM(t *testing.T) {
	t.Run("16KB_PRG_mirrors_at_C000", func(t *testing.T) {
		data := &CartridgeData{PRGROM: testPRGROM16KB, CHRROM: testCHRROM8KB}
		m := newNROM(data)

		require.Equal(t, m.CPURead(0x8000), m.CPURead(0xC000))
		require.Equal(t, uint8(0x01), m.CPURead(0x8001))
	})

	t.Run("32KB_PRG_no_mirroring", func(t *testing.T) {
		data := &CartridgeData{PRGROM: testPRGROM32KB, CHRROM: testCHRROM8KB}
		m := newNROM(data)

		require.Equal(t, testPRGROM32KB[0x0000], m.CPURead(0x8000))
		require.Equal(t, testPRGROM32KB[0x4000], m.CPURead(0xC000))
	})

	t.Run("CHR_RAM_readwrite", func(t *testing.T) {
		data := &CartridgeData{PRGROM: testPRGROM16KB, CHRRAM: make([]uint8, 0x2000)}
		m := newNROM(data)

		m.PPUWrite(0x1000, 0xAB)
		v, ok := m.PPURead(0x1000)
		require.True(t, ok)
		require.Equal(t, uint8(0xAB), v)
	})

	t.Run("PRG_ROM_is_read_only", func(t *testing.T) {
		data := &CartridgeData{PRGROM: testPRGROM16KB, CHRROM: testCHRROM8KB}
		m := newNROM(data)

		before := m.CPURead(0x8000)
		m.CPUWrite(0x8000, 0xFF, 0)
		require.Equal(t, before, m.CPURead(0x8000))
	})

	t.Run("no_IRQ_support", func(t *testing.T) {
		m := newNROM(&CartridgeData{PRGROM: testPRGROM16KB, CHRROM: testCHRROM8KB})
		require.False(t, m.IRQAsserted())
		m.ClockIRQ()
		_, ok := m.Mirroring()
		require.False(t, ok)
	})
}

package ppu

import "testing"

// fakeCHRCartridge backs pattern-table reads/writes with a plain byte slice,
// standing in for a mapper during tests that need CHR data.
type fakeCHRCartridge struct {
	chr [0x2000]uint8
}

func (f *fakeCHRCartridge) PPURead(addr uint16) uint8         { return f.chr[addr] }
func (f *fakeCHRCartridge) PPUWrite(addr uint16, value uint8) { f.chr[addr] = value }
func (f *fakeCHRCartridge) ClockIRQ()                         {}
func (f *fakeCHRCartridge) IRQAsserted() bool                 { return false }
func (f *fakeCHRCartridge) Mirroring() int                    { return 0 }

func TestNametableRGBDimensions(t *testing.T) {
	ppu := createTestPPU()

	out := ppu.NametableRGB()
	if len(out) != 512*480*3 {
		t.Fatalf("expected %d bytes, got %d", 512*480*3, len(out))
	}
}

func TestNametableRGBReflectsTileData(t *testing.T) {
	ppu := createTestPPU()
	cart := &fakeCHRCartridge{}
	ppu.SetCartridge(cart)

	// Place a solid-color tile (pattern index 1) at nametable 0, tile (0,0).
	ppu.VRAM[0x2000] = 0x01
	for row := uint16(0); row < 8; row++ {
		// Pattern table 0, tile 1: low plane all set, high plane clear
		// selects color index 1 for every pixel in the tile.
		ppu.writeVRAM(0x0010+row, 0xFF)
	}
	ppu.PaletteManager.WritePalette(0x01, 0x30) // palette 0, color 1 -> white

	out := ppu.NametableRGB()

	r, g, b := out[0], out[1], out[2]
	if r != 0xFF || g != 0xFF || b != 0xFF {
		t.Errorf("expected top-left pixel to be white, got (%02X,%02X,%02X)", r, g, b)
	}
}

package ppu

// NametableRGB renders all four nametables (512x480, laid out as the 2x2
// grid of 256x240 screens they occupy in VRAM) into an RGB byte buffer for a
// debugger UI. It walks the same tile/attribute/pattern decode steps as
// renderBackgroundPixelCached, but addresses nametables directly by tile
// coordinate rather than through the v register's scroll state, so the
// output reflects raw VRAM content rather than whatever is currently
// scrolled into view.
func (p *PPU) NametableRGB() []uint8 {
	const width, height = 512, 480
	out := make([]uint8, width*height*3)

	patternTableBase := uint16(0x0000)
	if p.PPUCTRL&PPUCTRLBGTable != 0 {
		patternTableBase = 0x1000
	}

	for screenY := 0; screenY < height; screenY++ {
		nametableRow := screenY / 240
		tileY := (screenY % 240) / 8
		pixelY := (screenY % 240) % 8

		for screenX := 0; screenX < width; screenX++ {
			nametableCol := screenX / 256
			tileX := (screenX % 256) / 8
			pixelX := (screenX % 256) % 8

			nametableIndex := nametableRow*2 + nametableCol
			nametableBase := uint16(0x2000) + uint16(nametableIndex)*0x400

			tileAddr := nametableBase + uint16(tileY*32+tileX)
			tileIndex := p.readVRAM(tileAddr)

			attrAddr := nametableBase + 0x3C0 + uint16((tileY/4)*8+(tileX/4))
			attrByte := p.readVRAM(attrAddr)
			attrShift := ((tileY & 2) * 2) + ((tileX&2)/2)*2
			attributes := (attrByte >> attrShift) & 0x03

			patternAddr := patternTableBase + uint16(tileIndex)*16
			patternLo := p.readVRAM(patternAddr + uint16(pixelY))
			patternHi := p.readVRAM(patternAddr + uint16(pixelY) + 8)

			colorIndex := getPixelColor(patternLo, patternHi, pixelX)
			color := p.PaletteManager.GetBackgroundColor(attributes, colorIndex)

			offset := (screenY*width + screenX) * 3
			out[offset+0] = uint8((color >> 16) & 0xFF)
			out[offset+1] = uint8((color >> 8) & 0xFF)
			out[offset+2] = uint8(color & 0xFF)
		}
	}

	return out
}

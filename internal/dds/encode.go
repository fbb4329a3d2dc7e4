package dds

import (
	"encoding/binary"
	"errors"
	"image"
	"image/draw"
	"io"
)

// EncodeLossless writes m as an uncompressed 32-bit DDS with straight
// alpha. Bytes are stored R G B A.
func EncodeLossless(w io.Writer, m image.Image) error {
	b := m.Bounds()
	if b.Empty() {
		return errors.New("dds: empty image")
	}
	nrgba, ok := m.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(b)
		draw.Draw(nrgba, b, m, b.Min, draw.Src)
	}
	width, height := b.Dx(), b.Dy()
	rowBytes := width * 4

	var hdr [dataOffset]byte
	copy(hdr[:4], magic)
	put := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(hdr[4+off:], v)
	}
	put(0, headerSize)
	put(4, flagCaps|flagHeight|flagWidth|flagPixelFormat|flagPitch)
	put(8, uint32(height))
	put(12, uint32(width))
	put(16, uint32(rowBytes))

	put(pfOffset, pfSize)
	put(pfOffset+4, pfRGB|pfAlphaPixels)
	put(pfOffset+12, 32)
	// little-endian words, so byte 0 is the low mask
	put(pfOffset+16, 0x000000FF)
	put(pfOffset+20, 0x0000FF00)
	put(pfOffset+24, 0x00FF0000)
	put(pfOffset+28, 0xFF000000)

	put(pfOffset+pfSize, capsTexture)

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	for y := range height {
		off := nrgba.PixOffset(b.Min.X, b.Min.Y+y)
		if _, err := w.Write(nrgba.Pix[off : off+rowBytes]); err != nil {
			return err
		}
	}
	return nil
}

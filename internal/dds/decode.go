package dds

import (
	"encoding/binary"
	"fmt"
	"image"
	"math/bits"

	"github.com/mauserzjeh/dxt"
)

// Parse decodes a DDS texture held in memory.
func Parse(b []byte) (*image.NRGBA, error) {
	h, err := parseHeader(b)
	if err != nil {
		return nil, err
	}
	data := b[dataOffset:]
	if len(data) == 0 {
		return nil, fmt.Errorf("dds: no image data")
	}

	w, ht := uint(h.width), uint(h.height)
	var pix []byte
	switch h.pf.fourCC {
	case "DXT1":
		pix, err = dxt.DecodeDXT1(data, w, ht)
	case "DXT3":
		pix, err = dxt.DecodeDXT3(data, w, ht)
	case "DXT5":
		pix, err = dxt.DecodeDXT5(data, w, ht)
	case "DX10":
		return nil, fmt.Errorf("dds: DX10 header not supported")
	default:
		if h.pf.flags&pfFourCC != 0 {
			return nil, fmt.Errorf("dds: unsupported FourCC %q", h.pf.fourCC)
		}
		pix, err = decodeUncompressed(data, h)
	}
	if err != nil {
		return nil, fmt.Errorf("dds: decode %dx%d: %w", h.width, h.height, err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, h.width, h.height))
	if len(pix) != len(img.Pix) {
		return nil, fmt.Errorf("dds: decoded %d bytes, want %d", len(pix), len(img.Pix))
	}
	copy(img.Pix, pix)
	return img, nil
}

// decodeUncompressed unpacks 16, 24 or 32-bit pixels using the header's
// channel masks. Scanlines are assumed to be unpadded.
func decodeUncompressed(data []byte, h header) ([]byte, error) {
	bpp := int(h.pf.bitCount / 8)
	if bpp != 2 && bpp != 3 && bpp != 4 {
		return nil, fmt.Errorf("unsupported bit count %d", h.pf.bitCount)
	}
	want := h.width * h.height * bpp
	if len(data) < want {
		return nil, fmt.Errorf("data too small (%d < %d)", len(data), want)
	}

	masks := h.pf.masks
	if masks[0]|masks[1]|masks[2] == 0 {
		// BGR(A) is what most writers mean when they leave masks out.
		masks = [4]uint32{0x00FF0000, 0x0000FF00, 0x000000FF, 0xFF000000}
	}
	hasAlpha := h.pf.flags&pfAlphaPixels != 0 && masks[3] != 0

	out := make([]byte, h.width*h.height*4)
	var word [4]byte
	for i := range h.width * h.height {
		copy(word[:], data[i*bpp:i*bpp+bpp])
		v := binary.LittleEndian.Uint32(word[:])
		o := out[i*4 : i*4+4]
		o[0] = channel(v, masks[0])
		o[1] = channel(v, masks[1])
		o[2] = channel(v, masks[2])
		o[3] = 255
		if hasAlpha {
			o[3] = channel(v, masks[3])
		}
	}
	return out, nil
}

// channel extracts one masked field from v and widens it to 8 bits.
func channel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	val := (v & mask) >> shift
	if width >= 8 {
		return uint8(val >> (width - 8))
	}
	top := uint32(1)<<width - 1
	return uint8((val*255 + top/2) / top)
}

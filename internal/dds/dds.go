// Package dds reads DirectDraw Surface textures (DXT1, DXT3, DXT5 and
// uncompressed 24/32-bit RGB) and writes lossless 32-bit ones.
//
// Importing the package registers the format with image.Decode.
package dds

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

const (
	magic      = "DDS "
	headerSize = 124
	pfSize     = 32
	// pixel format offset inside the header
	pfOffset = 72
	// magic + header
	dataOffset = len(magic) + headerSize

	flagCaps        = 0x1
	flagHeight      = 0x2
	flagWidth       = 0x4
	flagPitch       = 0x8
	flagPixelFormat = 0x1000

	pfAlphaPixels = 0x1
	pfFourCC      = 0x4
	pfRGB         = 0x40

	capsTexture = 0x1000

	// sanity limit on declared dimensions
	maxDimension = 1 << 15
)

var ErrFormat = errors.New("dds: not a DDS file")

func init() {
	image.RegisterFormat("dds", magic, Decode, DecodeConfig)
}

type pixelFormat struct {
	flags    uint32
	fourCC   string
	bitCount uint32
	masks    [4]uint32 // r, g, b, a
}

type header struct {
	width  int
	height int
	pf     pixelFormat
}

func parseHeader(b []byte) (header, error) {
	if len(b) < dataOffset {
		return header{}, fmt.Errorf("%w: data too short for header: %d < %d", ErrFormat, len(b), dataOffset)
	}
	if string(b[:4]) != magic {
		return header{}, fmt.Errorf("%w: missing magic", ErrFormat)
	}
	hdr := b[4:dataOffset]
	h := header{
		height: int(binary.LittleEndian.Uint32(hdr[8:12])),
		width:  int(binary.LittleEndian.Uint32(hdr[12:16])),
	}
	if h.width <= 0 || h.height <= 0 || h.width > maxDimension || h.height > maxDimension {
		return header{}, fmt.Errorf("dds: bad dimensions %dx%d", h.width, h.height)
	}

	pf := hdr[pfOffset : pfOffset+pfSize]
	h.pf = pixelFormat{
		flags:    binary.LittleEndian.Uint32(pf[4:8]),
		fourCC:   string(pf[8:12]),
		bitCount: binary.LittleEndian.Uint32(pf[12:16]),
	}
	for i := range h.pf.masks {
		h.pf.masks[i] = binary.LittleEndian.Uint32(pf[16+4*i:])
	}

	// Some exporters leave the FourCC field empty and put it elsewhere in
	// the header.
	if h.pf.fourCC == "\x00\x00\x00\x00" && h.pf.flags&pfRGB == 0 {
		for _, s := range []string{"DXT1", "DXT3", "DXT5", "DX10"} {
			if bytes.Contains(hdr, []byte(s)) {
				h.pf.fourCC = s
				break
			}
		}
	}
	return h, nil
}

// DecodeConfig returns the dimensions of a DDS texture without decoding
// its pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	var b [dataOffset]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return image.Config{}, fmt.Errorf("dds: read header: %w", err)
	}
	h, err := parseHeader(b[:])
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}

// Decode reads a whole DDS texture from r.
func Decode(r io.Reader) (image.Image, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dds: read: %w", err)
	}
	return Parse(b)
}

// Package imagemeta extracts pixel dimensions from PNG and JPEG byte
// streams by reading headers only, without decoding image data. Inputs
// are untrusted; every accessor is bounds-checked and parse failures
// are reported as a missing result, never a panic.
package imagemeta

import "encoding/binary"

// Dimensions holds the pixel size declared in an image header.
type Dimensions struct {
	Width  int
	Height int
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// PNGDimensions reads width and height from a PNG IHDR chunk.
// The IHDR chunk is required by the PNG spec to come first, so the
// layout is fixed: signature (8 bytes), chunk length (4), chunk type
// "IHDR" (4), width (4), height (4).
func PNGDimensions(data []byte) (Dimensions, bool) {
	if len(data) < 24 {
		return Dimensions{}, false
	}
	for i, b := range pngSignature {
		if data[i] != b {
			return Dimensions{}, false
		}
	}
	if binary.BigEndian.Uint32(data[8:12]) != 13 {
		return Dimensions{}, false
	}
	if string(data[12:16]) != "IHDR" {
		return Dimensions{}, false
	}
	return Dimensions{
		Width:  int(binary.BigEndian.Uint32(data[16:20])),
		Height: int(binary.BigEndian.Uint32(data[20:24])),
	}, true
}

// JPEGDimensions scans marker segments for a Start-Of-Frame and reads
// the dimensions it carries. Markers without dimension data (DHT, DQT,
// APPn, comments) are skipped via their declared segment length.
func JPEGDimensions(data []byte) (Dimensions, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return Dimensions{}, false
	}

	i := 2
	for i < len(data)-1 {
		if data[i] != 0xFF {
			// Not at a marker boundary; corrupt stream.
			return Dimensions{}, false
		}
		// Skip fill bytes: 0xFF may repeat before the marker type.
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			return Dimensions{}, false
		}

		marker := data[i]
		i++

		switch {
		case isSOF(marker):
			// Segment: length (2), precision (1), height (2), width (2).
			if i+7 > len(data) {
				return Dimensions{}, false
			}
			return Dimensions{
				Height: int(binary.BigEndian.Uint16(data[i+3 : i+5])),
				Width:  int(binary.BigEndian.Uint16(data[i+5 : i+7])),
			}, true

		case marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) || marker == 0x01:
			// Standalone markers carry no length field.

		case marker == 0xD9 || marker == 0xDA:
			// EOI, or start of entropy-coded data with no SOF seen.
			return Dimensions{}, false

		default:
			if i+2 > len(data) {
				return Dimensions{}, false
			}
			length := int(binary.BigEndian.Uint16(data[i : i+2]))
			if length < 2 {
				return Dimensions{}, false
			}
			i += length
		}
	}
	return Dimensions{}, false
}

// isSOF reports whether a marker type is a Start-Of-Frame variant
// (baseline, progressive, or the less common sequential modes).
// 0xC4 (DHT), 0xC8 (JPG extension) and 0xCC (DAC) fall in the same
// numeric range but do not carry dimensions.
func isSOF(marker byte) bool {
	if marker < 0xC0 || marker > 0xCF {
		return false
	}
	return marker != 0xC4 && marker != 0xC8 && marker != 0xCC
}

package testutil

import (
	"encoding/binary"
	"fmt"
	"os"
)

// TIFF compression tag values.
const (
	TIFFCompressionNone    = 1
	TIFFCompressionLZW     = 5
	TIFFCompressionDeflate = 8
)

// TIFFCompression reads tag 259 from the first IFD of a TIFF file.
func TIFFCompression(path string) (uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(data) < 8 {
		return 0, fmt.Errorf("%s is too short for a TIFF header", path)
	}

	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("%s is not a TIFF file", path)
	}

	ifd := int(order.Uint32(data[4:8]))
	if ifd+2 > len(data) {
		return 0, fmt.Errorf("%s has a truncated IFD", path)
	}
	count := int(order.Uint16(data[ifd : ifd+2]))
	for i := range count {
		start := ifd + 2 + i*12
		if start+12 > len(data) {
			break
		}
		entry := data[start : start+12]
		if order.Uint16(entry[0:2]) == 259 {
			return order.Uint16(entry[8:10]), nil
		}
	}
	return 0, fmt.Errorf("%s has no compression tag", path)
}

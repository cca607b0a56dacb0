package testutil

import "encoding/binary"

// MakeDBC builds a WDBC byte buffer from rows and a raw string block.
// It assembles the bytes by hand, independent of the production
// serializer, so parse and serialize tests cross-check each other.
// Rows must all have fieldCount cells.
func MakeDBC(fieldCount int, rows [][]uint32, stringBlock []byte) []byte {
	out := []byte("WDBC")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(rows)))
	out = binary.LittleEndian.AppendUint32(out, uint32(fieldCount))
	out = binary.LittleEndian.AppendUint32(out, uint32(fieldCount*4))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(stringBlock)))
	for _, row := range rows {
		for _, cell := range row {
			out = binary.LittleEndian.AppendUint32(out, cell)
		}
	}
	return append(out, stringBlock...)
}

// Package dbc implements parsing, in-memory mutation and serialization of
// fixed-layout WDBC client data tables.
//
// A table is a small header, a row-major block of fixed-size records whose
// cells are all 32-bit little-endian values, and an append-only string
// block referenced by byte offset from record cells.
package dbc

import (
	"encoding/binary"
	"fmt"
)

// Magic identifies a vanilla WDBC file. Extended variants (WDB2, WDB5)
// are not supported.
var Magic = [4]byte{'W', 'D', 'B', 'C'}

// HeaderSize is the fixed size of the WDBC header: magic plus four uint32s
// (record count, field count, record size, string block size).
const HeaderSize = 4 + 4*4

// ParseError reports a structurally invalid table file. It aborts
// processing of the affected table before any change applies to it.
type ParseError struct {
	Table  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Table, e.Reason)
}

// Table is the in-memory form of one client data table. Rows is mutated
// in place across a patch run; the table serializes exactly once after
// all changes touching it have been applied.
type Table struct {
	Name       string
	FieldCount int
	RecordSize int
	Rows       [][]uint32
	Pool       *StringPool
}

// Parse reads a WDBC byte buffer into a Table. The remainder of the
// buffer after the record block is kept verbatim as the string pool.
func Parse(name string, data []byte) (*Table, error) {
	if len(data) < HeaderSize {
		return nil, &ParseError{Table: name, Reason: fmt.Sprintf("file too short: %d bytes", len(data))}
	}
	if [4]byte(data[:4]) != Magic {
		return nil, &ParseError{Table: name, Reason: fmt.Sprintf("bad magic %q", data[:4])}
	}

	recordCount := binary.LittleEndian.Uint32(data[4:])
	fieldCount := binary.LittleEndian.Uint32(data[8:])
	recordSize := binary.LittleEndian.Uint32(data[12:])
	blockSize := binary.LittleEndian.Uint32(data[16:])

	if fieldCount == 0 || recordSize != fieldCount*4 {
		// Some tables carry floats or arrays but every cell is still
		// 4 bytes wide, so this only rejects truly unknown layouts.
		return nil, &ParseError{
			Table:  name,
			Reason: fmt.Sprintf("unsupported record size %d for %d fields", recordSize, fieldCount),
		}
	}

	recordBytes := int(recordCount) * int(recordSize)
	if HeaderSize+recordBytes > len(data) {
		return nil, &ParseError{
			Table:  name,
			Reason: fmt.Sprintf("truncated record block: need %d bytes, have %d", recordBytes, len(data)-HeaderSize),
		}
	}

	block := data[HeaderSize+recordBytes:]
	if int(blockSize) != len(block) {
		return nil, &ParseError{
			Table:  name,
			Reason: fmt.Sprintf("string block size %d does not match remaining %d bytes", blockSize, len(block)),
		}
	}

	rows := make([][]uint32, 0, recordCount)
	for r := 0; r < int(recordCount); r++ {
		start := HeaderSize + r*int(recordSize)
		row := make([]uint32, fieldCount)
		for c := 0; c < int(fieldCount); c++ {
			row[c] = binary.LittleEndian.Uint32(data[start+c*4:])
		}
		rows = append(rows, row)
	}

	pool := make([]byte, len(block))
	copy(pool, block)

	return &Table{
		Name:       name,
		FieldCount: int(fieldCount),
		RecordSize: int(recordSize),
		Rows:       rows,
		Pool:       NewStringPool(pool),
	}, nil
}

// FindRow returns the index of the first row whose keyColumn cell equals
// key. Rows are scanned in order; the first match wins on ties. An
// out-of-range key column never matches.
func (t *Table) FindRow(keyColumn int, key uint32) (int, bool) {
	if keyColumn < 0 || keyColumn >= t.FieldCount {
		return 0, false
	}
	for i, row := range t.Rows {
		if row[keyColumn] == key {
			return i, true
		}
	}
	return 0, false
}

// NewRow allocates an all-zero row sized to the table's field count.
// The row is not attached to the table; see AppendRow.
func (t *Table) NewRow() []uint32 {
	return make([]uint32, t.FieldCount)
}

// AppendRow attaches a row to the end of the table.
func (t *Table) AppendRow(row []uint32) error {
	if len(row) != t.FieldCount {
		return fmt.Errorf("%s: row has %d cells, table has %d fields", t.Name, len(row), t.FieldCount)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// CloneRow returns a copy of the row at index i. String pool offsets are
// copied as-is, so the clone references the same pool bytes as the
// original.
func (t *Table) CloneRow(i int) []uint32 {
	row := make([]uint32, t.FieldCount)
	copy(row, t.Rows[i])
	return row
}

// Serialize re-emits the table as a WDBC byte buffer: header with the
// current record count and pool size, the row-major record block, then
// the string pool bytes verbatim.
func (t *Table) Serialize() []byte {
	out := make([]byte, 0, HeaderSize+len(t.Rows)*t.RecordSize+t.Pool.Len())
	out = append(out, Magic[:]...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(t.Rows)))
	out = binary.LittleEndian.AppendUint32(out, uint32(t.FieldCount))
	out = binary.LittleEndian.AppendUint32(out, uint32(t.RecordSize))
	out = binary.LittleEndian.AppendUint32(out, uint32(t.Pool.Len()))
	for _, row := range t.Rows {
		for _, cell := range row {
			out = binary.LittleEndian.AppendUint32(out, cell)
		}
	}
	out = append(out, t.Pool.Bytes()...)
	return out
}

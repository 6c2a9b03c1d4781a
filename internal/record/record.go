// Package record encodes and decodes the payload bytes stored in a
// TABLE_LEAF cell: the only B-tree cell variant that carries user data.
package record

import (
	"bytes"
	"encoding/binary"

	"github.com/furrow-db/furrowdb/internal/dberr"
)

// SQLType tags the wire representation of a single field.
type SQLType uint32

const (
	Key      SQLType = 0
	Byte     SQLType = 1
	SmallInt SQLType = 2
	Integer  SQLType = 4
	Text     SQLType = 28
)

// Field is one column's value within a Record.
type Field struct {
	Type SQLType
	Data interface{}
}

// Record is an ordered set of fields — the decoded form of a TABLE_LEAF
// cell's payload.
type Record struct {
	Fields []Field
}

// Write serialises r the same way Encode does, for callers that prefer to
// carry fields wrapped in a Record rather than a bare slice.
func (r Record) Write() ([]byte, error) {
	return Encode(r.Fields)
}

// ReadRecord decodes buf into a Record.
func ReadRecord(buf []byte) (Record, error) {
	fields, err := Decode(buf)
	if err != nil {
		return Record{}, err
	}
	return Record{Fields: fields}, nil
}

// Encode serialises fields into the byte layout stored as a TABLE_LEAF
// cell's payload: a length-prefixed header describing each column's type
// (and, for Text, its encoded length), followed by the column values
// themselves in fixed big-endian widths (Text is copied verbatim).
func Encode(fields []Field) ([]byte, error) {
	var header bytes.Buffer
	for _, f := range fields {
		if f.Data == nil {
			header.WriteByte(0)
			continue
		}
		switch f.Type {
		case Key:
			header.WriteByte(0)
		case Byte:
			header.WriteByte(1)
		case SmallInt:
			header.WriteByte(2)
		case Integer:
			header.WriteByte(4)
		case Text:
			s, ok := f.Data.(string)
			if !ok {
				return nil, dberr.New("record.Encode", dberr.IO)
			}
			fieldSize := uint32(2*len(s) + 13)
			enc := make([]byte, binary.MaxVarintLen32)
			n := binary.PutVarint(enc, int64(fieldSize))
			header.Write(enc[:n])
		default:
			return nil, dberr.New("record.Encode", dberr.IO)
		}
	}

	var out bytes.Buffer
	out.WriteByte(byte(header.Len() + 1))
	out.Write(header.Bytes())

	for _, f := range fields {
		if f.Data == nil || f.Type == Key {
			continue
		}
		switch v := f.Data.(type) {
		case byte:
			out.WriteByte(v)
		case int8:
			out.WriteByte(byte(v))
		case int16:
			binary.Write(&out, binary.BigEndian, uint16(v))
		case int32:
			binary.Write(&out, binary.BigEndian, uint32(v))
		case int64:
			binary.Write(&out, binary.BigEndian, uint32(v))
		case int:
			binary.Write(&out, binary.BigEndian, uint32(v))
		case string:
			out.WriteString(v)
		default:
			return nil, dberr.New("record.Encode", dberr.IO)
		}
	}

	return out.Bytes(), nil
}

// columnHeader is one decoded header entry: its type tag and, for Text
// columns, the number of payload bytes it occupies.
type columnHeader struct {
	typ     SQLType
	textLen int
	isNull  bool
}

// Decode parses the bytes previously produced by Encode back into fields.
func Decode(buf []byte) ([]Field, error) {
	if len(buf) == 0 {
		return nil, dberr.New("record.Decode", dberr.IO)
	}

	headerLen := int(buf[0])
	if headerLen < 1 || headerLen > len(buf) {
		return nil, dberr.New("record.Decode", dberr.CorruptHeader)
	}
	header := buf[1:headerLen]

	var cols []columnHeader
	for i := 0; i < len(header); {
		b := header[i]
		switch b {
		case 0:
			cols = append(cols, columnHeader{typ: Key, isNull: true})
			i++
		case 1:
			cols = append(cols, columnHeader{typ: Byte})
			i++
		case 2:
			cols = append(cols, columnHeader{typ: SmallInt})
			i++
		case 4:
			cols = append(cols, columnHeader{typ: Integer})
			i++
		default:
			fieldSize, n := binary.Varint(header[i:])
			if n <= 0 {
				return nil, dberr.New("record.Decode", dberr.CorruptHeader)
			}
			cols = append(cols, columnHeader{typ: Text, textLen: int((fieldSize - 13) / 2)})
			i += n
		}
	}

	data := buf[headerLen:]
	fields := make([]Field, 0, len(cols))
	for _, c := range cols {
		switch {
		case c.isNull:
			fields = append(fields, Field{Type: Key, Data: nil})
		case c.typ == Byte:
			if len(data) < 1 {
				return nil, dberr.New("record.Decode", dberr.CorruptHeader)
			}
			fields = append(fields, Field{Type: Byte, Data: data[0]})
			data = data[1:]
		case c.typ == SmallInt:
			if len(data) < 2 {
				return nil, dberr.New("record.Decode", dberr.CorruptHeader)
			}
			fields = append(fields, Field{Type: SmallInt, Data: int16(binary.BigEndian.Uint16(data))})
			data = data[2:]
		case c.typ == Integer:
			if len(data) < 4 {
				return nil, dberr.New("record.Decode", dberr.CorruptHeader)
			}
			fields = append(fields, Field{Type: Integer, Data: int32(binary.BigEndian.Uint32(data))})
			data = data[4:]
		case c.typ == Text:
			if len(data) < c.textLen {
				return nil, dberr.New("record.Decode", dberr.CorruptHeader)
			}
			fields = append(fields, Field{Type: Text, Data: string(data[:c.textLen])})
			data = data[c.textLen:]
		}
	}

	return fields, nil
}

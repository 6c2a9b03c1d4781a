package btree

import "github.com/furrow-db/furrowdb/internal/dberr"

// magic is the literal 16-byte string that opens every file header.
var magic = [16]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}

const (
	hdrMagicOffset      = 0
	hdrPageSizeOffset   = 16
	hdrByte18Offset     = 18
	hdrByte19Offset     = 19
	hdrByte20Offset     = 20
	hdrByte21Offset     = 21
	hdrWord22Offset     = 22
	hdrWord32Offset     = 32
	hdrWord36Offset     = 36
	hdrWord44Offset     = 44
	hdrWord48Offset     = 48
	hdrWord52Offset     = 52
	hdrWord56Offset     = 56
	hdrWord64Offset     = 64
)

// produceHeader writes the canonical 100-byte file header for pageSize into
// buf. Reserved offsets (24, 40, 60) are zeroed.
func produceHeader(buf []byte, pageSize uint16) {
	copy(buf[hdrMagicOffset:hdrMagicOffset+16], magic[:])
	PutUint16(buf, hdrPageSizeOffset, pageSize)
	buf[hdrByte18Offset] = 1
	buf[hdrByte19Offset] = 1
	buf[hdrByte20Offset] = 0
	buf[hdrByte21Offset] = 64
	PutUint16(buf, hdrWord22Offset, 0x2020)
	PutUint32(buf, hdrWord32Offset, 0)
	PutUint32(buf, hdrWord36Offset, 0)
	PutUint32(buf, hdrWord44Offset, 1)
	PutUint32(buf, hdrWord48Offset, 20000)
	PutUint32(buf, hdrWord52Offset, 0)
	PutUint32(buf, hdrWord56Offset, 1)
	PutUint32(buf, hdrWord64Offset, 0)
}

// verifyHeader checks every required field of a 100-byte file header,
// skipping the reserved offsets 24, 40 and 60. It returns the page size
// encoded at offset 16 on success.
func verifyHeader(buf []byte) (uint16, error) {
	if len(buf) != FileHeaderLen {
		return 0, dberr.New("btree.verifyHeader", dberr.CorruptHeader)
	}
	for i := 0; i < 16; i++ {
		if buf[i] != magic[i] {
			return 0, dberr.New("btree.verifyHeader", dberr.CorruptHeader)
		}
	}

	pageSize := GetUint16(buf, hdrPageSizeOffset)

	checks := []struct {
		ok bool
	}{
		{buf[hdrByte18Offset] == 1},
		{buf[hdrByte19Offset] == 1},
		{buf[hdrByte20Offset] == 0},
		{buf[hdrByte21Offset] == 64},
		{GetUint16(buf, hdrWord22Offset) == 0x2020},
		{GetUint32(buf, hdrWord32Offset) == 0},
		{GetUint32(buf, hdrWord36Offset) == 0},
		{GetUint32(buf, hdrWord44Offset) == 1},
		{GetUint32(buf, hdrWord48Offset) == 20000},
		{GetUint32(buf, hdrWord52Offset) == 0},
		{GetUint32(buf, hdrWord56Offset) == 1},
		{GetUint32(buf, hdrWord64Offset) == 0},
	}
	for _, c := range checks {
		if !c.ok {
			return 0, dberr.New("btree.verifyHeader", dberr.CorruptHeader)
		}
	}

	return pageSize, nil
}

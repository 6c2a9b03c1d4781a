package btree

import "github.com/furrow-db/furrowdb/internal/dberr"

// Cell is a decoded view of one B-tree cell. Which fields are meaningful
// depends on Tag; Payload is only ever populated for TABLE_LEAF, and is a
// slice borrowed directly from the owning node's page buffer.
type Cell struct {
	Tag PageType

	Key   uint32 // TABLE_INTERNAL, TABLE_LEAF
	Child uint32 // TABLE_INTERNAL, INDEX_INTERNAL

	KeyIdx uint32 // INDEX_INTERNAL, INDEX_LEAF
	KeyPk  uint32 // INDEX_INTERNAL, INDEX_LEAF

	Payload []byte // TABLE_LEAF only
}

// SortKey returns the value used to order this cell within its node: the
// row key for table variants, the index key for index variants.
func (c Cell) SortKey() uint32 {
	if c.Tag.IsTable() {
		return c.Key
	}
	return c.KeyIdx
}

// SizeOf returns the number of bytes c occupies on disk.
func SizeOf(c Cell) int {
	switch c.Tag {
	case TableLeaf:
		return TableLeafHeaderSize + len(c.Payload)
	default:
		return fixedCellSize(c.Tag)
	}
}

// GetCell decodes the k-th cell of node n.
func GetCell(n *Node, k int) (Cell, error) {
	if k < 0 || k >= int(n.NCells) {
		return Cell{}, dberr.New("btree.GetCell", dberr.CellNo)
	}

	off := int(GetUint16(n.Page.Data, n.cellOffset(k)))
	return decodeCell(n.Tag, n.Page.Data, off)
}

func decodeCell(tag PageType, buf []byte, off int) (Cell, error) {
	c := Cell{Tag: tag}
	switch tag {
	case TableInternal:
		key, _ := GetVarint32(buf[off+tableIntKeyOffset : off+tableIntKeyOffset+4])
		c.Key = key
		c.Child = GetUint32(buf, off+tableIntChildOffset)

	case TableLeaf:
		size, _ := GetVarint32(buf[off+tableLeafSizeOffset : off+tableLeafSizeOffset+4])
		key, _ := GetVarint32(buf[off+tableLeafKeyOffset : off+tableLeafKeyOffset+4])
		c.Key = key
		start := off + tableLeafDataOffset
		c.Payload = buf[start : start+int(size)]

	case IndexInternal:
		c.Child = GetUint32(buf, off+indexIntChildOffset)
		c.KeyIdx = GetUint32(buf, off+indexIntKeyIdxOffset)
		c.KeyPk = GetUint32(buf, off+indexIntKeyPkOffset)

	case IndexLeaf:
		c.KeyIdx = GetUint32(buf, off+indexLeafKeyIdxOffset)
		c.KeyPk = GetUint32(buf, off+indexLeafKeyPkOffset)

	default:
		return Cell{}, dberr.New("btree.decodeCell", dberr.CorruptHeader)
	}
	return c, nil
}

// WriteCell serialises c into buf starting at off. buf must have at least
// SizeOf(c) bytes available from off.
func WriteCell(buf []byte, off int, c Cell) error {
	switch c.Tag {
	case TableInternal:
		if _, err := PutVarint32(buf[off+tableIntKeyOffset:off+tableIntKeyOffset+4], c.Key); err != nil {
			return err
		}
		PutUint32(buf, off+tableIntChildOffset, c.Child)

	case TableLeaf:
		if _, err := PutVarint32(buf[off+tableLeafSizeOffset:off+tableLeafSizeOffset+4], uint32(len(c.Payload))); err != nil {
			return err
		}
		if _, err := PutVarint32(buf[off+tableLeafKeyOffset:off+tableLeafKeyOffset+4], c.Key); err != nil {
			return err
		}
		start := off + tableLeafDataOffset
		copy(buf[start:start+len(c.Payload)], c.Payload)

	case IndexInternal:
		PutUint32(buf, off+indexIntChildOffset, c.Child)
		PutUint32(buf, off+indexIntKeyIdxOffset, c.KeyIdx)
		PutUint32(buf, off+indexIntKeyPkOffset, c.KeyPk)

	case IndexLeaf:
		PutUint32(buf, off+indexLeafKeyIdxOffset, c.KeyIdx)
		PutUint32(buf, off+indexLeafKeyPkOffset, c.KeyPk)

	default:
		return dberr.New("btree.WriteCell", dberr.CorruptHeader)
	}
	return nil
}

package btree

import (
	"github.com/furrow-db/furrowdb/internal/dberr"
	"github.com/furrow-db/furrowdb/internal/pager"
)

// Node is a projection of a raw page's bytes into its B-tree node fields.
// It borrows the page's buffer; mutating a Node's fields has no effect on
// disk until Store writes it back through the engine.
type Node struct {
	Page *pager.Page

	Tag         PageType
	FreeOffset  uint16
	NCells      uint16
	CellsOffset uint16
	RightPage   uint32

	base int // byte offset of this node's header within Page.Data (0, or 100 on page 1)
}

// offsetArrayBase is the byte offset, within Page.Data, at which the
// cell-offset array begins.
func (n *Node) offsetArrayBase() int {
	return n.base + headerLen(n.Tag)
}

// cellOffset returns the byte position, within Page.Data, of offset-array
// slot k (the slot itself holds the page-relative offset of the k-th cell).
func (n *Node) cellOffset(k int) int {
	return n.base + headerLen(n.Tag) + 2*k
}

// LoadNode projects pg's bytes into a Node view, applying the page-1 header
// adjustment.
func LoadNode(pg *pager.Page) (*Node, error) {
	base := pageOneOffset(pg.Number)
	if base+LeafHeaderLen > len(pg.Data) {
		return nil, dberr.New("btree.LoadNode", dberr.IO)
	}

	n := &Node{Page: pg, base: base}
	n.Tag = PageType(pg.Data[base+hdrTagOffset])
	n.FreeOffset = GetUint16(pg.Data, base+hdrFreeOffset)
	n.NCells = GetUint16(pg.Data, base+hdrNCellsOffset)
	n.CellsOffset = GetUint16(pg.Data, base+hdrCellsOffset)
	if !n.Tag.IsLeaf() {
		if base+InternalHeaderLen > len(pg.Data) {
			return nil, dberr.New("btree.LoadNode", dberr.IO)
		}
		n.RightPage = GetUint32(pg.Data, base+hdrRightPageOffset)
	}
	return n, nil
}

// Store writes n's header fields back into its page buffer. It always
// writes the reserved zero byte, and skips right_page for leaves.
func (n *Node) Store() {
	buf := n.Page.Data
	buf[n.base+hdrTagOffset] = byte(n.Tag)
	buf[n.base+hdrZeroOffset] = 0
	PutUint16(buf, n.base+hdrFreeOffset, n.FreeOffset)
	PutUint16(buf, n.base+hdrNCellsOffset, n.NCells)
	PutUint16(buf, n.base+hdrCellsOffset, n.CellsOffset)
	if !n.Tag.IsLeaf() {
		PutUint32(buf, n.base+hdrRightPageOffset, n.RightPage)
	}
}

// InitEmpty resets n to represent a freshly allocated, empty node of the
// given variant: no cells, cells_offset at the end of the page, free_offset
// immediately after the header and (empty) offset array, right_page zero.
func (n *Node) InitEmpty(tag PageType, pageSize int) {
	n.Tag = tag
	n.NCells = 0
	n.CellsOffset = uint16(pageSize)
	n.FreeOffset = uint16(n.base + headerLen(tag))
	n.RightPage = 0
	n.Store()
}

// FreeBytes returns the number of bytes currently available for new cells
// and their offset-array entries.
func (n *Node) FreeBytes() int {
	return int(n.CellsOffset) - int(n.FreeOffset)
}

// Full reports whether inserting a cell of the given encoded size (plus its
// 2-byte offset-array entry) would overflow the node.
func (n *Node) Full(cellSize int) bool {
	return cellSize+2 > n.FreeBytes()
}

package btree

import "github.com/furrow-db/furrowdb/internal/dberr"

// InsertCell inserts cell at offset-array slot k, shifting later entries
// right. It assumes the caller has already checked that the node has room;
// the only bounds check performed here is k <= n_cells.
func InsertCell(n *Node, k int, cell Cell) error {
	if k < 0 || k > int(n.NCells) {
		return dberr.New("btree.InsertCell", dberr.CellNo)
	}

	size := SizeOf(cell)
	n.CellsOffset -= uint16(size)
	if err := WriteCell(n.Page.Data, int(n.CellsOffset), cell); err != nil {
		return err
	}

	base := n.offsetArrayBase()
	for i := int(n.NCells); i > k; i-- {
		src := base + 2*(i-1)
		dst := base + 2*i
		copy(n.Page.Data[dst:dst+2], n.Page.Data[src:src+2])
	}
	PutUint16(n.Page.Data, base+2*k, n.CellsOffset)

	n.NCells++
	n.FreeOffset += 2
	n.Store()
	return nil
}

// SearchNode binary-searches n's cells by their SortKey. It returns
// (true, k) when a cell with exactly key is present at offset-array slot
// k, and (false, k) where k is the slot at which such a cell would be
// inserted to keep the array sorted.
func SearchNode(n *Node, key uint32) (bool, int, error) {
	lo, hi := 0, int(n.NCells)
	for lo < hi {
		mid := (lo + hi) / 2
		c, err := GetCell(n, mid)
		if err != nil {
			return false, 0, err
		}
		switch {
		case c.SortKey() == key:
			return true, mid, nil
		case c.SortKey() < key:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false, lo, nil
}

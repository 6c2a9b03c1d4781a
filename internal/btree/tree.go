// Package btree implements the on-disk B-tree forest: a chidb/"SQLite
// format 3"-compatible page layout shared by table trees (row storage,
// keyed by integer primary key) and index trees (secondary lookup, keyed
// by an indexed column value that resolves to a primary key).
package btree

import (
	"github.com/sirupsen/logrus"

	"github.com/furrow-db/furrowdb/internal/dberr"
	"github.com/furrow-db/furrowdb/internal/pager"
)

// BTree is a handle onto an open database file. It exclusively owns a
// Pager; see spec.md §5 for the single-threaded contract this implies.
type BTree struct {
	pager    pager.Pager
	pageSize int
	log      *logrus.Entry
}

// Open opens filename, creating it if it does not already exist. A brand
// new (or truncated) file is initialised with the canonical file header
// and an empty TABLE_LEAF on page 1. An existing file has its header
// verified; CorruptHeader is returned if any required field mismatches.
func Open(logger *logrus.Logger, filename string) (*BTree, error) {
	if logger == nil {
		logger = logrus.New()
	}

	p, err := pager.Open(logger, filename)
	if err != nil {
		return nil, err
	}

	hdr := make([]byte, FileHeaderLen)
	if err := p.ReadHeader(hdr); err != nil {
		bt, initErr := initNewFile(logger, p)
		if initErr != nil {
			p.Close()
			return nil, initErr
		}
		return bt, nil
	}

	pageSize, err := verifyHeader(hdr)
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := p.SetPageSize(int(pageSize)); err != nil {
		p.Close()
		return nil, err
	}

	return &BTree{pager: p, pageSize: int(pageSize), log: logger.WithField("component", "btree")}, nil
}

func initNewFile(logger *logrus.Logger, p pager.Pager) (*BTree, error) {
	pageSize := pager.DefaultPageSize
	if err := p.SetPageSize(pageSize); err != nil {
		return nil, err
	}

	npage, err := p.AllocatePage()
	if err != nil {
		return nil, err
	}
	if npage != 1 {
		return nil, dberr.New("btree.Open", dberr.IO)
	}

	pg, err := p.ReadPage(npage)
	if err != nil {
		return nil, err
	}

	produceHeader(pg.Data[:FileHeaderLen], uint16(pageSize))

	n, err := LoadNode(pg)
	if err != nil {
		p.ReleasePage(pg)
		return nil, err
	}
	n.InitEmpty(TableLeaf, pageSize)

	if err := p.WritePage(pg); err != nil {
		p.ReleasePage(pg)
		return nil, err
	}
	p.ReleasePage(pg)

	return &BTree{pager: p, pageSize: pageSize, log: logger.WithField("component", "btree")}, nil
}

// Close closes the underlying pager.
func (bt *BTree) Close() error {
	return bt.pager.Close()
}

// PageSize returns the page size this tree was opened (or created) with.
func (bt *BTree) PageSize() int {
	return bt.pageSize
}

// LoadNode reads npage through the pager and projects it into a Node view.
// The caller must release it with FreeNode.
func (bt *BTree) LoadNode(npage uint32) (*Node, error) {
	pg, err := bt.pager.ReadPage(npage)
	if err != nil {
		return nil, err
	}
	n, err := LoadNode(pg)
	if err != nil {
		bt.pager.ReleasePage(pg)
		return nil, err
	}
	return n, nil
}

// FreeNode releases a Node's underlying page back to the pager without
// persisting any pending mutations. Callers that mutated n must call
// StoreNode first.
func (bt *BTree) FreeNode(n *Node) {
	bt.pager.ReleasePage(n.Page)
}

// StoreNode writes n's header fields back into its page buffer and
// persists the page through the pager.
func (bt *BTree) StoreNode(n *Node) error {
	n.Store()
	return bt.pager.WritePage(n.Page)
}

// NewNode allocates a fresh page and initialises it as an empty node of
// the given variant, returning its page number.
func (bt *BTree) NewNode(tag PageType) (uint32, error) {
	npage, err := bt.pager.AllocatePage()
	if err != nil {
		return 0, err
	}
	if err := bt.InitEmptyPage(npage, tag); err != nil {
		return 0, err
	}
	return npage, nil
}

// InitEmptyPage loads npage, resets it to an empty node of the given
// variant, and stores it back.
func (bt *BTree) InitEmptyPage(npage uint32, tag PageType) error {
	n, err := bt.LoadNode(npage)
	if err != nil {
		return err
	}
	n.InitEmpty(tag, bt.pageSize)
	err = bt.pager.WritePage(n.Page)
	bt.FreeNode(n)
	return err
}

// internalTagFor returns the internal-node variant that corresponds to a
// given leaf or internal variant, for use when growing the root.
func internalTagFor(t PageType) PageType {
	if t.IsTable() {
		return TableInternal
	}
	return IndexInternal
}

// copyNodeInto rebuilds dst's header, offset array and cell bytes to be an
// exact logical copy of src. dst and src may have different base offsets
// (e.g. src is page 1, dst is not); the cell area itself is untouched by
// base since offsets within it are always page-absolute.
func copyNodeInto(dst, src *Node) {
	dst.Tag = src.Tag

	copy(dst.Page.Data[src.CellsOffset:], src.Page.Data[src.CellsOffset:])

	for k := 0; k < int(src.NCells); k++ {
		v := GetUint16(src.Page.Data, src.offsetArrayBase()+2*k)
		PutUint16(dst.Page.Data, dst.offsetArrayBase()+2*k, v)
	}

	dst.NCells = src.NCells
	dst.CellsOffset = src.CellsOffset
	dst.RightPage = src.RightPage
	dst.FreeOffset = uint16(dst.offsetArrayBase() + 2*int(src.NCells))
}

// chooseChild returns the child page that key belongs under, given an
// internal node n: the offset-array-indexed child, or right_page when key
// is greater than every cell's key.
func chooseChild(n *Node, key uint32) (uint32, error) {
	_, k, err := SearchNode(n, key)
	if err != nil {
		return 0, err
	}
	if k == int(n.NCells) {
		return n.RightPage, nil
	}
	c, err := GetCell(n, k)
	if err != nil {
		return 0, err
	}
	return c.Child, nil
}

// Find performs a table-tree descent from root for key, returning the
// matching row's payload.
func (bt *BTree) Find(root uint32, key uint32) ([]byte, error) {
	npage := root
	for {
		n, err := bt.LoadNode(npage)
		if err != nil {
			return nil, err
		}

		found, k, err := SearchNode(n, key)
		if err != nil {
			bt.FreeNode(n)
			return nil, err
		}

		// TABLE_INTERNAL cells carry no payload of their own — they are
		// pure routing entries — so an exact key match there is not a
		// terminal result, unlike at a leaf: fall through to the same
		// child-selection logic as the not-found case.
		if found && n.Tag == TableLeaf {
			c, err := GetCell(n, k)
			if err != nil {
				bt.FreeNode(n)
				return nil, err
			}
			payload := append([]byte(nil), c.Payload...)
			bt.FreeNode(n)
			return payload, nil
		}

		if !found && n.Tag.IsLeaf() {
			bt.FreeNode(n)
			return nil, dberr.New("btree.Find", dberr.NotFound)
		}

		next, err := chooseChild(n, key)
		bt.FreeNode(n)
		if err != nil {
			return nil, err
		}
		npage = next
	}
}

// FindInIndex descends the index tree rooted at indexRoot looking for
// keyIdx. On a match it restarts the search in the table tree rooted at
// tableRoot using the matched cell's keyPk — the two-roots parameterisation
// spec.md calls for in place of the original single-root restart.
func (bt *BTree) FindInIndex(indexRoot, tableRoot uint32, keyIdx uint32) ([]byte, error) {
	npage := indexRoot
	for {
		n, err := bt.LoadNode(npage)
		if err != nil {
			return nil, err
		}

		found, k, err := SearchNode(n, keyIdx)
		if err != nil {
			bt.FreeNode(n)
			return nil, err
		}

		if found {
			c, err := GetCell(n, k)
			bt.FreeNode(n)
			if err != nil {
				return nil, err
			}
			return bt.Find(tableRoot, c.KeyPk)
		}

		if n.Tag.IsLeaf() {
			bt.FreeNode(n)
			return nil, dberr.New("btree.FindInIndex", dberr.NotFound)
		}

		next, err := chooseChild(n, keyIdx)
		bt.FreeNode(n)
		if err != nil {
			return nil, err
		}
		npage = next
	}
}

// InsertInTable inserts a row (key, data) into the table tree rooted at
// root.
func (bt *BTree) InsertInTable(root uint32, key uint32, data []byte) error {
	return bt.Insert(root, Cell{Tag: TableLeaf, Key: key, Payload: data})
}

// InsertInIndex inserts an (keyIdx, keyPk) entry into the index tree
// rooted at root.
func (bt *BTree) InsertInIndex(root uint32, keyIdx, keyPk uint32) error {
	return bt.Insert(root, Cell{Tag: IndexLeaf, KeyIdx: keyIdx, KeyPk: keyPk})
}

// Insert inserts cell into the tree rooted at root, growing the root (while
// preserving its page number) if it is currently full.
func (bt *BTree) Insert(root uint32, cell Cell) error {
	n, err := bt.LoadNode(root)
	if err != nil {
		return err
	}

	if n.Full(SizeOf(cell)) {
		if err := bt.growRoot(root, n); err != nil {
			return err
		}
	} else {
		bt.FreeNode(n)
	}

	return bt.insertNonFull(root, cell)
}

// growRoot preserves root's page number while giving the tree a new level:
// the old root's contents are copied onto a freshly allocated page, the
// root page itself is reinitialised as an internal node whose right_page
// points at the copy, and that lone child is immediately split. It always
// releases oldRoot itself (on every path) before Split reloads root's page,
// since a node must never hold two live views of the same page.
func (bt *BTree) growRoot(root uint32, oldRoot *Node) error {
	newPage, err := bt.pager.AllocatePage()
	if err != nil {
		bt.FreeNode(oldRoot)
		return err
	}
	newNode, err := bt.LoadNode(newPage)
	if err != nil {
		bt.FreeNode(oldRoot)
		return err
	}

	copyNodeInto(newNode, oldRoot)
	if err := bt.StoreNode(newNode); err != nil {
		bt.FreeNode(newNode)
		bt.FreeNode(oldRoot)
		return err
	}
	bt.FreeNode(newNode)

	oldRoot.InitEmpty(internalTagFor(oldRoot.Tag), bt.pageSize)
	oldRoot.RightPage = newPage
	err = bt.StoreNode(oldRoot)
	bt.FreeNode(oldRoot)
	if err != nil {
		return err
	}

	_, err = bt.Split(root, newPage, 0)
	return err
}

// insertNonFull recursively descends from npage, inserting cell once a
// leaf with room is reached, splitting any full child encountered along
// the way before recursing into it.
func (bt *BTree) insertNonFull(npage uint32, cell Cell) error {
	n, err := bt.LoadNode(npage)
	if err != nil {
		return err
	}

	found, k, err := SearchNode(n, cell.SortKey())
	if err != nil {
		bt.FreeNode(n)
		return err
	}
	if found {
		bt.FreeNode(n)
		return dberr.New("btree.insertNonFull", dberr.Duplicate)
	}

	if n.Tag.IsLeaf() {
		if err := InsertCell(n, k, cell); err != nil {
			bt.FreeNode(n)
			return err
		}
		err := bt.pager.WritePage(n.Page)
		bt.FreeNode(n)
		return err
	}

	var childPage uint32
	if k == int(n.NCells) {
		childPage = n.RightPage
	} else {
		c, err := GetCell(n, k)
		if err != nil {
			bt.FreeNode(n)
			return err
		}
		childPage = c.Child
	}

	child, err := bt.LoadNode(childPage)
	if err != nil {
		bt.FreeNode(n)
		return err
	}

	if !child.Full(SizeOf(cell)) {
		bt.FreeNode(child)
		bt.FreeNode(n)
		return bt.insertNonFull(childPage, cell)
	}

	bt.FreeNode(child)
	bt.FreeNode(n)

	if _, err := bt.Split(npage, childPage, k); err != nil {
		return err
	}

	parent, err := bt.LoadNode(npage)
	if err != nil {
		return err
	}
	next, err := chooseChild(parent, cell.SortKey())
	bt.FreeNode(parent)
	if err != nil {
		return err
	}

	return bt.insertNonFull(next, cell)
}

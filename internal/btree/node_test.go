package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/furrow-db/furrowdb/internal/pager"
)

func newTestPage(number uint32, size int) *pager.Page {
	return &pager.Page{Number: number, Data: make([]byte, size)}
}

func TestNodeInitEmptyOnPageOne(t *testing.T) {
	pg := newTestPage(1, 1024)
	n, err := LoadNode(pg)
	require.NoError(t, err)

	n.InitEmpty(TableLeaf, 1024)

	require.Equal(t, TableLeaf, n.Tag)
	require.Equal(t, uint16(0), n.NCells)
	require.Equal(t, uint16(1024), n.CellsOffset)
	require.Equal(t, uint16(FileHeaderLen+LeafHeaderLen), n.FreeOffset)
}

func TestNodeInitEmptyOnNonPageOne(t *testing.T) {
	pg := newTestPage(2, 1024)
	n, err := LoadNode(pg)
	require.NoError(t, err)

	n.InitEmpty(TableInternal, 1024)

	require.Equal(t, uint16(InternalHeaderLen), n.FreeOffset)
	require.Equal(t, uint16(1024), n.CellsOffset)
}

func TestNodeLoadStoreRoundTrip(t *testing.T) {
	pg := newTestPage(3, 1024)
	n, err := LoadNode(pg)
	require.NoError(t, err)
	n.InitEmpty(IndexInternal, 1024)
	n.RightPage = 42
	n.Store()

	reloaded, err := LoadNode(pg)
	require.NoError(t, err)
	require.Equal(t, IndexInternal, reloaded.Tag)
	require.Equal(t, uint32(42), reloaded.RightPage)
}

func TestNodeFull(t *testing.T) {
	pg := newTestPage(2, 32)
	n, err := LoadNode(pg)
	require.NoError(t, err)
	n.InitEmpty(TableLeaf, 32)

	require.False(t, n.Full(8))
	require.True(t, n.Full(1000))
}

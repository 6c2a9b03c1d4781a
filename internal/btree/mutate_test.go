package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertCellAppendsAndSorts(t *testing.T) {
	pg := newTestPage(2, 512)
	n, err := LoadNode(pg)
	require.NoError(t, err)
	n.InitEmpty(TableLeaf, 512)

	require.NoError(t, InsertCell(n, 0, Cell{Tag: TableLeaf, Key: 10, Payload: []byte("ten")}))
	require.NoError(t, InsertCell(n, 0, Cell{Tag: TableLeaf, Key: 5, Payload: []byte("five")}))
	require.NoError(t, InsertCell(n, 2, Cell{Tag: TableLeaf, Key: 20, Payload: []byte("twenty")}))

	require.Equal(t, uint16(3), n.NCells)

	c0, err := GetCell(n, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(5), c0.Key)

	c1, err := GetCell(n, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(10), c1.Key)

	c2, err := GetCell(n, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(20), c2.Key)
}

func TestInsertCellRejectsBadK(t *testing.T) {
	pg := newTestPage(2, 512)
	n, err := LoadNode(pg)
	require.NoError(t, err)
	n.InitEmpty(TableLeaf, 512)

	err = InsertCell(n, int(n.NCells)+1, Cell{Tag: TableLeaf, Key: 1, Payload: []byte("x")})
	require.Error(t, err)
}

func TestSearchNodeFindsExactAndInsertionPoint(t *testing.T) {
	pg := newTestPage(2, 512)
	n, err := LoadNode(pg)
	require.NoError(t, err)
	n.InitEmpty(TableLeaf, 512)

	require.NoError(t, InsertCell(n, 0, Cell{Tag: TableLeaf, Key: 10, Payload: []byte("a")}))
	require.NoError(t, InsertCell(n, 1, Cell{Tag: TableLeaf, Key: 30, Payload: []byte("b")}))

	found, k, err := SearchNode(n, 10)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 0, k)

	found, k, err = SearchNode(n, 20)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 1, k)

	found, k, err = SearchNode(n, 99)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 2, k)
}

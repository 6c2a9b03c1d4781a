package btree

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/furrow-db/furrowdb/internal/dberr"
)

func tempDBPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "furrowdb_btree_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "new.cdb")
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Seed scenario 1: Create.
func TestOpen_CreatesCanonicalNewFile(t *testing.T) {
	path := tempDBPath(t)
	bt, err := Open(discardLogger(), path)
	require.NoError(t, err)
	require.NoError(t, bt.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 1024)
	require.Equal(t, "SQLite format 3\x00", string(data[0:16]))
	require.Equal(t, []byte{0x04, 0x00}, data[16:18])
	require.Equal(t, byte(1), data[18])
	require.Equal(t, byte(64), data[21])
	require.Equal(t, []byte{0x20, 0x20}, data[22:24])
	require.Equal(t, byte(TableLeaf), data[100])

	nCells := GetUint16(data, 100+hdrNCellsOffset)
	require.Equal(t, uint16(0), nCells)
}

// Seed scenario 2: insert one row then find it.
func TestInsertAndFindOneRow(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	require.NoError(t, bt.InsertInTable(1, 1, []byte("Hard Drive")))

	got, err := bt.Find(1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte("Hard Drive"), got)
}

// Seed scenario 3: duplicate insert is rejected.
func TestInsertDuplicateRejected(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	require.NoError(t, bt.InsertInTable(1, 1, []byte("Hard Drive")))

	err = bt.InsertInTable(1, 1, []byte("Solid State Drive"))
	require.Error(t, err)
	require.True(t, dberr.Is(err, dberr.Duplicate))

	got, err := bt.Find(1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte("Hard Drive"), got)
}

// Seed scenario 4: load/store round-trip changes nothing.
func TestLoadStoreRoundTripIsIdentity(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	require.NoError(t, bt.InsertInTable(1, 1, []byte("row")))

	n, err := bt.LoadNode(1)
	require.NoError(t, err)
	before := append([]byte(nil), n.Page.Data...)
	require.NoError(t, bt.StoreNode(n))
	bt.FreeNode(n)

	n2, err := bt.LoadNode(1)
	require.NoError(t, err)
	require.Equal(t, before, n2.Page.Data)
	bt.FreeNode(n2)
}

// Seed scenario 5: enough inserts to force a root split.
func TestInsertManyTriggersSplit(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	const n = 40
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}

	for key := uint32(1); key <= n; key++ {
		require.NoError(t, bt.InsertInTable(1, key, payload), "insert key %d", key)
	}

	root, err := bt.LoadNode(1)
	require.NoError(t, err)
	require.Equal(t, TableInternal, root.Tag)
	bt.FreeNode(root)

	for key := uint32(1); key <= n; key++ {
		got, err := bt.Find(1, key)
		require.NoError(t, err, "find key %d", key)
		require.Equal(t, payload, got, "payload for key %d", key)
	}
}

// Seed scenario 6: index lookup restarts against the table root.
func TestFindInIndex_RestartsAgainstTableRoot(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	tableRoot := uint32(1)
	for _, row := range []struct {
		key     uint32
		payload string
	}{
		{10, "row-10"},
		{20, "row-20"},
		{30, "row-30"},
	} {
		require.NoError(t, bt.InsertInTable(tableRoot, row.key, []byte(row.payload)))
	}

	indexRoot, err := bt.NewNode(IndexLeaf)
	require.NoError(t, err)

	for _, e := range []struct{ keyIdx, keyPk uint32 }{
		{30, 10},
		{50, 20},
		{70, 30},
	} {
		require.NoError(t, bt.InsertInIndex(indexRoot, e.keyIdx, e.keyPk))
	}

	got, err := bt.FindInIndex(indexRoot, tableRoot, 50)
	require.NoError(t, err)
	require.Equal(t, []byte("row-20"), got)
}

func TestFindNotFound(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	_, err = bt.Find(1, 999)
	require.Error(t, err)
	require.True(t, dberr.Is(err, dberr.NotFound))
}

func TestOpen_RejectsCorruptHeader(t *testing.T) {
	path := tempDBPath(t)
	bt, err := Open(discardLogger(), path)
	require.NoError(t, err)
	require.NoError(t, bt.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Open(discardLogger(), path)
	require.Error(t, err)
	require.True(t, dberr.Is(err, dberr.CorruptHeader))
}

func TestInsertManyIndexEntriesTriggersIndexSplit(t *testing.T) {
	bt, err := Open(discardLogger(), tempDBPath(t))
	require.NoError(t, err)
	defer bt.Close()

	indexRoot, err := bt.NewNode(IndexLeaf)
	require.NoError(t, err)

	const n = 300
	for i := uint32(1); i <= n; i++ {
		require.NoError(t, bt.InsertInIndex(indexRoot, i, i*10), fmt.Sprintf("insert %d", i))
	}

	root, err := bt.LoadNode(indexRoot)
	require.NoError(t, err)
	require.Equal(t, IndexInternal, root.Tag)
	bt.FreeNode(root)
}

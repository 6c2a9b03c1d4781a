package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/furrow-db/furrowdb/internal/btree"
	"github.com/furrow-db/furrowdb/internal/record"
)

// tableRoot is the well-known root page of the single table tree every
// database file carries out of the box: page 1, created by btree.Open.
const tableRoot = 1

// CreateCommand opens (and, if necessary, creates) a database file and
// exits, so that scripts can provision a file before issuing put/get.
type CreateCommand struct {
	Logger *log.Entry
}

func (c *CreateCommand) Help() string {
	return strings.TrimSpace(`
Usage: furrowdb create <file>

Creates a new database file with an empty table root on page 1.
`)
}

func (c *CreateCommand) Synopsis() string {
	return "Create a new database file"
}

func (c *CreateCommand) Run(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Println(c.Help())
		return 1
	}

	bt, err := btree.Open(log.StandardLogger(), fs.Arg(0))
	if err != nil {
		c.Logger.WithError(err).Error("create failed")
		return 1
	}
	defer bt.Close()

	c.Logger.WithField("file", fs.Arg(0)).Info("database created")
	return 0
}

// PutCommand inserts a single (key, text value) row into the table root.
type PutCommand struct {
	Logger *log.Entry
}

func (c *PutCommand) Help() string {
	return strings.TrimSpace(`
Usage: furrowdb put <file> <key> <value>
`)
}

func (c *PutCommand) Synopsis() string {
	return "Insert a row into the table"
}

func (c *PutCommand) Run(args []string) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
		fmt.Println(c.Help())
		return 1
	}

	key, err := strconv.ParseUint(fs.Arg(1), 10, 32)
	if err != nil {
		c.Logger.WithError(err).Error("invalid key")
		return 1
	}

	bt, err := btree.Open(log.StandardLogger(), fs.Arg(0))
	if err != nil {
		c.Logger.WithError(err).Error("open failed")
		return 1
	}
	defer bt.Close()

	payload, err := record.Encode([]record.Field{{Type: record.Text, Data: fs.Arg(2)}})
	if err != nil {
		c.Logger.WithError(err).Error("encode failed")
		return 1
	}

	if err := bt.InsertInTable(tableRoot, uint32(key), payload); err != nil {
		c.Logger.WithError(err).Error("put failed")
		return 1
	}

	return 0
}

// GetCommand looks up a row in the table root and prints its value.
type GetCommand struct {
	Logger *log.Entry
}

func (c *GetCommand) Help() string {
	return strings.TrimSpace(`
Usage: furrowdb get <file> <key>
`)
}

func (c *GetCommand) Synopsis() string {
	return "Look up a row in the table"
}

func (c *GetCommand) Run(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		fmt.Println(c.Help())
		return 1
	}

	key, err := strconv.ParseUint(fs.Arg(1), 10, 32)
	if err != nil {
		c.Logger.WithError(err).Error("invalid key")
		return 1
	}

	bt, err := btree.Open(log.StandardLogger(), fs.Arg(0))
	if err != nil {
		c.Logger.WithError(err).Error("open failed")
		return 1
	}
	defer bt.Close()

	payload, err := bt.Find(tableRoot, uint32(key))
	if err != nil {
		c.Logger.WithError(err).Error("get failed")
		return 1
	}

	fields, err := record.Decode(payload)
	if err != nil {
		c.Logger.WithError(err).Error("decode failed")
		return 1
	}
	for _, f := range fields {
		fmt.Println(f.Data)
	}
	return 0
}

// NewIndexCommand allocates a fresh, empty index tree and prints its root
// page number, which the caller must remember to pass to index-put/get.
type NewIndexCommand struct {
	Logger *log.Entry
}

func (c *NewIndexCommand) Help() string {
	return strings.TrimSpace(`
Usage: furrowdb new-index <file>
`)
}

func (c *NewIndexCommand) Synopsis() string {
	return "Allocate a new, empty index tree"
}

func (c *NewIndexCommand) Run(args []string) int {
	fs := flag.NewFlagSet("new-index", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Println(c.Help())
		return 1
	}

	bt, err := btree.Open(log.StandardLogger(), fs.Arg(0))
	if err != nil {
		c.Logger.WithError(err).Error("open failed")
		return 1
	}
	defer bt.Close()

	root, err := bt.NewNode(btree.IndexLeaf)
	if err != nil {
		c.Logger.WithError(err).Error("new-index failed")
		return 1
	}

	fmt.Println(root)
	return 0
}

// IndexPutCommand inserts a (keyIdx, keyPk) entry into an index tree.
type IndexPutCommand struct {
	Logger *log.Entry
}

func (c *IndexPutCommand) Help() string {
	return strings.TrimSpace(`
Usage: furrowdb index-put <file> <index-root> <key-idx> <key-pk>
`)
}

func (c *IndexPutCommand) Synopsis() string {
	return "Insert an entry into an index tree"
}

func (c *IndexPutCommand) Run(args []string) int {
	fs := flag.NewFlagSet("index-put", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil || fs.NArg() != 4 {
		fmt.Println(c.Help())
		return 1
	}

	indexRoot, keyIdx, keyPk, err := parseUint32Triple(fs.Args()[1:])
	if err != nil {
		c.Logger.WithError(err).Error("invalid argument")
		return 1
	}

	bt, err := btree.Open(log.StandardLogger(), fs.Arg(0))
	if err != nil {
		c.Logger.WithError(err).Error("open failed")
		return 1
	}
	defer bt.Close()

	if err := bt.InsertInIndex(indexRoot, keyIdx, keyPk); err != nil {
		c.Logger.WithError(err).Error("index-put failed")
		return 1
	}
	return 0
}

// IndexGetCommand looks up an index entry and follows it to the matching
// row in the table tree.
type IndexGetCommand struct {
	Logger *log.Entry
}

func (c *IndexGetCommand) Help() string {
	return strings.TrimSpace(`
Usage: furrowdb index-get <file> <index-root> <key-idx>
`)
}

func (c *IndexGetCommand) Synopsis() string {
	return "Look up an index entry and print the matched row"
}

func (c *IndexGetCommand) Run(args []string) int {
	fs := flag.NewFlagSet("index-get", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
		fmt.Println(c.Help())
		return 1
	}

	indexRoot, keyIdx, _, err := parseUint32Triple([]string{fs.Arg(1), fs.Arg(2), "0"})
	if err != nil {
		c.Logger.WithError(err).Error("invalid argument")
		return 1
	}

	bt, err := btree.Open(log.StandardLogger(), fs.Arg(0))
	if err != nil {
		c.Logger.WithError(err).Error("open failed")
		return 1
	}
	defer bt.Close()

	payload, err := bt.FindInIndex(indexRoot, tableRoot, keyIdx)
	if err != nil {
		c.Logger.WithError(err).Error("index-get failed")
		return 1
	}

	fields, err := record.Decode(payload)
	if err != nil {
		c.Logger.WithError(err).Error("decode failed")
		return 1
	}
	for _, f := range fields {
		fmt.Println(f.Data)
	}
	return 0
}

func parseUint32Triple(args []string) (a, b, d uint32, err error) {
	vals := make([]uint32, 3)
	for i, s := range args {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, 0, 0, err
		}
		vals[i] = uint32(v)
	}
	return vals[0], vals[1], vals[2], nil
}

// Package pager implements the page-granular cached I/O that the btree
// engine is built on top of. The engine never touches the database file
// directly; it only ever goes through a Pager.
package pager

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/furrow-db/furrowdb/internal/dberr"
)

// DefaultPageSize is used by Open when a database file does not yet exist
// and the caller has not picked a different size with SetPageSize.
const DefaultPageSize = 1024

// Pager manages database paging to and from disk. A single Pager
// exclusively owns the underlying file; it is not safe for concurrent use
// by multiple goroutines (see spec.md §5).
type Pager interface {
	// PageSize returns the page size currently configured for this pager.
	PageSize() int

	// SetPageSize configures the page size. It must be called before the
	// first call to AllocatePage.
	SetPageSize(size int) error

	// ReadHeader copies the first 100 bytes of the file into out. It
	// returns an *dberr.Error of kind IO when the file is shorter than
	// 100 bytes.
	ReadHeader(out []byte) error

	// AllocatePage reserves and returns a newly appended page number.
	AllocatePage() (uint32, error)

	// ReadPage loads a page into memory. The caller must release it with
	// ReleasePage.
	ReadPage(npage uint32) (*Page, error)

	// WritePage persists a page's contents. The pager decides whether to
	// flush immediately or mark the page merely dirty.
	WritePage(p *Page) error

	// ReleasePage drops the caller's reference to a page obtained from
	// ReadPage.
	ReleasePage(p *Page)

	// Close flushes and closes the underlying file.
	Close() error
}

// FilePager is the default Pager backend: a buffered *os.File with an
// in-memory page cache keyed by page number.
type FilePager struct {
	file     *os.File
	pageSize int
	pageCount uint32

	cache map[uint32]*Page
	mu    sync.Mutex

	log *logrus.Entry
}

// Open opens (creating if necessary) the database file at path. The page
// count starts at zero and is derived from the file's size when SetPageSize
// is called, so the caller must call SetPageSize before reading or
// allocating pages.
func Open(logger *logrus.Logger, path string) (*FilePager, error) {
	if logger == nil {
		logger = logrus.New()
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, dberr.Wrap("pager.Open", dberr.IO, err)
	}

	p := &FilePager{
		file:     file,
		pageSize: DefaultPageSize,
		cache:    make(map[uint32]*Page),
		log:      logger.WithField("component", "pager"),
	}

	return p, nil
}

func (p *FilePager) PageSize() int {
	return p.pageSize
}

func (p *FilePager) SetPageSize(size int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if size <= 0 {
		return dberr.New("pager.SetPageSize", dberr.IO)
	}
	p.pageSize = size

	info, err := p.file.Stat()
	if err != nil {
		return dberr.Wrap("pager.SetPageSize", dberr.IO, err)
	}
	p.pageCount = uint32(info.Size() / int64(size))

	return nil
}

func (p *FilePager) ReadHeader(out []byte) error {
	if len(out) != 100 {
		return dberr.New("pager.ReadHeader", dberr.IO)
	}

	n, err := p.file.ReadAt(out, 0)
	if err != nil || n < 100 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return dberr.Wrap("pager.ReadHeader", dberr.IO, err)
	}

	return nil
}

func (p *FilePager) AllocatePage() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pageCount++
	p.log.WithField("page", p.pageCount).Debug("allocated page")
	return p.pageCount, nil
}

func (p *FilePager) ReadPage(npage uint32) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if npage < 1 || npage > p.pageCount {
		return nil, dberr.New("pager.ReadPage", dberr.PageNo)
	}

	if pg, ok := p.cache[npage]; ok {
		return pg, nil
	}

	data := make([]byte, p.pageSize)
	offset := pageOffset(npage, p.pageSize)
	if _, err := p.file.ReadAt(data, offset); err != nil && err != io.EOF {
		return nil, dberr.Wrap("pager.ReadPage", dberr.IO, err)
	}

	pg := &Page{Number: npage, Data: data}
	p.cache[npage] = pg
	return pg, nil
}

func (p *FilePager) WritePage(pg *Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pg.Number < 1 || pg.Number > p.pageCount {
		return dberr.New("pager.WritePage", dberr.PageNo)
	}

	offset := pageOffset(pg.Number, p.pageSize)
	if _, err := p.file.WriteAt(pg.Data, offset); err != nil {
		return dberr.Wrap("pager.WritePage", dberr.IO, err)
	}

	pg.dirty = false
	p.cache[pg.Number] = pg
	return nil
}

func (p *FilePager) ReleasePage(pg *Page) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log.WithField("page", pg.Number).Trace("released page")
}

func (p *FilePager) Close() error {
	if err := p.file.Sync(); err != nil {
		return errors.Wrap(err, "pager.Close: sync")
	}
	if err := p.file.Close(); err != nil {
		return dberr.Wrap("pager.Close", dberr.IO, err)
	}
	return nil
}

// pageOffset returns the absolute byte offset of page npage. Page 1 starts
// at file offset 0 and includes the 100-byte file header as its first
// bytes; the btree layer is responsible for interpreting that region.
func pageOffset(npage uint32, pageSize int) int64 {
	return int64(npage-1) * int64(pageSize)
}

var _ Pager = (*FilePager)(nil)

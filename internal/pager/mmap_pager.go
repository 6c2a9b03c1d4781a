package pager

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/furrow-db/furrowdb/internal/dberr"
)

// mmapGrowth is how many extra pages MmapPager reserves in the mapping
// beyond what has actually been allocated, to cut down on remap churn.
const mmapGrowth = 64

// MmapPager is an alternative Pager backend that memory-maps the database
// file instead of going through ReadAt/WriteAt. Pages returned by ReadPage
// are slices directly into the mapping: no copy happens on read, and
// writes are visible to other readers of the same Page without an explicit
// WritePage round-trip. The mapping is msynced by Sync and by Close.
//
// Linux/unix only: it is a lower-level alternative to FilePager, not the
// default.
type MmapPager struct {
	file     *os.File
	data     []byte
	mapSize  int64
	pageSize int
	pageCount uint32

	mu  sync.Mutex
	log *logrus.Entry
}

// OpenMmap opens path and maps it into memory. Before mapping, the file is
// extended to cover its whole pages plus mmapGrowth reserved pages.
func OpenMmap(logger *logrus.Logger, path string, pageSize int) (*MmapPager, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, dberr.Wrap("pager.OpenMmap", dberr.IO, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, dberr.Wrap("pager.OpenMmap", dberr.IO, err)
	}

	pageCount := uint32(info.Size()) / uint32(pageSize)
	mapSize := int64(pageSize) * int64(pageCount+mmapGrowth)
	if info.Size() < mapSize {
		if err := file.Truncate(mapSize); err != nil {
			file.Close()
			return nil, dberr.Wrap("pager.OpenMmap", dberr.IO, err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(mapSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, dberr.Wrap("pager.OpenMmap", dberr.IO, err)
	}

	return &MmapPager{
		file:      file,
		data:      data,
		mapSize:   mapSize,
		pageSize:  pageSize,
		pageCount: pageCount,
		log:       logger.WithField("component", "mmap_pager"),
	}, nil
}

func (p *MmapPager) PageSize() int {
	return p.pageSize
}

func (p *MmapPager) SetPageSize(size int) error {
	if p.pageCount > 0 {
		return dberr.New("pager.SetPageSize", dberr.IO)
	}
	p.pageSize = size
	return nil
}

func (p *MmapPager) ReadHeader(out []byte) error {
	if len(out) != 100 || int64(len(p.data)) < 100 || p.pageCount == 0 {
		return dberr.New("pager.ReadHeader", dberr.IO)
	}
	copy(out, p.data[:100])
	return nil
}

func (p *MmapPager) AllocatePage() (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pageCount++
	needed := int64(p.pageCount) * int64(p.pageSize)
	if needed > p.mapSize {
		if err := p.grow(needed + int64(mmapGrowth)*int64(p.pageSize)); err != nil {
			return 0, err
		}
	}

	p.log.WithField("page", p.pageCount).Debug("allocated page")
	return p.pageCount, nil
}

func (p *MmapPager) grow(newSize int64) error {
	if err := unix.Munmap(p.data); err != nil {
		return dberr.Wrap("pager.grow", dberr.IO, err)
	}
	if err := p.file.Truncate(newSize); err != nil {
		return dberr.Wrap("pager.grow", dberr.IO, err)
	}
	data, err := unix.Mmap(int(p.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return dberr.Wrap("pager.grow", dberr.IO, err)
	}
	p.data = data
	p.mapSize = newSize
	return nil
}

func (p *MmapPager) ReadPage(npage uint32) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if npage < 1 || npage > p.pageCount {
		return nil, dberr.New("pager.ReadPage", dberr.PageNo)
	}

	off := pageOffset(npage, p.pageSize)
	return &Page{Number: npage, Data: p.data[off : off+int64(p.pageSize)]}, nil
}

// WritePage is a no-op for the backing store beyond marking the page clean:
// since ReadPage hands back a slice directly into the mapping, mutations
// are already visible. WritePage exists so callers can use either backend
// interchangeably; it does not msync (Sync and Close do).
func (p *MmapPager) WritePage(pg *Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pg.Number < 1 || pg.Number > p.pageCount {
		return dberr.New("pager.WritePage", dberr.PageNo)
	}
	pg.dirty = false
	return nil
}

func (p *MmapPager) ReleasePage(pg *Page) {
	p.log.WithField("page", pg.Number).Trace("released page")
}

func (p *MmapPager) Sync() error {
	return unix.Msync(p.data, unix.MS_SYNC)
}

func (p *MmapPager) Close() error {
	if err := p.Sync(); err != nil {
		return dberr.Wrap("pager.Close", dberr.IO, err)
	}
	if err := unix.Munmap(p.data); err != nil {
		return dberr.Wrap("pager.Close", dberr.IO, err)
	}
	if err := p.file.Close(); err != nil {
		return dberr.Wrap("pager.Close", dberr.IO, err)
	}
	return nil
}

var _ Pager = (*MmapPager)(nil)

package pager

// Page is a single fixed-size block of a database file, addressed by a
// 1-based page number. The buffer backing Data is owned by the Pager that
// produced the Page; callers borrow it until they call ReleasePage.
type Page struct {
	Number uint32
	Data   []byte

	dirty bool
}

// Dirty reports the page's dirty flag. WritePage clears it; neither pager
// backend sets it, so writes into Data are not tracked by it.
func (p *Page) Dirty() bool {
	return p.dirty
}
